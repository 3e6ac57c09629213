package pwf

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lucasjlepore/fitconvert/diag"
)

// Kind tells a history document from a plan.
type Kind string

const (
	KindHistory Kind = "history"
	KindPlan    Kind = "plan"
)

const parseOp = "parse pwf"

type probe struct {
	HistoryVersion any `yaml:"history_version"`
	Workouts       any `yaml:"workouts"`
	PlanVersion    any `yaml:"plan_version"`
	Cycle          any `yaml:"cycle"`
}

// DetectKind inspects the top-level keys of a document.
func DetectKind(data []byte) (Kind, error) {
	var p probe
	if err := yaml.Unmarshal(data, &p); err != nil {
		return "", diag.Read(parseOp, err)
	}
	switch {
	case p.HistoryVersion != nil || p.Workouts != nil:
		return KindHistory, nil
	case p.PlanVersion != nil || p.Cycle != nil:
		return KindPlan, nil
	default:
		return "", diag.Invalid(parseOp, "/", "document has neither history_version nor plan_version")
	}
}

// ParseHistory decodes a history document without validating it.
func ParseHistory(data []byte) (*History, error) {
	var h History
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, diag.Read(parseOp, err)
	}
	return &h, nil
}

// ParsePlan decodes a plan document without validating it.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, diag.Read(parseOp, err)
	}
	return &p, nil
}

// Marshal encodes a History or Plan as YAML with two-space indentation.
func Marshal(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, diag.Serialization("marshal pwf", err)
	}
	if err := enc.Close(); err != nil {
		return nil, diag.Serialization("marshal pwf", fmt.Errorf("flush yaml: %w", err))
	}
	return buf.Bytes(), nil
}
