// Package diag carries the non-fatal warnings and the error taxonomy shared by
// every importer, exporter and the conversion façade.
package diag

import "fmt"

// Kind classifies a ConversionWarning.
type Kind string

const (
	KindMissingField       Kind = "missing-field"
	KindValueClamped       Kind = "value-clamped"
	KindUnsupportedFeature Kind = "unsupported-feature"
	KindTimeSeriesSkipped  Kind = "time-series-skipped"
	KindDataQuality        Kind = "data-quality-issue"
)

// Kinds lists every warning kind in a stable order.
var Kinds = []Kind{
	KindMissingField,
	KindValueClamped,
	KindUnsupportedFeature,
	KindTimeSeriesSkipped,
	KindDataQuality,
}

// Warning is one structured diagnostic produced during a conversion.
type Warning struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Path, w.Message)
}

// Collector accumulates warnings for a single conversion call. It never
// deduplicates and never fails. A nil *Collector discards everything, so
// callers that do not care about diagnostics can pass nil.
type Collector struct {
	warnings []Warning
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a warning.
func (c *Collector) Add(kind Kind, path, format string, args ...any) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, Warning{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	})
}

// Append adds already-built warnings, preserving their order.
func (c *Collector) Append(ws ...Warning) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, ws...)
}

func (c *Collector) MissingField(path, format string, args ...any) {
	c.Add(KindMissingField, path, format, args...)
}

func (c *Collector) Clamped(path, format string, args ...any) {
	c.Add(KindValueClamped, path, format, args...)
}

func (c *Collector) Unsupported(path, format string, args ...any) {
	c.Add(KindUnsupportedFeature, path, format, args...)
}

func (c *Collector) Skipped(path, format string, args ...any) {
	c.Add(KindTimeSeriesSkipped, path, format, args...)
}

func (c *Collector) DataQuality(path, format string, args ...any) {
	c.Add(KindDataQuality, path, format, args...)
}

// Len reports how many warnings have been collected.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.warnings)
}

// Warnings returns a copy of the collected warnings in insertion order.
func (c *Collector) Warnings() []Warning {
	if c == nil || len(c.warnings) == 0 {
		return nil
	}
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Count returns the number of warnings of the given kind.
func (c *Collector) Count(kind Kind) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, w := range c.warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
