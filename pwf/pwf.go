package pwf

import (
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

// Import validates a PWF history and converts one of its workouts. Plans are
// rejected with UnsupportedFormat: they hold prescriptions, not recordings.
// Validator warnings are forwarded as data-quality warnings.
func Import(data []byte, opts ToModelOptions, c *diag.Collector) (*model.Workout, error) {
	kind, err := DetectKind(data)
	if err != nil {
		return nil, err
	}
	if kind == KindPlan {
		return nil, diag.Unsupported(importOp, "training plans cannot be converted to workouts")
	}
	h, err := ParseHistory(data)
	if err != nil {
		return nil, err
	}
	report := ValidateHistory(h)
	if errs := report.Errors(); len(errs) > 0 {
		return nil, diag.Invalid(importOp, errs[0].Path, "%w", &ReportError{Report: report})
	}
	for _, issue := range report.Warnings() {
		c.DataQuality(issue.Path, "%s: %s", issue.Code, issue.Message)
	}
	return ToModel(h, opts, c)
}

// Export converts w into a single-workout PWF history. The document is
// validated before encoding; a rejected document is a ValidationError.
func Export(w *model.Workout, opts FromModelOptions, c *diag.Collector) ([]byte, error) {
	h := FromModel(w, opts)
	report := ValidateHistory(h)
	if !report.Valid() {
		return nil, diag.Validation("export pwf", &ReportError{Report: report})
	}
	for _, issue := range report.Warnings() {
		c.DataQuality(issue.Path, "%s: %s", issue.Code, issue.Message)
	}
	return Marshal(h)
}
