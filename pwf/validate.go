package pwf

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lucasjlepore/fitconvert/model"
)

// Severity of a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Validation codes. H codes cover history structure, P codes plan structure
// and the glossary, W codes are advisory.
const (
	CodeHistoryVersion   = "PWF-H001"
	CodeExportedAt       = "PWF-H002"
	CodeNoWorkouts       = "PWF-H003"
	CodeWorkoutDate      = "PWF-H004"
	CodeTimestamp        = "PWF-H005"
	CodeTimeSeries       = "PWF-H006"
	CodePlanVersion      = "PWF-P001"
	CodePlanTitle        = "PWF-P002"
	CodeNoDays           = "PWF-P003"
	CodeEmptyDay         = "PWF-P004"
	CodePlanExercise     = "PWF-P005"
	CodeGlossarySize     = "PWF-P006"
	CodeGlossaryTerm     = "PWF-P007"
	CodeGlossaryTermLen  = "PWF-P008"
	CodeGlossaryDef      = "PWF-P009"
	CodeGlossaryDefLen   = "PWF-P010"
	CodeUnknownSport     = "PWF-W001"
	CodeValueRange       = "PWF-W002"
	CodeUnknownIntensity = "PWF-W003"
)

// Glossary limits.
const (
	MaxGlossaryEntries = 100
	MaxTermLength      = 50
	MaxDefLength       = 500
)

// Issue is one validation finding. Path is a JSON-pointer-like location.
type Issue struct {
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Path     string   `json:"path" yaml:"path"`
	Message  string   `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s %s: %s", i.Severity, i.Code, i.Path, i.Message)
}

// Report is the outcome of validating one document.
type Report struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Issues []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Valid reports whether the document has no error-severity issues.
func (r Report) Valid() bool {
	return len(r.Errors()) == 0
}

func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// ReportError carries an invalid Report through an error chain.
type ReportError struct {
	Report Report
}

func (e *ReportError) Error() string {
	errs := e.Report.Errors()
	if len(errs) == 0 {
		return "document valid"
	}
	msg := errs[0].String()
	if len(errs) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(errs)-1)
	}
	return msg
}

type checker struct {
	issues []Issue
}

func (c *checker) errorf(code, path, format string, args ...any) {
	c.issues = append(c.issues, Issue{Code: code, Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) warnf(code, path, format string, args ...any) {
	c.issues = append(c.issues, Issue{Code: code, Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate detects the document kind and validates it.
func Validate(data []byte) (Report, error) {
	kind, err := DetectKind(data)
	if err != nil {
		return Report{}, err
	}
	if kind == KindPlan {
		p, err := ParsePlan(data)
		if err != nil {
			return Report{}, err
		}
		return ValidatePlan(p), nil
	}
	h, err := ParseHistory(data)
	if err != nil {
		return Report{}, err
	}
	return ValidateHistory(h), nil
}

// ValidateHistory checks the structure of a history document.
func ValidateHistory(h *History) Report {
	c := &checker{}
	if h.HistoryVersion != HistoryVersion {
		c.errorf(CodeHistoryVersion, "/history_version", "unsupported history_version %d, want %d", h.HistoryVersion, HistoryVersion)
	}
	if _, err := parseTimestamp(h.ExportedAt); err != nil {
		c.errorf(CodeExportedAt, "/exported_at", "exported_at must be an RFC 3339 timestamp")
	}
	c.glossary(h.Glossary)
	if len(h.Workouts) == 0 {
		c.errorf(CodeNoWorkouts, "/workouts", "history contains no workouts")
	}
	for i := range h.Workouts {
		c.workout(&h.Workouts[i], fmt.Sprintf("/workouts/%d", i))
	}
	return Report{Kind: KindHistory, Issues: c.issues}
}

func (c *checker) workout(w *Workout, path string) {
	if _, err := time.Parse(time.DateOnly, w.Date); err != nil {
		c.errorf(CodeWorkoutDate, path+"/date", "date must be YYYY-MM-DD, got %q", w.Date)
	}
	start, startOK := c.timestamp(w.StartedAt, path+"/started_at")
	end, endOK := c.timestamp(w.EndedAt, path+"/ended_at")
	if startOK && endOK && end.Before(start) {
		c.errorf(CodeTimestamp, path+"/ended_at", "ended_at precedes started_at")
	}
	if w.Sport != "" {
		if _, ok := model.ParseSport(w.Sport); !ok {
			c.warnf(CodeUnknownSport, path+"/sport", "unknown sport %q", w.Sport)
		}
	}
	if w.RPE != nil && (*w.RPE < 1 || *w.RPE > 10) {
		c.warnf(CodeValueRange, path+"/rpe", "rpe %.1f outside 1-10", *w.RPE)
	}
	if w.DurationSec != nil && *w.DurationSec < 0 {
		c.warnf(CodeValueRange, path+"/duration_sec", "negative duration")
	}
	for si := range w.SportSegments {
		seg := &w.SportSegments[si]
		spath := fmt.Sprintf("%s/sport_segments/%d", path, si)
		if _, ok := model.ParseSport(seg.Sport); !ok {
			c.warnf(CodeUnknownSport, spath+"/sport", "unknown sport %q", seg.Sport)
		}
		c.timestamp(seg.StartedAt, spath+"/started_at")
		for li := range seg.Laps {
			c.lap(&seg.Laps[li], fmt.Sprintf("%s/laps/%d", spath, li))
		}
	}
	for ti, t := range w.Transitions {
		c.timestamp(t.StartedAt, fmt.Sprintf("%s/transitions/%d/started_at", path, ti))
	}
	for ei, ex := range w.Exercises {
		epath := fmt.Sprintf("%s/exercises/%d", path, ei)
		if strings.TrimSpace(ex.Name) == "" {
			c.errorf(CodePlanExercise, epath+"/name", "exercise name is empty")
		}
		if ex.Modality != "" && !modalities[ex.Modality] {
			c.errorf(CodePlanExercise, epath+"/modality", "unknown modality %q", ex.Modality)
		}
		for si, s := range ex.Sets {
			if s.RPE != nil && (*s.RPE < 0 || *s.RPE > 10) {
				c.warnf(CodeValueRange, fmt.Sprintf("%s/sets/%d/rpe", epath, si), "rpe %.1f outside 0-10", *s.RPE)
			}
		}
	}
}

func (c *checker) lap(l *Lap, path string) {
	c.timestamp(l.StartedAt, path+"/started_at")
	if l.Intensity != "" && !knownIntensity(l.Intensity) {
		c.warnf(CodeUnknownIntensity, path+"/intensity", "unknown intensity %q", l.Intensity)
	}
	ts := l.TimeSeries
	if ts == nil {
		return
	}
	n := len(ts.ElapsedSec)
	for i := 1; i < n; i++ {
		if ts.ElapsedSec[i] < ts.ElapsedSec[i-1] {
			c.errorf(CodeTimestamp, fmt.Sprintf("%s/time_series/elapsed_sec/%d", path, i), "elapsed_sec decreases")
			break
		}
	}
	for _, col := range ts.columns() {
		if col.values != nil && len(col.values) != n {
			c.errorf(CodeTimeSeries, path+"/time_series/"+col.name,
				"column has %d values, elapsed_sec has %d", len(col.values), n)
		}
	}
}

// timestamp validates an optional RFC 3339 value.
func (c *checker) timestamp(s, path string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := parseTimestamp(s)
	if err != nil {
		c.errorf(CodeTimestamp, path, "invalid timestamp %q", s)
		return time.Time{}, false
	}
	return t, true
}

// glossary enforces the size and length limits in a stable term order.
func (c *checker) glossary(g map[string]string) {
	if len(g) > MaxGlossaryEntries {
		c.errorf(CodeGlossarySize, "/glossary", "glossary has %d entries, at most %d allowed", len(g), MaxGlossaryEntries)
	}
	terms := make([]string, 0, len(g))
	for term := range g {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		path := "/glossary/" + term
		switch n := utf8.RuneCountInString(strings.TrimSpace(term)); {
		case n == 0:
			c.errorf(CodeGlossaryTerm, path, "glossary term is empty")
		case utf8.RuneCountInString(term) > MaxTermLength:
			c.errorf(CodeGlossaryTermLen, path, "term has %d characters, at most %d allowed", utf8.RuneCountInString(term), MaxTermLength)
		}
		def := g[term]
		switch {
		case strings.TrimSpace(def) == "":
			c.errorf(CodeGlossaryDef, path, "definition is empty")
		case utf8.RuneCountInString(def) > MaxDefLength:
			c.errorf(CodeGlossaryDefLen, path, "definition has %d characters, at most %d allowed", utf8.RuneCountInString(def), MaxDefLength)
		}
	}
}

// ValidatePlan checks the structure of a plan document.
func ValidatePlan(p *Plan) Report {
	c := &checker{}
	if p.PlanVersion != PlanVersion {
		c.errorf(CodePlanVersion, "/plan_version", "unsupported plan_version %d, want %d", p.PlanVersion, PlanVersion)
	}
	if p.Meta == nil || strings.TrimSpace(p.Meta.Title) == "" {
		c.errorf(CodePlanTitle, "/meta/title", "plan title is required")
	}
	if p.Meta != nil && p.Meta.DaysPerWeek != nil && (*p.Meta.DaysPerWeek < 1 || *p.Meta.DaysPerWeek > 7) {
		c.warnf(CodeValueRange, "/meta/days_per_week", "days_per_week %d outside 1-7", *p.Meta.DaysPerWeek)
	}
	c.glossary(p.Glossary)
	if p.Cycle.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, p.Cycle.StartDate); err != nil {
			c.errorf(CodePlanExercise, "/cycle/start_date", "start_date must be YYYY-MM-DD")
		}
	}
	if len(p.Cycle.Days) == 0 {
		c.errorf(CodeNoDays, "/cycle/days", "cycle has no days")
	}
	for di, day := range p.Cycle.Days {
		dpath := fmt.Sprintf("/cycle/days/%d", di)
		if len(day.Exercises) == 0 {
			c.errorf(CodeEmptyDay, dpath+"/exercises", "day has no exercises")
		}
		for ei, ex := range day.Exercises {
			epath := fmt.Sprintf("%s/exercises/%d", dpath, ei)
			if strings.TrimSpace(ex.Name) == "" {
				c.errorf(CodePlanExercise, epath+"/name", "exercise name is empty")
			}
			if !modalities[ex.Modality] {
				c.errorf(CodePlanExercise, epath+"/modality", "unknown modality %q", ex.Modality)
			}
		}
	}
	return Report{Kind: KindPlan, Issues: c.issues}
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

var intensities = map[string]model.Intensity{
	"active":   model.IntensityActive,
	"rest":     model.IntensityRest,
	"warmup":   model.IntensityWarmup,
	"cooldown": model.IntensityCooldown,
	"work":     model.IntensityWork,
	"recovery": model.IntensityRecovery,
}

func knownIntensity(s string) bool {
	_, ok := intensities[strings.ToLower(s)]
	return ok
}
