// Package convert dispatches one import and one export per call and returns
// the payload together with every warning raised on the way.
//
// A Converter holds no per-call state and may be shared between goroutines.
package convert

import (
	"log/slog"
	"time"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/fitdecode"
	"github.com/lucasjlepore/fitconvert/fitimport"
	"github.com/lucasjlepore/fitconvert/gpx"
	"github.com/lucasjlepore/fitconvert/model"
	"github.com/lucasjlepore/fitconvert/pwf"
	"github.com/lucasjlepore/fitconvert/tabular"
	"github.com/lucasjlepore/fitconvert/tcx"
)

const op = "convert"

// Options selects the conversion pair and its knobs.
type Options struct {
	From Format
	To   Format
	// SummaryOnly imports laps and sessions without per-sample telemetry.
	SummaryOnly bool
	// WorkoutIndex picks one workout from multi-workout sources.
	WorkoutIndex int
	Analysis     fitconvert.Options
	Tabular      tabular.Options
	// Validate checks the imported workout against the PWF validator before
	// exporting. An invalid document aborts with a validation error.
	Validate bool
}

// Result is returned by every Convert call, including failed ones.
type Result struct {
	Payload  []byte
	Warnings []diag.Warning
	Workout  *model.Workout
	// Report is set when Options.Validate was requested.
	Report *pwf.Report
}

// Converter runs conversions.
type Converter struct {
	logger  *slog.Logger
	decoder fitimport.Decoder
	metrics *Metrics
	source  pwf.ExportSource
	now     func() time.Time
}

// Option customizes a Converter.
type Option func(*Converter)

// WithDecoder replaces the FIT decoding service.
func WithDecoder(d fitimport.Decoder) Option {
	return func(c *Converter) { c.decoder = d }
}

// WithMetrics records every conversion on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithExportSource sets the export_source block of PWF output.
func WithExportSource(src pwf.ExportSource) Option {
	return func(c *Converter) { c.source = src }
}

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// New returns a Converter. A nil logger discards log output.
func New(logger *slog.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Converter{
		logger:  logger,
		decoder: fitdecode.New(),
		source:  pwf.ExportSource{AppName: "fitconvert"},
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Convert imports data as opts.From and exports it as opts.To. The result is
// never nil; on failure it holds the warnings gathered before the error.
func (c *Converter) Convert(data []byte, opts Options) (*Result, error) {
	began := time.Now()
	col := diag.NewCollector()
	res := &Result{}
	log := c.logger.With("from", opts.From, "to", opts.To)
	log.Debug("conversion started", "bytes", len(data))

	err := c.run(data, opts, col, res)
	res.Warnings = col.Warnings()
	elapsed := time.Since(began)
	c.metrics.observe(opts.From, opts.To, diag.KindOf(err), res.Warnings, elapsed)

	if err != nil {
		log.Info("conversion failed",
			"error_kind", diag.KindOf(err),
			"error", err,
			"warnings", len(res.Warnings))
		return res, err
	}
	log.Info("conversion finished",
		"warnings", len(res.Warnings),
		"bytes", len(res.Payload),
		"duration", elapsed)
	for _, w := range res.Warnings {
		log.Debug("conversion warning", "kind", w.Kind, "path", w.Path, "message", w.Message)
	}
	return res, nil
}

func (c *Converter) run(data []byte, opts Options, col *diag.Collector, res *Result) error {
	if !opts.To.CanExport() {
		return diag.Unsupported(op, "cannot export to %q", opts.To)
	}
	w, err := c.Import(data, opts, col)
	if err != nil {
		return err
	}
	res.Workout = w

	if opts.Validate {
		report := pwf.ValidateHistory(pwf.FromModel(w, c.pwfOptions()))
		res.Report = &report
		if !report.Valid() {
			return diag.Validation(op, &pwf.ReportError{Report: report})
		}
	}

	payload, err := c.Export(w, opts, col)
	if err != nil {
		return err
	}
	res.Payload = payload
	return nil
}

// Import runs only the importer for opts.From.
func (c *Converter) Import(data []byte, opts Options, col *diag.Collector) (*model.Workout, error) {
	switch opts.From {
	case FormatFIT:
		return fitimport.ImportBytes(c.decoder, data, fitimport.Options{
			SummaryOnly: opts.SummaryOnly,
			Analysis:    opts.Analysis,
		}, col)
	case FormatTCX:
		return tcx.Import(data, tcx.Options{
			WorkoutIndex: opts.WorkoutIndex,
			SummaryOnly:  opts.SummaryOnly,
			Analysis:     opts.Analysis,
		}, col)
	case FormatGPX:
		w, err := gpx.Import(data, opts.Analysis, col)
		if err == nil && opts.SummaryOnly {
			dropTelemetry(w, col)
		}
		return w, err
	case FormatPWF:
		return pwf.Import(data, pwf.ToModelOptions{
			WorkoutIndex: opts.WorkoutIndex,
			SummaryOnly:  opts.SummaryOnly,
			Analysis:     opts.Analysis,
		}, col)
	default:
		return nil, diag.Unsupported(op, "cannot import from %q", opts.From)
	}
}

// Export runs only the exporter for opts.To.
func (c *Converter) Export(w *model.Workout, opts Options, col *diag.Collector) ([]byte, error) {
	switch opts.To {
	case FormatTCX:
		return tcx.Export(w, col)
	case FormatGPX:
		return gpx.Export(w, col)
	case FormatPWF:
		return pwf.Export(w, c.pwfOptions(), col)
	case FormatCSV:
		return tabular.WriteCSV(w, opts.Tabular, col)
	case FormatParquet:
		return tabular.WriteParquet(w, opts.Tabular, col)
	default:
		return nil, diag.Unsupported(op, "cannot export to %q", opts.To)
	}
}

// Validate runs the PWF validator over a PWF document.
func (c *Converter) Validate(data []byte) (pwf.Report, error) {
	report, err := pwf.Validate(data)
	if err != nil {
		c.logger.Info("validation failed", "error_kind", diag.KindOf(err), "error", err)
		return report, err
	}
	c.logger.Info("validation finished",
		"kind", report.Kind,
		"valid", report.Valid(),
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()))
	return report, nil
}

func (c *Converter) pwfOptions() pwf.FromModelOptions {
	return pwf.FromModelOptions{Source: c.source, Now: c.now}
}

// GPX tracks are nothing but samples, so the summary view keeps the aggregates
// computed from them and discards the points afterwards.
func dropTelemetry(w *model.Workout, col *diag.Collector) {
	n := w.PointCount()
	if n == 0 {
		return
	}
	for si := range w.Segments {
		for li := range w.Segments[si].Laps {
			w.Segments[si].Laps[li].Points = nil
		}
	}
	col.Skipped("trk.trkseg.trkpt", "summary-only import dropped %d trackpoints", n)
}
