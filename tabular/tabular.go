// Package tabular flattens a workout's telemetry into one row per sample,
// written as CSV or Parquet. It is export-only.
package tabular

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

// Column selects a sample attribute. ColumnPosition expands to latitude and
// longitude.
type Column string

const (
	ColumnHeartRate   Column = "heart_rate"
	ColumnPower       Column = "power"
	ColumnCadence     Column = "cadence"
	ColumnPosition    Column = "position"
	ColumnAltitude    Column = "altitude_m"
	ColumnSpeed       Column = "speed_mps"
	ColumnTemperature Column = "temperature_c"
	ColumnDistance    Column = "distance_m"
)

var columnAliases = map[string]Column{
	"heart_rate":    ColumnHeartRate,
	"hr":            ColumnHeartRate,
	"power":         ColumnPower,
	"cadence":       ColumnCadence,
	"position":      ColumnPosition,
	"coordinates":   ColumnPosition,
	"gps":           ColumnPosition,
	"altitude_m":    ColumnAltitude,
	"altitude":      ColumnAltitude,
	"elevation":     ColumnAltitude,
	"speed_mps":     ColumnSpeed,
	"speed":         ColumnSpeed,
	"temperature_c": ColumnTemperature,
	"temperature":   ColumnTemperature,
	"distance_m":    ColumnDistance,
	"distance":      ColumnDistance,
}

// DefaultColumns is every column in output order.
func DefaultColumns() []Column {
	return []Column{
		ColumnHeartRate, ColumnPower, ColumnCadence, ColumnPosition,
		ColumnAltitude, ColumnSpeed, ColumnTemperature, ColumnDistance,
	}
}

// ParseColumns reads a comma-separated column list. An empty string selects
// DefaultColumns. Duplicates are dropped.
func ParseColumns(s string) ([]Column, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultColumns(), nil
	}
	var out []Column
	seen := map[Column]bool{}
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		col, ok := columnAliases[name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", part)
		}
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	return out, nil
}

// Options configures the writers.
type Options struct {
	// Columns selects the sample columns; nil means DefaultColumns.
	Columns []Column
	// Metadata prefixes CSV output with "# key: value" lines.
	Metadata bool
}

func (o Options) columns() []Column {
	if len(o.Columns) == 0 {
		return DefaultColumns()
	}
	return o.Columns
}

// Row is one flattened sample.
type Row struct {
	Time       time.Time
	ElapsedSec float64
	Segment    int
	Sport      model.Sport
	Point      model.TelemetryPoint
}

// Rows flattens every point of w in time order. Samples sharing a timestamp
// keep their original order.
func Rows(w *model.Workout) []Row {
	var rows []Row
	for si, seg := range w.Segments {
		for _, lap := range seg.Laps {
			for _, p := range lap.Points {
				rows = append(rows, Row{Time: p.Time, Segment: si, Sport: seg.Sport, Point: p})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	if len(rows) == 0 {
		return nil
	}
	origin := w.StartTime
	if origin.IsZero() || rows[0].Time.Before(origin) {
		origin = rows[0].Time
	}
	for i := range rows {
		rows[i].ElapsedSec = rows[i].Time.Sub(origin).Seconds()
	}
	return rows
}

// warnDropped records what a flat sample table cannot carry.
func warnDropped(w *model.Workout, rows []Row, c *diag.Collector) {
	if len(rows) == 0 {
		c.Skipped("segments", "workout has no telemetry, table is empty")
	}
	if len(w.Exercises) > 0 {
		c.Unsupported("exercises", "%d strength exercises have no tabular representation", len(w.Exercises))
	}
	if w.RPE != nil {
		c.Unsupported("rpe", "perceived exertion has no tabular representation")
	}
	for si, seg := range w.Segments {
		if seg.Swim != nil {
			c.Unsupported(fmt.Sprintf("segments[%d].swim", si), "pool lengths have no tabular representation")
		}
	}
}

func metadata(w *model.Workout, rows int) [][2]string {
	md := [][2]string{
		{"title", w.Title},
		{"sport", string(w.Sport)},
	}
	if !w.StartTime.IsZero() {
		md = append(md, [2]string{"start_time", w.StartTime.UTC().Format(time.RFC3339)})
	}
	md = append(md,
		[2]string{"duration_s", formatFloat(w.DurationSec)},
		[2]string{"segments", fmt.Sprint(len(w.Segments))},
		[2]string{"samples", fmt.Sprint(rows)},
	)
	if d := w.Device; d != nil {
		md = append(md, [2]string{"device", strings.TrimSpace(d.Manufacturer + " " + d.Product)})
	}
	return md
}
