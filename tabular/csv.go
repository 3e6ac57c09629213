package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

const csvOp = "export csv"

// WriteCSV renders one header row plus one row per sample. Missing values
// are empty cells.
func WriteCSV(w *model.Workout, opts Options, c *diag.Collector) ([]byte, error) {
	rows := Rows(w)
	warnDropped(w, rows, c)

	var buf bytes.Buffer
	if opts.Metadata {
		for _, kv := range metadata(w, len(rows)) {
			fmt.Fprintf(&buf, "# %s: %s\n", kv[0], kv[1])
		}
	}

	cols := opts.columns()
	cw := csv.NewWriter(&buf)
	header := []string{"timestamp", "elapsed_s"}
	for _, col := range cols {
		header = append(header, headerFor(col)...)
	}
	if err := cw.Write(header); err != nil {
		return nil, diag.Serialization(csvOp, err)
	}
	for _, r := range rows {
		rec := []string{r.Time.UTC().Format(time.RFC3339Nano), formatFloat(r.ElapsedSec)}
		for _, col := range cols {
			rec = append(rec, cellsFor(col, r.Point)...)
		}
		if err := cw.Write(rec); err != nil {
			return nil, diag.Serialization(csvOp, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, diag.Serialization(csvOp, err)
	}
	return buf.Bytes(), nil
}

func headerFor(col Column) []string {
	if col == ColumnPosition {
		return []string{"latitude", "longitude"}
	}
	return []string{string(col)}
}

func cellsFor(col Column, p model.TelemetryPoint) []string {
	switch col {
	case ColumnHeartRate:
		return []string{formatFloatPtr(p.HeartRate)}
	case ColumnPower:
		return []string{formatFloatPtr(p.Power)}
	case ColumnCadence:
		return []string{formatFloatPtr(p.Cadence)}
	case ColumnPosition:
		return []string{formatFloatPtr(p.Lat), formatFloatPtr(p.Lon)}
	case ColumnAltitude:
		return []string{formatFloatPtr(p.AltitudeM)}
	case ColumnSpeed:
		return []string{formatFloatPtr(p.SpeedMPS)}
	case ColumnTemperature:
		return []string{formatFloatPtr(p.TemperatureC)}
	case ColumnDistance:
		return []string{formatFloatPtr(p.DistanceM)}
	default:
		return []string{""}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
