package tabular

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

var start = time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)

func brick() *model.Workout {
	w := &model.Workout{
		Title:       "Brick",
		Sport:       model.SportMultisport,
		StartTime:   start,
		DurationSec: 20,
		Device:      &model.Device{Manufacturer: "garmin", Product: "Forerunner 965"},
	}
	run := model.Segment{Sport: model.SportRunning, StartTime: start.Add(10 * time.Second)}
	run.Laps = []model.Lap{{StartTime: run.StartTime}}
	bike := model.Segment{Sport: model.SportCycling, StartTime: start}
	bike.Laps = []model.Lap{{StartTime: start}}

	// Segments listed out of time order; rows must still come out sorted.
	w.Segments = []model.Segment{run, bike}
	w.AddPoint(&w.Segments[0].Laps[0], model.TelemetryPoint{
		Time: start.Add(10 * time.Second), HeartRate: model.Float(150), Cadence: model.Float(88),
		Lat: model.Float(47.1), Lon: model.Float(8.5),
	})
	w.AddPoint(&w.Segments[1].Laps[0], model.TelemetryPoint{
		Time: start, HeartRate: model.Float(130), Power: model.Float(250.5),
	})
	w.AddPoint(&w.Segments[1].Laps[0], model.TelemetryPoint{
		Time: start.Add(5 * time.Second), Power: model.Float(260), AltitudeM: model.Float(412),
	})
	return w
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	recs, err := r.ReadAll()
	require.NoError(t, err)
	return recs
}

func TestWriteCSVRowsInTimeOrder(t *testing.T) {
	c := diag.NewCollector()
	out, err := WriteCSV(brick(), Options{Columns: []Column{ColumnHeartRate, ColumnPower, ColumnPosition}}, c)
	require.NoError(t, err)
	assert.Zero(t, c.Len())

	recs := readCSV(t, out)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"timestamp", "elapsed_s", "heart_rate", "power", "latitude", "longitude"}, recs[0])
	assert.Equal(t, []string{"2026-03-14T07:30:00Z", "0", "130", "250.5", "", ""}, recs[1])
	assert.Equal(t, []string{"2026-03-14T07:30:05Z", "5", "", "260", "", ""}, recs[2])
	assert.Equal(t, []string{"2026-03-14T07:30:10Z", "10", "150", "", "47.1", "8.5"}, recs[3])
}

func TestWriteCSVMetadataHeader(t *testing.T) {
	out, err := WriteCSV(brick(), Options{Metadata: true}, nil)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "# title: Brick\n"))
	assert.Contains(t, text, "# start_time: 2026-03-14T07:30:00Z\n")
	assert.Contains(t, text, "# samples: 3\n")
	assert.Contains(t, text, "# device: garmin Forerunner 965\n")

	recs := readCSV(t, out)
	require.Len(t, recs, 4)
	assert.Len(t, recs[0], 2+len(DefaultColumns())+1)
}

func TestWriteCSVStrengthWorkout(t *testing.T) {
	w := &model.Workout{
		Sport:     model.SportStrength,
		StartTime: start,
		RPE:       model.Float(8),
		Segments:  []model.Segment{{Sport: model.SportStrength, Laps: []model.Lap{{StartTime: start}}}},
		Exercises: []model.Exercise{{Name: "Bench press", Sets: []model.ExerciseSet{{Reps: model.Int(5)}}}},
	}
	c := diag.NewCollector()
	out, err := WriteCSV(w, Options{}, c)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, out), 1)
	assert.Equal(t, 1, c.Count(diag.KindTimeSeriesSkipped))
	assert.Equal(t, 2, c.Count(diag.KindUnsupportedFeature))
}

func TestParseColumns(t *testing.T) {
	cols, err := ParseColumns("hr, Power,coordinates,hr")
	require.NoError(t, err)
	assert.Equal(t, []Column{ColumnHeartRate, ColumnPower, ColumnPosition}, cols)

	cols, err = ParseColumns("")
	require.NoError(t, err)
	assert.Equal(t, DefaultColumns(), cols)

	_, err = ParseColumns("hr,vo2")
	assert.Error(t, err)
}

func TestWriteParquet(t *testing.T) {
	c := diag.NewCollector()
	out, err := WriteParquet(brick(), Options{}, c)
	require.NoError(t, err)
	require.Greater(t, len(out), 8)
	assert.Equal(t, "PAR1", string(out[:4]))
	assert.Equal(t, "PAR1", string(out[len(out)-4:]))
	assert.Zero(t, c.Len())

	_, err = WriteParquet(brick(), Options{Columns: []Column{ColumnPower}}, c)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count(diag.KindUnsupportedFeature))
}
