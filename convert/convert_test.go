package convert

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/fitimport"
	"github.com/lucasjlepore/fitconvert/model"
	"github.com/lucasjlepore/fitconvert/tabular"
)

const shortRide = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="Wahoo" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Lunch Ride</name>
    <type>cycling</type>
    <trkseg>
      <trkpt lat="46.2044" lon="6.1432"><ele>375</ele><time>2026-06-01T12:00:00Z</time></trkpt>
      <trkpt lat="46.2050" lon="6.1440"><ele>377</ele><time>2026-06-01T12:00:10Z</time></trkpt>
      <trkpt lat="46.2057" lon="6.1449"><ele>380</ele><time>2026-06-01T12:00:20Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

const strengthOnly = `history_version: 1
exported_at: "2026-05-01T09:00:00Z"
workouts:
  - date: "2026-04-29"
    started_at: "2026-04-29T18:00:00Z"
    duration_sec: 2700
    sport: strength
    exercises:
      - name: Back squat
        modality: strength
        sets:
          - {reps: 5, weight: 120}
`

func newTestConverter(t *testing.T, opts ...Option) (*Converter, *Metrics) {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	fixed := func() time.Time { return time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC) }
	opts = append([]Option{WithMetrics(m), WithClock(fixed)}, opts...)
	return New(nil, opts...), m
}

func TestConvertGPXToTCX(t *testing.T) {
	conv, m := newTestConverter(t)
	res, err := conv.Convert([]byte(shortRide), Options{From: FormatGPX, To: FormatTCX})
	require.NoError(t, err)
	require.NotNil(t, res.Workout)
	assert.Equal(t, model.SportCycling, res.Workout.Sport)

	out := string(res.Payload)
	assert.Contains(t, out, "<TrainingCenterDatabase")
	assert.Contains(t, out, `Sport="Biking"`)
	assert.Equal(t, 3, strings.Count(out, "<Trackpoint>"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("gpx", "tcx", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestConvertStrengthOnlyPWFToGPX(t *testing.T) {
	conv, m := newTestConverter(t)
	res, err := conv.Convert([]byte(strengthOnly), Options{From: FormatPWF, To: FormatGPX})
	require.NoError(t, err)
	assert.NotContains(t, string(res.Payload), "<trkpt")
	assert.Zero(t, res.Workout.PointCount())

	unsupported := 0
	for _, w := range res.Warnings {
		if w.Kind == diag.KindUnsupportedFeature {
			unsupported++
		}
	}
	assert.GreaterOrEqual(t, unsupported, 1)
	assert.Equal(t, float64(unsupported),
		testutil.ToFloat64(m.warnings.WithLabelValues(string(diag.KindUnsupportedFeature))))
}

func TestConvertToFITIsUnsupported(t *testing.T) {
	conv, m := newTestConverter(t)
	res, err := conv.Convert([]byte(shortRide), Options{From: FormatGPX, To: FormatFIT})
	require.ErrorIs(t, err, diag.ErrUnsupportedFormat)
	require.NotNil(t, res)
	assert.Nil(t, res.Payload)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("gpx", "fit", "unsupported_format")))

	_, err = conv.Convert([]byte("a,b\n"), Options{From: FormatCSV, To: FormatPWF})
	assert.ErrorIs(t, err, diag.ErrUnsupportedFormat)
}

func TestConvertFITThroughDecoder(t *testing.T) {
	start := time.Date(2026, 6, 3, 17, 0, 0, 0, time.UTC)
	decoder := fitimport.DecoderFunc(func([]byte) ([]fitimport.DecodedMessage, error) {
		var msgs []fitimport.DecodedMessage
		seq := uint64(0)
		add := func(kind string, f map[string]any) {
			seq++
			msgs = append(msgs, fitimport.DecodedMessage{Seq: seq, Kind: kind, Fields: f})
		}
		for i := 0; i < 60; i++ {
			add(fitimport.KindRecord, map[string]any{
				"timestamp": start.Add(time.Duration(i) * time.Second),
				"power":     int64(200),
			})
		}
		add(fitimport.KindSession, map[string]any{
			"sport":              "cycling",
			"start_time":         start,
			"total_elapsed_time": 60.0,
		})
		return msgs, nil
	})
	conv, _ := newTestConverter(t, WithDecoder(decoder))
	res, err := conv.Convert([]byte{0x0e}, Options{
		From:    FormatFIT,
		To:      FormatCSV,
		Tabular: tabular.Options{Columns: []tabular.Column{tabular.ColumnPower}},
	})
	require.NoError(t, err)

	recs, err := csv.NewReader(bytes.NewReader(res.Payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 61)
	assert.Equal(t, []string{"timestamp", "elapsed_s", "power"}, recs[0])
	assert.Equal(t, "200", recs[60][2])

	power := res.Workout.Segments[0].Power
	require.NotNil(t, power)
	require.NotNil(t, power.NormalizedPower)
	assert.InDelta(t, 200.0, *power.NormalizedPower, 1e-9)
}

func TestConvertDecoderFailure(t *testing.T) {
	broken := fitimport.DecoderFunc(func([]byte) ([]fitimport.DecodedMessage, error) {
		return nil, errors.New("truncated header")
	})
	conv, m := newTestConverter(t, WithDecoder(broken))
	res, err := conv.Convert([]byte{0x01}, Options{From: FormatFIT, To: FormatPWF})
	require.ErrorIs(t, err, diag.ErrRead)
	require.NotNil(t, res)
	assert.Nil(t, res.Workout)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("fit", "pwf", "read")))
}

func TestConvertValidateOption(t *testing.T) {
	conv, _ := newTestConverter(t)
	res, err := conv.Convert([]byte(shortRide), Options{From: FormatGPX, To: FormatPWF, Validate: true})
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.Valid())
	assert.Contains(t, string(res.Payload), "history_version: 1")
}

func TestConvertSummaryOnlyGPX(t *testing.T) {
	conv, _ := newTestConverter(t)
	res, err := conv.Convert([]byte(shortRide), Options{From: FormatGPX, To: FormatPWF, SummaryOnly: true})
	require.NoError(t, err)
	assert.Zero(t, res.Workout.PointCount())
	require.NotNil(t, res.Workout.Segments[0].DistanceMeters)
	assert.Greater(t, *res.Workout.Segments[0].DistanceMeters, 0.0)
	assert.NotContains(t, string(res.Payload), "time_series")
}

func TestConverterIsSafeForConcurrentUse(t *testing.T) {
	conv, m := newTestConverter(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := conv.Convert([]byte(shortRide), Options{From: FormatGPX, To: FormatCSV})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8.0, testutil.ToFloat64(m.conversions.WithLabelValues("gpx", "csv", "ok")))
}

func TestMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"FIT": FormatFIT, ".gpx": FormatGPX, "yaml": FormatPWF, "yml": FormatPWF,
		"pwf": FormatPWF, " csv ": FormatCSV, "parquet": FormatParquet, "tcx": FormatTCX,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("kml")
	assert.Error(t, err)

	f, ok := FormatFromPath("/tmp/ride.TCX")
	assert.True(t, ok)
	assert.Equal(t, FormatTCX, f)
	assert.False(t, FormatFIT.CanExport())
	assert.True(t, FormatFIT.CanImport())
	assert.False(t, FormatCSV.CanImport())
}
