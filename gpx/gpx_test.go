package gpx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

const morningRun = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="Garmin Connect"
  xmlns="http://www.topografix.com/GPX/1/1"
  xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1">
  <metadata><name>Morning Run</name><time>2026-03-14T06:10:00Z</time></metadata>
  <trk>
    <name>Morning Run</name>
    <type>running</type>
    <trkseg>
      <trkpt lat="47.3769" lon="8.5417"><ele>408.2</ele><time>2026-03-14T06:10:00Z</time>
        <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>121</gpxtpx:hr><gpxtpx:cad>82</gpxtpx:cad></gpxtpx:TrackPointExtension><power>240</power></extensions>
      </trkpt>
      <trkpt lat="47.3772" lon="8.5421"><ele>409.0</ele><time>2026-03-14T06:10:05Z</time>
        <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>126</gpxtpx:hr><gpxtpx:cad>84</gpxtpx:cad></gpxtpx:TrackPointExtension></extensions>
      </trkpt>
      <trkpt lat="47.3776" lon="8.5426"><ele>409.6</ele><time>2026-03-14T06:10:10Z</time></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="47.3780" lon="8.5430"><time>2026-03-14T06:12:00Z</time></trkpt>
      <trkpt lat="47.3784" lon="8.5433"><time>2026-03-14T06:12:06Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestImportTrack(t *testing.T) {
	c := diag.NewCollector()
	w, err := Import([]byte(morningRun), fitconvert.Options{}, c)
	require.NoError(t, err)
	// One powered sample is too short for Normalized Power.
	require.Equal(t, 1, c.Len(), "warnings: %v", c.Warnings())
	assert.Equal(t, "segments[0].power.normalized_power", c.Warnings()[0].Path)

	assert.Equal(t, "Morning Run", w.Title)
	assert.Equal(t, model.SportRunning, w.Sport)
	require.Len(t, w.Segments, 1)
	seg := w.Segments[0]
	require.Len(t, seg.Laps, 2)
	assert.Len(t, seg.Laps[0].Points, 3)
	assert.Len(t, seg.Laps[1].Points, 2)
	assert.Equal(t, time.Date(2026, 3, 14, 6, 10, 0, 0, time.UTC), w.StartTime)

	first := seg.Laps[0].Points[0]
	require.NotNil(t, first.HeartRate)
	assert.Equal(t, 121.0, *first.HeartRate)
	require.NotNil(t, first.Cadence)
	assert.Equal(t, 82.0, *first.Cadence)
	require.NotNil(t, first.Power)
	assert.Equal(t, 240.0, *first.Power)
	require.NotNil(t, first.AltitudeM)
	assert.InDelta(t, 408.2, *first.AltitudeM, 1e-9)

	assert.True(t, w.Bounds.Valid)
	assert.InDelta(t, 47.3769, w.Bounds.MinLat, 1e-9)
	assert.InDelta(t, 8.5433, w.Bounds.MaxLon, 1e-9)

	// Haversine fallback: lap distances are positive and the cumulative point
	// distance continues across track segments.
	require.NotNil(t, seg.Laps[0].DistanceMeters)
	require.NotNil(t, seg.Laps[1].DistanceMeters)
	assert.Greater(t, *seg.Laps[0].DistanceMeters, 50.0)
	lastPoint := seg.Laps[1].Points[1]
	require.NotNil(t, lastPoint.DistanceM)
	assert.InDelta(t, *seg.Laps[0].DistanceMeters+*seg.Laps[1].DistanceMeters, *lastPoint.DistanceM, 1e-9)
	require.NotNil(t, seg.DistanceMeters)
	assert.InDelta(t, *lastPoint.DistanceM, *seg.DistanceMeters, 1e-9)
}

func TestRoundTripPreservesTrackpoints(t *testing.T) {
	w, err := Import([]byte(morningRun), fitconvert.Options{}, nil)
	require.NoError(t, err)
	before := collectPoints(w)

	out, err := Export(w, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "<?xml"))

	again, err := Import(out, fitconvert.Options{}, nil)
	require.NoError(t, err)
	after := collectPoints(again)

	require.Len(t, after, len(before))
	for i := range before {
		assert.InDelta(t, *before[i].Lat, *after[i].Lat, 1e-6)
		assert.InDelta(t, *before[i].Lon, *after[i].Lon, 1e-6)
		assert.True(t, before[i].Time.Equal(after[i].Time), "point %d time", i)
		if i > 0 {
			assert.False(t, after[i].Time.Before(after[i-1].Time), "point %d out of order", i)
		}
	}
	require.NotNil(t, after[0].HeartRate)
	assert.Equal(t, 121.0, *after[0].HeartRate)
	require.NotNil(t, after[0].Power)
	assert.Equal(t, 240.0, *after[0].Power)
}

func collectPoints(w *model.Workout) []model.TelemetryPoint {
	var out []model.TelemetryPoint
	for _, s := range w.Segments {
		for _, l := range s.Laps {
			out = append(out, l.Points...)
		}
	}
	return out
}

func TestImportDropsUntimedAndInvalidPoints(t *testing.T) {
	doc := `<gpx version="1.1"><trk><type>mystery</type><trkseg>
<trkpt lat="10" lon="10"></trkpt>
<trkpt lat="95" lon="10"><time>2026-03-14T06:10:00Z</time></trkpt>
<trkpt lat="10.001" lon="10"><time>2026-03-14T06:10:04Z</time></trkpt>
</trkseg></trk></gpx>`

	c := diag.NewCollector()
	w, err := Import([]byte(doc), fitconvert.Options{}, c)
	require.NoError(t, err)
	assert.Equal(t, model.SportOther, w.Sport)
	assert.Equal(t, 1, c.Count(diag.KindMissingField))
	assert.Equal(t, 1, c.Count(diag.KindDataQuality))
	assert.Equal(t, 1, c.Count(diag.KindValueClamped))

	pts := collectPoints(w)
	require.Len(t, pts, 2)
	assert.False(t, pts[0].HasPosition())
	assert.True(t, pts[1].HasPosition())
}

func TestImportErrors(t *testing.T) {
	_, err := Import([]byte("<gpx><trk>"), fitconvert.Options{}, nil)
	assert.ErrorIs(t, err, diag.ErrRead)

	_, err = Import([]byte(`<gpx version="1.1"></gpx>`), fitconvert.Options{}, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidData)

	_, err = Import([]byte(`<gpx version="1.1"><rte><name>plan</name></rte></gpx>`), fitconvert.Options{}, nil)
	assert.ErrorIs(t, err, diag.ErrUnsupportedFormat)

	_, err = Import([]byte(`<gpx version="1.1"><trk><trkseg><trkpt lat="1" lon="1"/></trkseg></trk></gpx>`), fitconvert.Options{}, nil)
	assert.ErrorIs(t, err, diag.ErrMissingRequiredField)
}

func TestExportStrengthOnlyWorkout(t *testing.T) {
	start := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	w := &model.Workout{
		Title:     "Lower body",
		StartTime: start,
		Sport:     model.SportStrength,
		RPE:       model.Float(7),
		Segments: []model.Segment{{
			Sport:       model.SportStrength,
			StartTime:   start,
			DurationSec: 2400,
			Laps:        []model.Lap{{StartTime: start, DurationSec: 2400}},
		}},
		Exercises: []model.Exercise{{
			Name: "Back squat",
			Sets: []model.ExerciseSet{{Reps: model.Int(5), WeightKg: model.Float(100)}},
		}},
	}

	c := diag.NewCollector()
	out, err := Export(w, c)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<trkpt")
	assert.GreaterOrEqual(t, c.Count(diag.KindUnsupportedFeature), 1)
}

func TestExportSkipsPointsWithoutPosition(t *testing.T) {
	start := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	w := &model.Workout{StartTime: start, Segments: []model.Segment{{
		Sport: model.SportCycling,
		Laps: []model.Lap{{StartTime: start, Points: []model.TelemetryPoint{
			{Time: start, Power: model.Float(200)},
			{Time: start.Add(time.Second), Lat: model.Float(1), Lon: model.Float(2), Power: model.Float(210)},
		}}},
	}}}

	c := diag.NewCollector()
	out, err := Export(w, c)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(out), "<trkpt"))
	assert.Equal(t, 1, c.Count(diag.KindTimeSeriesSkipped))
}
