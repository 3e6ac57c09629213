package fitconvert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

func TestFinishRestoresInvariants(t *testing.T) {
	w := &model.Workout{Segments: []model.Segment{
		{Sport: model.SportRunning, StartTime: t0, DurationSec: 1800, DistanceMeters: model.Float(5000)},
		{Sport: model.SportCycling, Laps: []model.Lap{{
			StartTime: t0.Add(40 * time.Minute),
			Points: []model.TelemetryPoint{
				{Time: t0.Add(40*time.Minute + 2*time.Second), HeartRate: model.Float(150), Power: model.Float(210)},
				{Time: t0.Add(40 * time.Minute), HeartRate: model.Float(140), Power: model.Float(190)},
			},
		}}},
	}}
	c := diag.NewCollector()
	Finish(w, Options{Power: PowerOptions{FTPWatts: 250}}, c)

	require.Len(t, w.Segments[0].Laps, 1)
	assert.Equal(t, 1800.0, w.Segments[0].Laps[0].DurationSec)

	cyc := w.Segments[1]
	pts := cyc.Laps[0].Points
	assert.True(t, pts[0].Time.Before(pts[1].Time))
	assert.Equal(t, 145.0, *cyc.Laps[0].AvgHeartRate)
	assert.Equal(t, 150.0, *cyc.Laps[0].MaxHeartRate)
	assert.Equal(t, 2.0, cyc.Laps[0].DurationSec)
	require.NotNil(t, cyc.Power)
	assert.Nil(t, cyc.Power.NormalizedPower)
	assert.Equal(t, 1, c.Count(diag.KindDataQuality))

	assert.True(t, w.MultiSport)
	assert.Equal(t, model.SportMultisport, w.Sport)
	assert.Equal(t, t0, w.StartTime)
	assert.Equal(t, 40*60+2.0, w.DurationSec)
}

func TestFinishSwimUsesRawPoolLength(t *testing.T) {
	seg := swimSegment(4)
	seg.Swim = &model.SwimSummary{RawPoolLength: model.Float(33.3)}
	w := &model.Workout{Segments: []model.Segment{*seg}}
	Finish(w, Options{}, diag.NewCollector())

	require.NotNil(t, w.Segments[0].Swim)
	assert.Equal(t, "33 yd", w.Segments[0].Swim.PoolLength)
	assert.Equal(t, 2, w.Segments[0].Swim.ActiveLengths)
}

func TestFinishCustomPoolBins(t *testing.T) {
	seg := swimSegment(2)
	seg.Swim = &model.SwimSummary{RawPoolLength: model.Float(22.9)}
	w := &model.Workout{Segments: []model.Segment{*seg}}
	bins := PoolBins{
		Bins:    []PoolBin{{Name: "25 yd", Min: 22, Max: 23.5, Meters: 22.86}},
		Default: PoolBin{Name: "25 m", Meters: 25},
	}
	Finish(w, Options{Pool: &bins}, nil)
	assert.Equal(t, "25 yd", w.Segments[0].Swim.PoolLength)
}

func TestDescribe(t *testing.T) {
	w := &model.Workout{
		Title:     "Morning ride",
		StartTime: t0,
		Segments:  []model.Segment{*powerSegment(constant(200, 120)...)},
		Exercises: []model.Exercise{{Name: "Squat", Sets: []model.ExerciseSet{{Reps: model.Int(5)}}}},
	}
	Finish(w, Options{Power: PowerOptions{FTPWatts: 250}}, nil)

	out := Describe(w)
	for _, want := range []string{
		"Workout: Morning ride (cycling)",
		"Start: 2026-04-12 07:30:00",
		"Power 200 avg / 200 NP / 200 max W",
		"FTP 250 W (supplied)",
		"Z3 Tempo",
		"- Squat: 1 sets",
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
	assert.Equal(t, "", Describe(nil))
}
