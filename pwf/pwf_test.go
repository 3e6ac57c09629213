package pwf

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

const rideHistory = `history_version: 1
exported_at: "2026-05-01T09:00:00Z"
export_source:
  app_name: trainlog
units:
  weight: lb
  distance: meters
workouts:
  - id: ride-1
    date: "2026-04-30"
    started_at: "2026-04-30T17:00:00Z"
    title: Tempo ride
    sport: cycling
    rpe: 6
    devices:
      - manufacturer: garmin
        model: Edge 840
        serial_number: "3412345678"
    sport_segments:
      - sport: cycling
        started_at: "2026-04-30T17:00:00Z"
        duration_sec: 4
        laps:
          - started_at: "2026-04-30T17:00:00Z"
            duration_sec: 4
            time_series:
              elapsed_sec: [0, 1, 2, 3, 4]
              heart_rate: [120, 122, null, 125, 126]
              power: [200, 210, 220, 230, 240]
              latitude: [45.0, 45.0001, 45.0002, 45.0003, 45.0004]
              longitude: [7.0, 7.0, 7.0, 7.0, 7.0]
    exercises:
      - name: Deadlift
        modality: strength
        sets:
          - reps: 5
            weight: 100
`

func TestImportHistory(t *testing.T) {
	c := diag.NewCollector()
	w, err := Import([]byte(rideHistory), ToModelOptions{}, c)
	require.NoError(t, err)

	assert.Equal(t, "ride-1", w.ID)
	assert.Equal(t, "Tempo ride", w.Title)
	assert.Equal(t, model.SportCycling, w.Sport)
	assert.Equal(t, time.Date(2026, 4, 30, 17, 0, 0, 0, time.UTC), w.StartTime)
	require.NotNil(t, w.RPE)
	assert.Equal(t, 6.0, *w.RPE)
	require.NotNil(t, w.Device)
	assert.Equal(t, "Edge 840", w.Device.Product)

	require.Len(t, w.Segments, 1)
	lap := w.Segments[0].Laps[0]
	require.Len(t, lap.Points, 5)
	assert.Nil(t, lap.Points[2].HeartRate)
	require.NotNil(t, lap.Points[4].Power)
	assert.Equal(t, 240.0, *lap.Points[4].Power)
	assert.Equal(t, w.StartTime.Add(3*time.Second), lap.Points[3].Time)
	assert.True(t, w.Bounds.Valid)

	require.Len(t, w.Exercises, 1)
	require.NotNil(t, w.Exercises[0].Sets[0].WeightKg)
	assert.InDelta(t, 45.359237, *w.Exercises[0].Sets[0].WeightKg, 1e-9)

	// Five power samples are too short for Normalized Power.
	assert.Equal(t, 1, c.Count(diag.KindDataQuality))
}

func TestImportStrengthOnlySynthesizesSegment(t *testing.T) {
	doc := `history_version: 1
exported_at: "2026-05-01T09:00:00Z"
workouts:
  - date: "2026-04-29"
    started_at: "2026-04-29T18:00:00Z"
    duration_sec: 2700
    sport: strength
    exercises:
      - name: Back squat
        sets:
          - {reps: 5, weight: 120}
          - {reps: 5, weight: 120}
`
	w, err := Import([]byte(doc), ToModelOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SportStrength, w.Sport)
	require.Len(t, w.Segments, 1)
	require.Len(t, w.Segments[0].Laps, 1)
	assert.Equal(t, 2700.0, w.Segments[0].Laps[0].DurationSec)
	assert.Zero(t, w.PointCount())
	require.Len(t, w.Exercises, 1)
	assert.Len(t, w.Exercises[0].Sets, 2)
}

func TestImportSummaryOnlyAndIndex(t *testing.T) {
	doc := rideHistory + `  - date: "2026-05-01"
    started_at: "2026-05-01T07:00:00Z"
    sport: run
`
	c := diag.NewCollector()
	w, err := Import([]byte(doc), ToModelOptions{SummaryOnly: true}, c)
	require.NoError(t, err)
	assert.Zero(t, w.PointCount())
	assert.Equal(t, 1, c.Count(diag.KindTimeSeriesSkipped))
	assert.Equal(t, 1, c.Count(diag.KindUnsupportedFeature))

	second, err := Import([]byte(doc), ToModelOptions{WorkoutIndex: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SportRunning, second.Sport)

	_, err = Import([]byte(doc), ToModelOptions{WorkoutIndex: 5}, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidData)
}

func TestImportRejectsPlansAndBrokenDocuments(t *testing.T) {
	_, err := Import([]byte(weekPlan), ToModelOptions{}, nil)
	assert.ErrorIs(t, err, diag.ErrUnsupportedFormat)

	_, err = Import([]byte("history_version: [1"), ToModelOptions{}, nil)
	assert.ErrorIs(t, err, diag.ErrRead)

	_, err = Import([]byte("title: nothing here\n"), ToModelOptions{}, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidData)

	_, err = Import([]byte("history_version: 2\nexported_at: \"2026-05-01T09:00:00Z\"\nworkouts: []\n"), ToModelOptions{}, nil)
	require.ErrorIs(t, err, diag.ErrInvalidData)
	var rep *ReportError
	require.True(t, errors.As(err, &rep))
	assert.Equal(t, []string{CodeHistoryVersion, CodeNoWorkouts}, codes(rep.Report.Errors()))
}

func codes(issues []Issue) []string {
	var out []string
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func TestExportRoundTrip(t *testing.T) {
	w, err := Import([]byte(rideHistory), ToModelOptions{}, nil)
	require.NoError(t, err)

	fixed := func() time.Time { return time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC) }
	out, err := Export(w, FromModelOptions{Source: ExportSource{AppName: "fitconvert"}, Now: fixed}, nil)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "history_version: 1")
	assert.Contains(t, text, `exported_at: "2026-05-02T08:00:00Z"`)
	assert.Contains(t, text, "weight: kg")

	again, err := Import(out, ToModelOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
	assert.Equal(t, w.PointCount(), again.PointCount())
	assert.Nil(t, again.Segments[0].Laps[0].Points[2].HeartRate)
	require.NotNil(t, again.Exercises[0].Sets[0].WeightKg)
	assert.InDelta(t, *w.Exercises[0].Sets[0].WeightKg, *again.Exercises[0].Sets[0].WeightKg, 1e-9)
	assert.Equal(t, w.Bounds, again.Bounds)
}

func TestFromModelDeterministicID(t *testing.T) {
	start := time.Date(2026, 4, 30, 17, 0, 0, 0, time.UTC)
	w := &model.Workout{Title: "Easy run", Sport: model.SportRunning, StartTime: start}
	a := FromModel(w, FromModelOptions{})
	b := FromModel(w, FromModelOptions{})
	require.NotEmpty(t, a.Workouts[0].ID)
	assert.Equal(t, a.Workouts[0].ID, b.Workouts[0].ID)

	w.Title = "Hard run"
	c := FromModel(w, FromModelOptions{})
	assert.NotEqual(t, a.Workouts[0].ID, c.Workouts[0].ID)
	assert.Equal(t, "2026-04-30", c.Workouts[0].Date)
}

func TestValidateGlossary(t *testing.T) {
	h := &History{
		HistoryVersion: HistoryVersion,
		ExportedAt:     "2026-05-01T09:00:00Z",
		Workouts:       []Workout{{Date: "2026-05-01"}},
		Glossary: map[string]string{
			"":                     "empty term",
			strings.Repeat("t", 51): "too long a term",
			"AMRAP":                "",
			"RPE":                  strings.Repeat("d", 501),
			"EMOM":                 "every minute on the minute",
		},
	}
	report := ValidateHistory(h)
	assert.ElementsMatch(t,
		[]string{CodeGlossaryTerm, CodeGlossaryTermLen, CodeGlossaryDef, CodeGlossaryDefLen},
		codes(report.Errors()))

	big := map[string]string{}
	for i := 0; i <= MaxGlossaryEntries; i++ {
		big[fmt.Sprintf("term%03d", i)] = "definition"
	}
	h.Glossary = big
	report = ValidateHistory(h)
	assert.Equal(t, []string{CodeGlossarySize}, codes(report.Errors()))

	// Limits count characters, not bytes.
	h.Glossary = map[string]string{strings.Repeat("é", MaxTermLength): strings.Repeat("ü", MaxDefLength)}
	assert.True(t, ValidateHistory(h).Valid())
}

func TestValidateHistoryStructure(t *testing.T) {
	h := &History{
		HistoryVersion: HistoryVersion,
		ExportedAt:     "yesterday",
		Workouts: []Workout{{
			Date:      "30/04/2026",
			StartedAt: "2026-04-30T17:00:00Z",
			EndedAt:   "2026-04-30T16:00:00Z",
			Sport:     "quidditch",
			RPE:       model.Float(12),
			SportSegments: []SportSegment{{
				Sport: "cycling",
				Laps: []Lap{{
					Intensity: "sprint",
					TimeSeries: &TimeSeries{
						ElapsedSec: []float64{0, 2, 1},
						Power:      []*float64{model.Float(1), model.Float(2)},
					},
				}},
			}},
		}},
	}
	report := ValidateHistory(h)
	assert.Equal(t,
		[]string{CodeExportedAt, CodeWorkoutDate, CodeTimestamp, CodeTimestamp, CodeTimeSeries},
		codes(report.Errors()))
	assert.Equal(t, []string{CodeUnknownSport, CodeValueRange, CodeUnknownIntensity}, codes(report.Warnings()))
	assert.Equal(t, "/workouts/0/sport_segments/0/laps/0/time_series/power", report.Errors()[4].Path)
}

const weekPlan = `plan_version: 1
meta:
  title: Base week
  days_per_week: 3
cycle:
  days:
    - focus: legs
      exercises:
        - name: Squat
          modality: strength
          target_sets: 5
          target_reps: 5
    - focus: conditioning
      exercises:
        - name: Row intervals
          modality: interval
        - name: Plank
          modality: countdown
          target_duration_sec: 60
`

func TestValidatePlan(t *testing.T) {
	report, err := Validate([]byte(weekPlan))
	require.NoError(t, err)
	assert.Equal(t, KindPlan, report.Kind)
	assert.True(t, report.Valid(), "issues: %v", report.Issues)

	bad := &Plan{
		PlanVersion: 3,
		Cycle: Cycle{Days: []PlanDay{
			{},
			{Exercises: []PlanExercise{{Name: "", Modality: "yoga"}}},
		}},
	}
	report = ValidatePlan(bad)
	assert.Equal(t,
		[]string{CodePlanVersion, CodePlanTitle, CodeEmptyDay, CodePlanExercise, CodePlanExercise},
		codes(report.Errors()))

	bad.Cycle.Days = nil
	assert.Contains(t, codes(ValidatePlan(bad).Errors()), CodeNoDays)
}

func TestPlanRoundTrip(t *testing.T) {
	p, err := ParsePlan([]byte(weekPlan))
	require.NoError(t, err)
	out, err := Marshal(p)
	require.NoError(t, err)
	again, err := ParsePlan(out)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}
