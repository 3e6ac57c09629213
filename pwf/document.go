// Package pwf implements the portable workout format: a versioned YAML
// document holding either a workout history or a training plan.
package pwf

// Supported document versions.
const (
	HistoryVersion = 1
	PlanVersion    = 1
)

// History is a workout history export.
type History struct {
	HistoryVersion int               `yaml:"history_version"`
	ExportedAt     string            `yaml:"exported_at"`
	ExportSource   *ExportSource     `yaml:"export_source,omitempty"`
	Units          *Units            `yaml:"units,omitempty"`
	Glossary       map[string]string `yaml:"glossary,omitempty"`
	Workouts       []Workout         `yaml:"workouts"`
}

// ExportSource names the application that wrote the document.
type ExportSource struct {
	AppName    string `yaml:"app_name"`
	AppVersion string `yaml:"app_version,omitempty"`
	Platform   string `yaml:"platform,omitempty"`
}

// Units declares the weight and distance units used by sets.
type Units struct {
	Weight   string `yaml:"weight,omitempty"`
	Distance string `yaml:"distance,omitempty"`
}

type Workout struct {
	ID            string         `yaml:"id,omitempty"`
	Date          string         `yaml:"date"`
	StartedAt     string         `yaml:"started_at,omitempty"`
	EndedAt       string         `yaml:"ended_at,omitempty"`
	DurationSec   *float64       `yaml:"duration_sec,omitempty"`
	Title         string         `yaml:"title,omitempty"`
	Notes         string         `yaml:"notes,omitempty"`
	Sport         string         `yaml:"sport,omitempty"`
	MultiSport    bool           `yaml:"multi_sport,omitempty"`
	RPE           *float64       `yaml:"rpe,omitempty"`
	Devices       []Device       `yaml:"devices,omitempty"`
	Telemetry     *Telemetry     `yaml:"telemetry,omitempty"`
	SportSegments []SportSegment `yaml:"sport_segments,omitempty"`
	Transitions   []Transition   `yaml:"transitions,omitempty"`
	Exercises     []Exercise     `yaml:"exercises,omitempty"`
}

type Device struct {
	Type         string `yaml:"type,omitempty"`
	Manufacturer string `yaml:"manufacturer,omitempty"`
	Model        string `yaml:"model,omitempty"`
	SerialNumber string `yaml:"serial_number,omitempty"`
	Firmware     string `yaml:"firmware,omitempty"`
}

// Telemetry holds whole-workout aggregates.
type Telemetry struct {
	HeartRateAvg   *float64   `yaml:"heart_rate_avg,omitempty"`
	HeartRateMax   *float64   `yaml:"heart_rate_max,omitempty"`
	PowerAvg       *float64   `yaml:"power_avg,omitempty"`
	TotalDistanceM *float64   `yaml:"total_distance_m,omitempty"`
	TotalCalories  *int       `yaml:"total_calories,omitempty"`
	GPSBounds      *GPSBounds `yaml:"gps_bounds,omitempty"`
}

type GPSBounds struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

type SportSegment struct {
	Sport        string        `yaml:"sport"`
	StartedAt    string        `yaml:"started_at,omitempty"`
	DurationSec  float64       `yaml:"duration_sec"`
	DistanceM    *float64      `yaml:"distance_m,omitempty"`
	Calories     *int          `yaml:"calories,omitempty"`
	AvgHeartRate *float64      `yaml:"avg_heart_rate,omitempty"`
	MaxHeartRate *float64      `yaml:"max_heart_rate,omitempty"`
	AvgPower     *float64      `yaml:"avg_power,omitempty"`
	Laps         []Lap         `yaml:"laps,omitempty"`
	Swim         *Swim         `yaml:"swim,omitempty"`
	PowerMetrics *PowerMetrics `yaml:"power_metrics,omitempty"`
}

type Lap struct {
	StartedAt    string       `yaml:"started_at,omitempty"`
	DurationSec  float64      `yaml:"duration_sec"`
	DistanceM    *float64     `yaml:"distance_m,omitempty"`
	AvgHeartRate *float64     `yaml:"avg_heart_rate,omitempty"`
	MaxHeartRate *float64     `yaml:"max_heart_rate,omitempty"`
	AvgCadence   *float64     `yaml:"avg_cadence,omitempty"`
	AvgPower     *float64     `yaml:"avg_power,omitempty"`
	MaxPower     *float64     `yaml:"max_power,omitempty"`
	Calories     *int         `yaml:"calories,omitempty"`
	Intensity    string       `yaml:"intensity,omitempty"`
	TimeSeries   *TimeSeries  `yaml:"time_series,omitempty"`
	PoolLengths  []PoolLength `yaml:"pool_lengths,omitempty"`
}

// TimeSeries stores lap samples column by column. ElapsedSec is relative to
// the lap start; every other column, when present, has the same length and
// uses null for a missing sample.
type TimeSeries struct {
	ElapsedSec   []float64  `yaml:"elapsed_sec"`
	HeartRate    []*float64 `yaml:"heart_rate,omitempty,flow"`
	Power        []*float64 `yaml:"power,omitempty,flow"`
	Cadence      []*float64 `yaml:"cadence,omitempty,flow"`
	Latitude     []*float64 `yaml:"latitude,omitempty,flow"`
	Longitude    []*float64 `yaml:"longitude,omitempty,flow"`
	AltitudeM    []*float64 `yaml:"altitude_m,omitempty,flow"`
	SpeedMPS     []*float64 `yaml:"speed_mps,omitempty,flow"`
	TemperatureC []*float64 `yaml:"temperature_c,omitempty,flow"`
	Heading      []*float64 `yaml:"heading,omitempty,flow"`
	DistanceM    []*float64 `yaml:"distance_m,omitempty,flow"`
}

type PoolLength struct {
	Stroke      string  `yaml:"stroke,omitempty"`
	StrokeCount *int    `yaml:"stroke_count,omitempty"`
	DurationSec float64 `yaml:"duration_sec"`
	Active      bool    `yaml:"active"`
	SWOLF       *int    `yaml:"swolf,omitempty"`
	StartedAt   string  `yaml:"started_at,omitempty"`
}

type Swim struct {
	PoolLength    string   `yaml:"pool_length"`
	PoolLengthM   float64  `yaml:"pool_length_m"`
	RawPoolLength *float64 `yaml:"raw_pool_length,omitempty"`
	ActiveLengths int      `yaml:"active_lengths"`
	RestLengths   int      `yaml:"rest_lengths"`
	TotalStrokes  int      `yaml:"total_strokes"`
	AvgSWOLF      *float64 `yaml:"avg_swolf,omitempty"`
}

type PowerMetrics struct {
	AvgPower         float64     `yaml:"avg_power"`
	MaxPower         float64     `yaml:"max_power"`
	NormalizedPower  *float64    `yaml:"normalized_power,omitempty"`
	FTP              *float64    `yaml:"ftp,omitempty"`
	FTPSource        string      `yaml:"ftp_source,omitempty"`
	IntensityFactor  *float64    `yaml:"intensity_factor,omitempty"`
	TrainingStress   *float64    `yaml:"training_stress_score,omitempty"`
	VariabilityIndex *float64    `yaml:"variability_index,omitempty"`
	WorkKJ           float64     `yaml:"work_kj"`
	Best20MinPower   *float64    `yaml:"best_20min_power,omitempty"`
	Zones            []PowerZone `yaml:"zones,omitempty"`
}

type PowerZone struct {
	Name       string  `yaml:"name"`
	MinPctFTP  float64 `yaml:"min_pct_ftp"`
	MaxPctFTP  float64 `yaml:"max_pct_ftp"`
	Seconds    float64 `yaml:"seconds"`
	Percentage float64 `yaml:"percentage"`
}

type Transition struct {
	StartedAt   string  `yaml:"started_at"`
	DurationSec float64 `yaml:"duration_sec"`
}

type Exercise struct {
	Name     string `yaml:"name"`
	Modality string `yaml:"modality,omitempty"`
	Notes    string `yaml:"notes,omitempty"`
	Sets     []Set  `yaml:"sets,omitempty"`
}

type Set struct {
	Reps        *int     `yaml:"reps,omitempty"`
	Weight      *float64 `yaml:"weight,omitempty"`
	DurationSec *float64 `yaml:"duration_sec,omitempty"`
	Distance    *float64 `yaml:"distance,omitempty"`
	RPE         *float64 `yaml:"rpe,omitempty"`
	Notes       string   `yaml:"notes,omitempty"`
}

// Plan is a training plan. Plans validate but do not convert to workouts.
type Plan struct {
	PlanVersion int               `yaml:"plan_version"`
	Meta        *PlanMeta         `yaml:"meta,omitempty"`
	Glossary    map[string]string `yaml:"glossary,omitempty"`
	Cycle       Cycle             `yaml:"cycle"`
}

type PlanMeta struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	DaysPerWeek *int     `yaml:"days_per_week,omitempty"`
	Equipment   []string `yaml:"equipment,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

type Cycle struct {
	StartDate string    `yaml:"start_date,omitempty"`
	Notes     string    `yaml:"notes,omitempty"`
	Days      []PlanDay `yaml:"days"`
}

type PlanDay struct {
	Order     *int           `yaml:"order,omitempty"`
	Focus     string         `yaml:"focus,omitempty"`
	Exercises []PlanExercise `yaml:"exercises"`
}

type PlanExercise struct {
	Name              string   `yaml:"name"`
	Modality          string   `yaml:"modality"`
	TargetSets        *int     `yaml:"target_sets,omitempty"`
	TargetReps        *int     `yaml:"target_reps,omitempty"`
	TargetDurationSec *int     `yaml:"target_duration_sec,omitempty"`
	TargetDistance    *float64 `yaml:"target_distance,omitempty"`
	TargetLoad        string   `yaml:"target_load,omitempty"`
	RestSec           *int     `yaml:"rest_sec,omitempty"`
	Notes             string   `yaml:"notes,omitempty"`
}

// Exercise modalities.
const (
	ModalityStrength  = "strength"
	ModalityCountdown = "countdown"
	ModalityStopwatch = "stopwatch"
	ModalityInterval  = "interval"
)

var modalities = map[string]bool{
	ModalityStrength:  true,
	ModalityCountdown: true,
	ModalityStopwatch: true,
	ModalityInterval:  true,
}
