// Package model is the format-neutral representation every importer writes
// and every exporter reads.
package model

import (
	"math"
	"sort"
	"time"
)

// Workout is one recorded activity.
type Workout struct {
	ID          string
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	DurationSec float64
	Sport       Sport
	MultiSport  bool
	Notes       string
	RPE         *float64
	Device      *Device

	Segments    []Segment
	Transitions []Transition
	Exercises   []Exercise

	Bounds BoundingBox
}

// Device describes the recording device. Empty strings mean absent.
type Device struct {
	Manufacturer string
	Product      string
	SerialNumber string
	Firmware     string
}

// Segment is one contiguous block of a single sport.
type Segment struct {
	Sport          Sport
	StartTime      time.Time
	DurationSec    float64
	Laps           []Lap
	AvgHeartRate   *float64
	MaxHeartRate   *float64
	AvgPower       *float64
	DistanceMeters *float64
	Calories       *int
	Swim           *SwimSummary
	Power          *PowerMetrics
}

// Transition is a gap between two segments of a multi-sport workout.
type Transition struct {
	StartTime   time.Time
	DurationSec float64
}

// Lap is one recorded interval inside a segment.
type Lap struct {
	StartTime      time.Time
	DurationSec    float64
	DistanceMeters *float64
	AvgHeartRate   *float64
	MaxHeartRate   *float64
	AvgCadence     *float64
	AvgPower       *float64
	MaxPower       *float64
	Calories       *int
	Intensity      Intensity
	Points         []TelemetryPoint
	Lengths        []PoolLength
}

// EndTime is StartTime plus the lap duration.
func (l Lap) EndTime() time.Time {
	return l.StartTime.Add(Seconds(l.DurationSec))
}

// Intensity labels what kind of effort a lap was.
type Intensity string

const (
	IntensityUnknown  Intensity = ""
	IntensityActive   Intensity = "active"
	IntensityRest     Intensity = "rest"
	IntensityWarmup   Intensity = "warmup"
	IntensityCooldown Intensity = "cooldown"
	IntensityWork     Intensity = "work"
	IntensityRecovery Intensity = "recovery"
)

// Resting reports whether the lap was a recovery-type interval.
func (i Intensity) Resting() bool {
	return i == IntensityRest || i == IntensityRecovery
}

// TelemetryPoint is one GPS/sensor sample. Only Time is mandatory.
type TelemetryPoint struct {
	Time         time.Time
	Lat          *float64
	Lon          *float64
	AltitudeM    *float64
	HeartRate    *float64
	Power        *float64
	Cadence      *float64
	TemperatureC *float64
	SpeedMPS     *float64
	Heading      *float64
	DistanceM    *float64
}

// HasPosition reports whether the point carries both coordinates.
func (p TelemetryPoint) HasPosition() bool {
	return p.Lat != nil && p.Lon != nil
}

// PoolLength is one length of a pool.
type PoolLength struct {
	StartTime   time.Time
	Stroke      Stroke
	StrokeCount *int
	DurationSec float64
	Active      bool
	SWOLF       *int
}

// SwimSummary aggregates a pool swimming segment.
type SwimSummary struct {
	PoolLength       string
	PoolLengthMeters float64
	RawPoolLength    *float64
	ActiveLengths    int
	RestLengths      int
	TotalStrokes     int
	AvgSWOLF         *float64
}

// PowerMetrics are derived from a segment's power series.
type PowerMetrics struct {
	AvgPower         float64
	MaxPower         float64
	NormalizedPower  *float64
	FTP              *float64
	FTPSource        string
	IntensityFactor  *float64
	TrainingStress   *float64
	VariabilityIndex *float64
	WorkKJ           float64
	Best20MinPower   *float64
	Zones            []PowerZone
}

// PowerZone is time spent in one FTP-relative zone.
type PowerZone struct {
	Name       string
	MinPctFTP  float64
	MaxPctFTP  float64
	Seconds    float64
	Percentage float64
}

// Exercise is a strength or mobility movement with its performed sets.
type Exercise struct {
	Name     string
	Modality string
	Notes    string
	Sets     []ExerciseSet
}

// ExerciseSet is one performed set.
type ExerciseSet struct {
	Reps        *int
	WeightKg    *float64
	DurationSec *float64
	DistanceM   *float64
	RPE         *float64
	Notes       string
}

// AddPoint appends a sample to lap and grows the workout bounding box.
func (w *Workout) AddPoint(lap *Lap, p TelemetryPoint) {
	lap.Points = append(lap.Points, p)
	if p.HasPosition() {
		w.Bounds.Extend(*p.Lat, *p.Lon)
	}
}

// PointCount returns the number of telemetry samples across all laps.
func (w *Workout) PointCount() int {
	n := 0
	for _, s := range w.Segments {
		for _, l := range s.Laps {
			n += len(l.Points)
		}
	}
	return n
}

// HasTelemetry reports whether any lap carries at least one sample.
func (w *Workout) HasTelemetry() bool {
	return w.PointCount() > 0
}

// EnsureLaps synthesizes a lap covering the whole segment for every segment
// that has none, so that every segment owns at least one lap.
func (w *Workout) EnsureLaps() {
	for i := range w.Segments {
		seg := &w.Segments[i]
		if len(seg.Laps) > 0 {
			continue
		}
		seg.Laps = []Lap{{
			StartTime:      seg.StartTime,
			DurationSec:    seg.DurationSec,
			DistanceMeters: seg.DistanceMeters,
			AvgHeartRate:   seg.AvgHeartRate,
			MaxHeartRate:   seg.MaxHeartRate,
			AvgPower:       seg.AvgPower,
			Calories:       seg.Calories,
		}}
	}
}

// SortPoints orders each lap's samples by timestamp. Equal timestamps keep
// their original relative order.
func (l *Lap) SortPoints() {
	sort.SliceStable(l.Points, func(i, j int) bool {
		return l.Points[i].Time.Before(l.Points[j].Time)
	})
}

// BoundingBox is the envelope of every position added to a workout.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Valid          bool
}

// Extend grows the box to include the coordinate.
func (b *BoundingBox) Extend(lat, lon float64) {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return
	}
	if !b.Valid {
		b.MinLat, b.MaxLat = lat, lat
		b.MinLon, b.MaxLon = lon, lon
		b.Valid = true
		return
	}
	b.MinLat = math.Min(b.MinLat, lat)
	b.MaxLat = math.Max(b.MaxLat, lat)
	b.MinLon = math.Min(b.MinLon, lon)
	b.MaxLon = math.Max(b.MaxLon, lon)
}

// Seconds converts fractional seconds to a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func Float(v float64) *float64 {
	return &v
}

func Int(v int) *int {
	return &v
}
