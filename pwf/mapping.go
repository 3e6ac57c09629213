package pwf

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

// workoutNamespace seeds deterministic workout ids, so exporting the same
// workout twice yields the same id.
var workoutNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("fitconvert.pwf.workout"))

const (
	lbToKg    = 0.45359237
	mileToM   = 1609.344
	yardToM   = 0.9144
	footToM   = 0.3048
	kmToM     = 1000.0
	unitKg    = "kg"
	unitLb    = "lb"
	unitMeter = "meters"
)

var distanceFactors = map[string]float64{
	"":           1,
	"m":          1,
	"meters":     1,
	"km":         kmToM,
	"kilometers": kmToM,
	"mi":         mileToM,
	"miles":      mileToM,
	"yd":         yardToM,
	"yards":      yardToM,
	"ft":         footToM,
	"feet":       footToM,
}

type column struct {
	name   string
	values []*float64
	get    func(*model.TelemetryPoint) **float64
}

func (ts *TimeSeries) columns() []column {
	return []column{
		{"heart_rate", ts.HeartRate, func(p *model.TelemetryPoint) **float64 { return &p.HeartRate }},
		{"power", ts.Power, func(p *model.TelemetryPoint) **float64 { return &p.Power }},
		{"cadence", ts.Cadence, func(p *model.TelemetryPoint) **float64 { return &p.Cadence }},
		{"latitude", ts.Latitude, func(p *model.TelemetryPoint) **float64 { return &p.Lat }},
		{"longitude", ts.Longitude, func(p *model.TelemetryPoint) **float64 { return &p.Lon }},
		{"altitude_m", ts.AltitudeM, func(p *model.TelemetryPoint) **float64 { return &p.AltitudeM }},
		{"speed_mps", ts.SpeedMPS, func(p *model.TelemetryPoint) **float64 { return &p.SpeedMPS }},
		{"temperature_c", ts.TemperatureC, func(p *model.TelemetryPoint) **float64 { return &p.TemperatureC }},
		{"heading", ts.Heading, func(p *model.TelemetryPoint) **float64 { return &p.Heading }},
		{"distance_m", ts.DistanceM, func(p *model.TelemetryPoint) **float64 { return &p.DistanceM }},
	}
}

// ToModelOptions configures ToModel.
type ToModelOptions struct {
	WorkoutIndex int
	SummaryOnly  bool
	Analysis     fitconvert.Options
}

const importOp = "import pwf"

// ToModel converts one workout of a validated history into the canonical
// model and runs the analyzers over it.
func ToModel(h *History, opts ToModelOptions, c *diag.Collector) (*model.Workout, error) {
	idx := opts.WorkoutIndex
	if idx < 0 || idx >= len(h.Workouts) {
		return nil, diag.Invalid(importOp, fmt.Sprintf("/workouts/%d", idx), "history has %d workouts", len(h.Workouts))
	}
	if len(h.Workouts) > 1 {
		c.Unsupported("workouts", "%d further workouts not converted", len(h.Workouts)-1)
	}
	if len(h.Glossary) > 0 {
		c.Unsupported("glossary", "glossary has no place in a workout")
	}

	u := unitsOf(h.Units, c)
	src := &h.Workouts[idx]
	path := fmt.Sprintf("workouts[%d]", idx)

	start, err := parseTimestamp(src.StartedAt)
	if err != nil {
		day, derr := time.Parse(time.DateOnly, src.Date)
		if derr != nil {
			return nil, diag.Missing(importOp, path+".started_at")
		}
		start = day.UTC()
		c.MissingField(path+".started_at", "no start time, using midnight of %s", src.Date)
	}

	w := &model.Workout{
		ID:        src.ID,
		Title:     src.Title,
		Notes:     src.Notes,
		StartTime: start,
		RPE:       src.RPE,
	}
	if end, err := parseTimestamp(src.EndedAt); err == nil {
		w.EndTime = end
	}
	if src.DurationSec != nil {
		w.DurationSec = *src.DurationSec
	}
	sport := sportOf(src.Sport, path+".sport", c)

	if len(src.Devices) > 0 {
		d := src.Devices[0]
		w.Device = &model.Device{Manufacturer: d.Manufacturer, Product: d.Model, SerialNumber: d.SerialNumber, Firmware: d.Firmware}
		if len(src.Devices) > 1 {
			c.Unsupported(path+".devices", "%d additional devices dropped", len(src.Devices)-1)
		}
	}

	skipped := 0
	for si := range src.SportSegments {
		seg, n := segmentToModel(w, &src.SportSegments[si], start, fmt.Sprintf("%s.sport_segments[%d]", path, si), opts.SummaryOnly, c)
		skipped += n
		w.Segments = append(w.Segments, seg)
	}
	if skipped > 0 {
		c.Skipped("time_series", "summary-only import skipped %d samples", skipped)
	}
	if len(w.Segments) == 0 {
		seg := model.Segment{Sport: sport, StartTime: start, DurationSec: w.DurationSec}
		if t := src.Telemetry; t != nil {
			seg.AvgHeartRate = t.HeartRateAvg
			seg.MaxHeartRate = t.HeartRateMax
			seg.AvgPower = t.PowerAvg
			seg.DistanceMeters = t.TotalDistanceM
			seg.Calories = t.TotalCalories
		}
		if seg.DurationSec <= 0 && !w.EndTime.IsZero() {
			seg.DurationSec = w.EndTime.Sub(start).Seconds()
		}
		w.Segments = []model.Segment{seg}
	}
	if t := src.Telemetry; t != nil && t.GPSBounds != nil && !w.Bounds.Valid {
		b := t.GPSBounds
		w.Bounds.Extend(b.MinLat, b.MinLon)
		w.Bounds.Extend(b.MaxLat, b.MaxLon)
	}

	for ti, t := range src.Transitions {
		ts, err := parseTimestamp(t.StartedAt)
		if err != nil {
			c.MissingField(fmt.Sprintf("%s.transitions[%d].started_at", path, ti), "transition dropped: %v", err)
			continue
		}
		w.Transitions = append(w.Transitions, model.Transition{StartTime: ts, DurationSec: t.DurationSec})
	}
	for _, ex := range src.Exercises {
		w.Exercises = append(w.Exercises, exerciseToModel(ex, u))
	}

	fitconvert.Finish(w, opts.Analysis, c)
	return w, nil
}

type units struct {
	weight   float64
	distance float64
}

func unitsOf(u *Units, c *diag.Collector) units {
	out := units{weight: 1, distance: 1}
	if u == nil {
		return out
	}
	switch strings.ToLower(u.Weight) {
	case "", unitKg, "kilograms":
	case unitLb, "lbs", "pounds":
		out.weight = lbToKg
	default:
		c.Clamped("units.weight", "unknown weight unit %q, assuming kg", u.Weight)
	}
	if f, ok := distanceFactors[strings.ToLower(u.Distance)]; ok {
		out.distance = f
	} else {
		c.Clamped("units.distance", "unknown distance unit %q, assuming meters", u.Distance)
	}
	return out
}

func sportOf(name, path string, c *diag.Collector) model.Sport {
	if name == "" {
		return model.SportOther
	}
	s, ok := model.ParseSport(name)
	if !ok {
		c.Clamped(path, "unknown sport %q mapped to %s", name, s)
	}
	return s
}

func segmentToModel(w *model.Workout, src *SportSegment, fallback time.Time, path string, summaryOnly bool, c *diag.Collector) (model.Segment, int) {
	seg := model.Segment{
		Sport:          sportOf(src.Sport, path+".sport", c),
		StartTime:      fallback,
		DurationSec:    src.DurationSec,
		DistanceMeters: src.DistanceM,
		Calories:       src.Calories,
		AvgHeartRate:   src.AvgHeartRate,
		MaxHeartRate:   src.MaxHeartRate,
		AvgPower:       src.AvgPower,
	}
	if t, err := parseTimestamp(src.StartedAt); err == nil {
		seg.StartTime = t
	}
	if sw := src.Swim; sw != nil {
		raw := sw.RawPoolLength
		if raw == nil && sw.PoolLengthM > 0 {
			raw = model.Float(sw.PoolLengthM)
		}
		seg.Swim = &model.SwimSummary{RawPoolLength: raw}
	}
	if pm := src.PowerMetrics; pm != nil {
		seg.Power = powerToModel(pm)
	}

	skipped := 0
	lapStart := seg.StartTime
	for li := range src.Laps {
		l := &src.Laps[li]
		lpath := fmt.Sprintf("%s.laps[%d]", path, li)
		lap := model.Lap{
			StartTime:      lapStart,
			DurationSec:    l.DurationSec,
			DistanceMeters: l.DistanceM,
			AvgHeartRate:   l.AvgHeartRate,
			MaxHeartRate:   l.MaxHeartRate,
			AvgCadence:     l.AvgCadence,
			AvgPower:       l.AvgPower,
			MaxPower:       l.MaxPower,
			Calories:       l.Calories,
		}
		if t, err := parseTimestamp(l.StartedAt); err == nil {
			lap.StartTime = t
		}
		if l.Intensity != "" {
			if in, ok := intensities[strings.ToLower(l.Intensity)]; ok {
				lap.Intensity = in
			} else {
				c.Clamped(lpath+".intensity", "unknown intensity %q ignored", l.Intensity)
			}
		}
		if ts := l.TimeSeries; ts != nil {
			if summaryOnly {
				skipped += len(ts.ElapsedSec)
			} else {
				for i, e := range ts.ElapsedSec {
					p := model.TelemetryPoint{Time: lap.StartTime.Add(model.Seconds(e))}
					for _, col := range ts.columns() {
						if i < len(col.values) {
							*col.get(&p) = col.values[i]
						}
					}
					if p.Lat != nil && p.Lon == nil || p.Lat == nil && p.Lon != nil {
						c.DataQuality(fmt.Sprintf("%s.time_series[%d]", lpath, i), "half a coordinate dropped")
						p.Lat, p.Lon = nil, nil
					}
					w.AddPoint(&lap, p)
				}
			}
		}
		for _, pl := range l.PoolLengths {
			lap.Lengths = append(lap.Lengths, poolLengthToModel(pl, lap.StartTime, lpath, c))
		}
		seg.Laps = append(seg.Laps, lap)
		lapStart = lap.EndTime()
	}
	return seg, skipped
}

func poolLengthToModel(pl PoolLength, fallback time.Time, path string, c *diag.Collector) model.PoolLength {
	out := model.PoolLength{
		StartTime:   fallback,
		StrokeCount: pl.StrokeCount,
		DurationSec: pl.DurationSec,
		Active:      pl.Active,
		SWOLF:       pl.SWOLF,
	}
	if t, err := parseTimestamp(pl.StartedAt); err == nil {
		out.StartTime = t
	}
	if pl.Stroke != "" {
		if s, ok := model.ParseStroke(pl.Stroke); ok {
			out.Stroke = s
		} else {
			c.Clamped(path+".pool_lengths.stroke", "unknown stroke %q", pl.Stroke)
		}
	}
	return out
}

func powerToModel(pm *PowerMetrics) *model.PowerMetrics {
	out := &model.PowerMetrics{
		AvgPower:         pm.AvgPower,
		MaxPower:         pm.MaxPower,
		NormalizedPower:  pm.NormalizedPower,
		FTP:              pm.FTP,
		FTPSource:        pm.FTPSource,
		IntensityFactor:  pm.IntensityFactor,
		TrainingStress:   pm.TrainingStress,
		VariabilityIndex: pm.VariabilityIndex,
		WorkKJ:           pm.WorkKJ,
		Best20MinPower:   pm.Best20MinPower,
	}
	for _, z := range pm.Zones {
		out.Zones = append(out.Zones, model.PowerZone(z))
	}
	return out
}

func exerciseToModel(ex Exercise, u units) model.Exercise {
	out := model.Exercise{Name: ex.Name, Modality: ex.Modality, Notes: ex.Notes}
	for _, s := range ex.Sets {
		set := model.ExerciseSet{Reps: s.Reps, DurationSec: s.DurationSec, RPE: s.RPE, Notes: s.Notes}
		if s.Weight != nil {
			set.WeightKg = model.Float(*s.Weight * u.weight)
		}
		if s.Distance != nil {
			set.DistanceM = model.Float(*s.Distance * u.distance)
		}
		out.Sets = append(out.Sets, set)
	}
	return out
}

// FromModelOptions configures FromModel.
type FromModelOptions struct {
	Source ExportSource
	// Now stamps exported_at. Defaults to time.Now.
	Now func() time.Time
}

// FromModel builds a single-workout history from w. Weights are written in
// kilograms and distances in meters.
func FromModel(w *model.Workout, opts FromModelOptions) *History {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	h := &History{
		HistoryVersion: HistoryVersion,
		ExportedAt:     now().UTC().Format(time.RFC3339),
		Units:          &Units{Weight: unitKg, Distance: unitMeter},
	}
	if opts.Source.AppName != "" {
		src := opts.Source
		h.ExportSource = &src
	}

	out := Workout{
		ID:         w.ID,
		Date:       w.StartTime.UTC().Format(time.DateOnly),
		StartedAt:  formatTimestamp(w.StartTime),
		EndedAt:    formatTimestamp(w.EndTime),
		Title:      w.Title,
		Notes:      w.Notes,
		Sport:      string(w.Sport),
		MultiSport: w.MultiSport,
		RPE:        w.RPE,
	}
	if out.ID == "" {
		out.ID = uuid.NewSHA1(workoutNamespace, []byte(out.StartedAt+"|"+out.Sport+"|"+w.Title)).String()
	}
	if w.DurationSec > 0 {
		out.DurationSec = model.Float(w.DurationSec)
	}
	if d := w.Device; d != nil {
		out.Devices = []Device{{Type: "recorder", Manufacturer: d.Manufacturer, Model: d.Product, SerialNumber: d.SerialNumber, Firmware: d.Firmware}}
	}
	out.Telemetry = telemetryOf(w)
	for _, seg := range w.Segments {
		out.SportSegments = append(out.SportSegments, segmentFromModel(seg))
	}
	for _, t := range w.Transitions {
		out.Transitions = append(out.Transitions, Transition{StartedAt: formatTimestamp(t.StartTime), DurationSec: t.DurationSec})
	}
	for _, ex := range w.Exercises {
		e := Exercise{Name: ex.Name, Modality: ex.Modality, Notes: ex.Notes}
		for _, s := range ex.Sets {
			e.Sets = append(e.Sets, Set{Reps: s.Reps, Weight: s.WeightKg, DurationSec: s.DurationSec, Distance: s.DistanceM, RPE: s.RPE, Notes: s.Notes})
		}
		out.Exercises = append(out.Exercises, e)
	}
	h.Workouts = []Workout{out}
	return h
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func telemetryOf(w *model.Workout) *Telemetry {
	t := &Telemetry{}
	var hrSum, hrDur, pSum, pDur float64
	for _, s := range w.Segments {
		if s.AvgHeartRate != nil && s.DurationSec > 0 {
			hrSum += *s.AvgHeartRate * s.DurationSec
			hrDur += s.DurationSec
		}
		if s.AvgPower != nil && s.DurationSec > 0 {
			pSum += *s.AvgPower * s.DurationSec
			pDur += s.DurationSec
		}
		if s.MaxHeartRate != nil && (t.HeartRateMax == nil || *s.MaxHeartRate > *t.HeartRateMax) {
			t.HeartRateMax = model.Float(*s.MaxHeartRate)
		}
		if s.DistanceMeters != nil {
			if t.TotalDistanceM == nil {
				t.TotalDistanceM = model.Float(0)
			}
			*t.TotalDistanceM += *s.DistanceMeters
		}
		if s.Calories != nil {
			if t.TotalCalories == nil {
				t.TotalCalories = model.Int(0)
			}
			*t.TotalCalories += *s.Calories
		}
	}
	if hrDur > 0 {
		t.HeartRateAvg = model.Float(hrSum / hrDur)
	}
	if pDur > 0 {
		t.PowerAvg = model.Float(pSum / pDur)
	}
	if b := w.Bounds; b.Valid {
		t.GPSBounds = &GPSBounds{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: b.MinLon, MaxLon: b.MaxLon}
	}
	if *t == (Telemetry{}) {
		return nil
	}
	return t
}

func segmentFromModel(seg model.Segment) SportSegment {
	out := SportSegment{
		Sport:        string(seg.Sport),
		StartedAt:    formatTimestamp(seg.StartTime),
		DurationSec:  seg.DurationSec,
		DistanceM:    seg.DistanceMeters,
		Calories:     seg.Calories,
		AvgHeartRate: seg.AvgHeartRate,
		MaxHeartRate: seg.MaxHeartRate,
		AvgPower:     seg.AvgPower,
	}
	if sw := seg.Swim; sw != nil {
		out.Swim = &Swim{
			PoolLength:    sw.PoolLength,
			PoolLengthM:   sw.PoolLengthMeters,
			RawPoolLength: sw.RawPoolLength,
			ActiveLengths: sw.ActiveLengths,
			RestLengths:   sw.RestLengths,
			TotalStrokes:  sw.TotalStrokes,
			AvgSWOLF:      sw.AvgSWOLF,
		}
	}
	if pm := seg.Power; pm != nil {
		p := &PowerMetrics{
			AvgPower:         pm.AvgPower,
			MaxPower:         pm.MaxPower,
			NormalizedPower:  pm.NormalizedPower,
			FTP:              pm.FTP,
			FTPSource:        pm.FTPSource,
			IntensityFactor:  pm.IntensityFactor,
			TrainingStress:   pm.TrainingStress,
			VariabilityIndex: pm.VariabilityIndex,
			WorkKJ:           pm.WorkKJ,
			Best20MinPower:   pm.Best20MinPower,
		}
		for _, z := range pm.Zones {
			p.Zones = append(p.Zones, PowerZone(z))
		}
		out.PowerMetrics = p
	}
	for _, l := range seg.Laps {
		out.Laps = append(out.Laps, lapFromModel(l))
	}
	return out
}

func lapFromModel(l model.Lap) Lap {
	out := Lap{
		StartedAt:    formatTimestamp(l.StartTime),
		DurationSec:  l.DurationSec,
		DistanceM:    l.DistanceMeters,
		AvgHeartRate: l.AvgHeartRate,
		MaxHeartRate: l.MaxHeartRate,
		AvgCadence:   l.AvgCadence,
		AvgPower:     l.AvgPower,
		MaxPower:     l.MaxPower,
		Calories:     l.Calories,
		Intensity:    string(l.Intensity),
	}
	if len(l.Points) > 0 {
		ts := &TimeSeries{ElapsedSec: make([]float64, len(l.Points))}
		for i, p := range l.Points {
			ts.ElapsedSec[i] = roundMillis(p.Time.Sub(l.StartTime).Seconds())
		}
		ts.HeartRate = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.HeartRate })
		ts.Power = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.Power })
		ts.Cadence = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.Cadence })
		ts.Latitude = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.Lat })
		ts.Longitude = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.Lon })
		ts.AltitudeM = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.AltitudeM })
		ts.SpeedMPS = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.SpeedMPS })
		ts.TemperatureC = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.TemperatureC })
		ts.Heading = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.Heading })
		ts.DistanceM = series(l.Points, func(p model.TelemetryPoint) *float64 { return p.DistanceM })
		out.TimeSeries = ts
	}
	for _, pl := range l.Lengths {
		out.PoolLengths = append(out.PoolLengths, PoolLength{
			Stroke:      string(pl.Stroke),
			StrokeCount: pl.StrokeCount,
			DurationSec: pl.DurationSec,
			Active:      pl.Active,
			SWOLF:       pl.SWOLF,
			StartedAt:   formatTimestamp(pl.StartTime),
		})
	}
	return out
}

// series returns nil when no point carries the value, so the column is omitted.
func series(points []model.TelemetryPoint, get func(model.TelemetryPoint) *float64) []*float64 {
	out := make([]*float64, len(points))
	found := false
	for i, p := range points {
		if v := get(p); v != nil {
			out[i] = v
			found = true
		}
	}
	if !found {
		return nil
	}
	return out
}

func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}
