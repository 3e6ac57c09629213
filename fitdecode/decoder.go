// Package fitdecode implements fitimport.Decoder on top of
// github.com/tormoder/fit.
package fitdecode

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/fitconvert/fitimport"
)

// Decoder decodes FIT activity files. The zero value is ready to use.
type Decoder struct{}

// New returns a Decoder.
func New() *Decoder {
	return &Decoder{}
}

var _ fitimport.Decoder = (*Decoder)(nil)

// Message precedence at equal timestamps: children close before parents.
const (
	rankEvent = iota
	rankRecord
	rankLength
	rankLap
	rankSession
	rankActivity
)

type pending struct {
	ts   time.Time
	rank int
	ord  int
	kind string
	f    map[string]any
}

// Decode parses data and flattens the activity into an ordered message
// stream: file_id and device_info first, then the timeline ordered by
// timestamp.
func (d *Decoder) Decode(data []byte) ([]fitimport.DecodedMessage, error) {
	_, id, err := fit.DecodeHeaderAndFileID(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode FIT header: %w", err)
	}
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	var out []fitimport.DecodedMessage
	emit := func(kind string, f map[string]any) {
		out = append(out, fitimport.DecodedMessage{Seq: uint64(len(out) + 1), Kind: kind, Fields: f})
	}

	fileID := map[string]any{"type": int64(id.Type)}
	if id.Manufacturer != fit.ManufacturerInvalid {
		fileID["manufacturer"] = fmt.Sprint(id.Manufacturer)
	}
	if p := fmt.Sprint(id.GetProduct()); p != "" {
		fileID["product"] = p
	}
	if id.SerialNumber != 0 && id.SerialNumber != math.MaxUint32 {
		fileID["serial_number"] = int64(id.SerialNumber)
	}
	putTime(fileID, "time_created", id.TimeCreated)
	emit(fitimport.KindFileID, fileID)

	for _, dev := range activity.DeviceInfos {
		if dev == nil {
			continue
		}
		emit(fitimport.KindDeviceInfo, deviceInfoFields(dev))
	}

	var timeline []pending
	add := func(ts time.Time, rank int, kind string, f map[string]any) {
		timeline = append(timeline, pending{ts: ts, rank: rank, ord: len(timeline), kind: kind, f: f})
	}
	for _, ev := range activity.Events {
		if ev == nil {
			continue
		}
		f := map[string]any{"event": int64(ev.Event), "event_type": int64(ev.EventType)}
		putTime(f, "timestamp", ev.Timestamp)
		add(ev.Timestamp, rankEvent, fitimport.KindEvent, f)
	}
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		add(rec.Timestamp, rankRecord, fitimport.KindRecord, recordFields(rec))
	}
	for _, l := range activity.Lengths {
		if l == nil {
			continue
		}
		add(l.Timestamp, rankLength, fitimport.KindLength, lengthFields(l))
	}
	for _, l := range activity.Laps {
		if l == nil {
			continue
		}
		add(l.Timestamp, rankLap, fitimport.KindLap, lapFields(l))
	}
	for _, s := range activity.Sessions {
		if s == nil {
			continue
		}
		add(s.Timestamp, rankSession, fitimport.KindSession, sessionFields(s))
	}
	if a := activity.Activity; a != nil {
		f := map[string]any{}
		putTime(f, "timestamp", a.Timestamp)
		putUint16(f, "num_sessions", a.NumSessions)
		add(a.Timestamp, rankActivity, fitimport.KindActivity, f)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		a, b := timeline[i], timeline[j]
		if !a.ts.Equal(b.ts) {
			return a.ts.Before(b.ts)
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.ord < b.ord
	})
	for _, p := range timeline {
		emit(p.kind, p.f)
	}
	return out, nil
}

func deviceInfoFields(dev *fit.DeviceInfoMsg) map[string]any {
	f := map[string]any{"device_index": int64(dev.DeviceIndex)}
	if dev.Manufacturer != fit.ManufacturerInvalid {
		f["manufacturer"] = fmt.Sprint(dev.Manufacturer)
	}
	putTime(f, "timestamp", dev.Timestamp)
	if dev.ProductName != "" {
		f["product_name"] = dev.ProductName
	}
	if dev.SerialNumber != 0 && dev.SerialNumber != math.MaxUint32 {
		f["serial_number"] = int64(dev.SerialNumber)
	}
	if dev.SoftwareVersion != math.MaxUint16 {
		f["software_version"] = float64(dev.SoftwareVersion) / 100
	}
	return f
}

func sessionFields(s *fit.SessionMsg) map[string]any {
	f := map[string]any{}
	if s.Sport != fit.SportInvalid {
		f["sport"] = int64(s.Sport)
	}
	putTime(f, "start_time", s.StartTime)
	putTime(f, "timestamp", s.Timestamp)
	putScaled(f, "total_elapsed_time", s.GetTotalElapsedTimeScaled())
	putScaled(f, "total_timer_time", s.GetTotalTimerTimeScaled())
	putScaled(f, "total_distance", s.GetTotalDistanceScaled())
	putUint16(f, "total_calories", s.TotalCalories)
	putUint8(f, "avg_heart_rate", s.AvgHeartRate)
	putUint8(f, "max_heart_rate", s.MaxHeartRate)
	putUint16(f, "avg_power", s.AvgPower)
	putUint16(f, "threshold_power", s.ThresholdPower)
	putUint16(f, "first_lap_index", s.FirstLapIndex)
	putUint16(f, "num_laps", s.NumLaps)
	if s.Sport == fit.SportSwimming {
		putScaled(f, "pool_length", s.GetPoolLengthScaled())
	}
	return f
}

func lapFields(l *fit.LapMsg) map[string]any {
	f := map[string]any{}
	putTime(f, "start_time", l.StartTime)
	putTime(f, "timestamp", l.Timestamp)
	putScaled(f, "total_elapsed_time", l.GetTotalElapsedTimeScaled())
	putScaled(f, "total_timer_time", l.GetTotalTimerTimeScaled())
	putScaled(f, "total_distance", l.GetTotalDistanceScaled())
	putUint16(f, "total_calories", l.TotalCalories)
	putUint8(f, "avg_heart_rate", l.AvgHeartRate)
	putUint8(f, "max_heart_rate", l.MaxHeartRate)
	if cad := cadenceFromAny(l.GetAvgCadence()); cad > 0 {
		f["avg_cadence"] = cad
	}
	putUint16(f, "avg_power", l.AvgPower)
	putUint16(f, "max_power", l.MaxPower)
	if l.Intensity != fit.IntensityInvalid {
		f["intensity"] = int64(l.Intensity)
	}
	putUint16(f, "first_length_index", l.FirstLengthIndex)
	putUint16(f, "num_lengths", l.NumLengths)
	return f
}

func lengthFields(l *fit.LengthMsg) map[string]any {
	f := map[string]any{}
	putTime(f, "start_time", l.StartTime)
	putTime(f, "timestamp", l.Timestamp)
	putScaled(f, "total_elapsed_time", l.GetTotalElapsedTimeScaled())
	putScaled(f, "total_timer_time", l.GetTotalTimerTimeScaled())
	putUint16(f, "total_strokes", l.TotalStrokes)
	if l.SwimStroke != fit.SwimStrokeInvalid {
		f["swim_stroke"] = int64(l.SwimStroke)
	}
	if l.LengthType != fit.LengthTypeInvalid {
		f["length_type"] = int64(l.LengthType)
	}
	return f
}

func recordFields(rec *fit.RecordMsg) map[string]any {
	f := map[string]any{}
	putTime(f, "timestamp", rec.Timestamp)
	if !rec.PositionLat.Invalid() && !rec.PositionLong.Invalid() {
		f["position_lat"] = int64(rec.PositionLat.Semicircles())
		f["position_long"] = int64(rec.PositionLong.Semicircles())
	}
	if alt := rec.GetEnhancedAltitudeScaled(); isFinite(alt) {
		f["altitude"] = alt
	} else {
		putScaled(f, "altitude", rec.GetAltitudeScaled())
	}
	if speed := rec.GetEnhancedSpeedScaled(); isFinite(speed) {
		f["speed"] = speed
	} else {
		putScaled(f, "speed", rec.GetSpeedScaled())
	}
	putScaled(f, "distance", rec.GetDistanceScaled())
	putUint8(f, "heart_rate", rec.HeartRate)
	putUint8(f, "cadence", rec.Cadence)
	putUint16(f, "power", rec.Power)
	if rec.Temperature != math.MaxInt8 {
		f["temperature"] = float64(rec.Temperature)
	}
	return f
}

func putTime(f map[string]any, name string, t time.Time) {
	if t.IsZero() || fit.IsBaseTime(t) {
		return
	}
	f[name] = t.UTC()
}

func putScaled(f map[string]any, name string, v float64) {
	if isFinite(v) {
		f[name] = v
	}
}

func putUint8(f map[string]any, name string, v uint8) {
	if v != math.MaxUint8 {
		f[name] = int64(v)
	}
}

func putUint16(f map[string]any, name string, v uint16) {
	if v != math.MaxUint16 {
		f[name] = int64(v)
	}
}

func cadenceFromAny(v any) float64 {
	switch x := v.(type) {
	case uint8:
		if x == math.MaxUint8 {
			return 0
		}
		return float64(x)
	case uint16:
		if x == math.MaxUint16 {
			return 0
		}
		return float64(x)
	case float64:
		if !isFinite(x) || x <= 0 {
			return 0
		}
		return x
	default:
		return 0
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
