package fitimport

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/geo"
	"github.com/lucasjlepore/fitconvert/model"
)

const op = "import fit"

// Options controls Import.
type Options struct {
	// SummaryOnly skips record messages; laps, lengths and sessions are kept.
	SummaryOnly bool
	// Analysis is handed to fitconvert.Finish once the model is built.
	Analysis fitconvert.Options
}

type session struct {
	seq        uint64
	sport      model.Sport
	transition bool
	start      time.Time
	end        time.Time
	duration   float64

	distance *float64
	avgHR    *float64
	maxHR    *float64
	avgPower *float64
	calories *int

	poolLength     *float64
	thresholdPower float64

	firstLap, numLaps int64
	hasLapRange       bool
	laps              []int
}

type lap struct {
	seq          uint64
	sessionIndex int64
	hasSession   bool

	firstLength, numLengths int64
	hasLengthRange          bool

	out model.Lap
}

type length struct {
	seq uint64
	out model.PoolLength
}

type record struct {
	idx   int
	point model.TelemetryPoint
}

type importer struct {
	opts Options
	c    *diag.Collector

	device    model.Device
	hasDevice bool
	created   time.Time
	title     string
	sport     *model.Sport
	actEnd    time.Time
	numSess   int64

	sessions []*session
	laps     []*lap
	lengths  []*length
	records  []record
}

// Import builds one Workout from an ordered message stream.
func Import(msgs []DecodedMessage, opts Options, c *diag.Collector) (*model.Workout, error) {
	im := &importer{opts: opts, c: c}
	if err := im.read(msgs); err != nil {
		return nil, err
	}
	return im.build()
}

// ImportBytes decodes data with d and imports the result.
func ImportBytes(d Decoder, data []byte, opts Options, c *diag.Collector) (*model.Workout, error) {
	msgs, err := Decode(d, data)
	if err != nil {
		return nil, err
	}
	return Import(msgs, opts, c)
}

func (im *importer) read(msgs []DecodedMessage) error {
	counts := map[string]int{}
	skippedRecords := 0
	for i, m := range msgs {
		if i > 0 && m.Seq <= msgs[i-1].Seq {
			return diag.Invalid(op, fmt.Sprintf("messages[%d].seq", i),
				"sequence %d does not follow %d", m.Seq, msgs[i-1].Seq)
		}
		idx := counts[m.Kind]
		counts[m.Kind]++

		f := newFields(m.Kind, idx, m.Fields)
		switch m.Kind {
		case KindFileID:
			im.readFileID(f)
		case KindDeviceInfo:
			im.readDeviceInfo(f)
		case KindSession:
			im.readSession(m.Seq, f)
		case KindLap:
			im.readLap(m.Seq, f)
		case KindLength:
			im.readLength(m.Seq, f)
		case KindRecord:
			if im.opts.SummaryOnly {
				skippedRecords++
				continue
			}
			im.readRecord(idx, f)
		case KindActivity:
			im.actEnd = f.time("timestamp")
			if n, ok := f.int("num_sessions"); ok {
				im.numSess = n
			}
			f.skip("total_timer_time", "local_timestamp", "type", "event", "event_type")
		case KindSport:
			if v, ok := f.raw("sport"); ok {
				if s, transition, _ := sportOf(v); !transition {
					im.sport = &s
				}
			}
			if name, ok := f.str("name"); ok {
				im.title = name
			}
		case KindEvent:
			// Timer start/stop markers carry nothing the model keeps.
			continue
		default:
			im.c.Unsupported(fmt.Sprintf("messages[%d]", i), "message kind %q has no destination", m.Kind)
			continue
		}
		f.finish(im.c)
	}
	if skippedRecords > 0 {
		im.c.Skipped("record", "summary-only import skipped %d record messages", skippedRecords)
	}
	return nil
}

func (im *importer) readFileID(f *fields) {
	if v, ok := f.raw("type"); ok {
		if s, isStr := v.(string); isStr && s != "activity" {
			im.c.DataQuality(f.at("type"), "file type %q is not an activity", s)
		} else if n, ok := toFloat(v); ok && n != 4 {
			im.c.DataQuality(f.at("type"), "file type %v is not an activity", n)
		}
	}
	im.created = f.time("time_created")
	im.mergeDevice(f)
}

func (im *importer) readDeviceInfo(f *fields) {
	if n, ok := f.int("device_index"); ok && n != 0 {
		// Only the creator device (index 0) describes the recording unit.
		f.skip(keys(f.m)...)
		return
	}
	f.skip("timestamp")
	im.mergeDevice(f)
	if v, ok := f.str("software_version"); ok && im.device.Firmware == "" {
		im.device.Firmware = v
		im.hasDevice = true
	}
}

func (im *importer) mergeDevice(f *fields) {
	set := func(dst *string, name string) {
		if v, ok := f.str(name); ok && *dst == "" {
			*dst = v
			im.hasDevice = true
		}
	}
	set(&im.device.Manufacturer, "manufacturer")
	set(&im.device.Product, "product_name")
	set(&im.device.Product, "product")
	set(&im.device.SerialNumber, "serial_number")
}

func (im *importer) readSession(seq uint64, f *fields) {
	s := &session{seq: seq}
	if v, ok := f.raw("sport"); ok {
		var known bool
		s.sport, s.transition, known = sportOf(v)
		if !known {
			im.c.Clamped(f.at("sport"), "unknown sport %v mapped to %s", v, model.SportOther)
		}
	} else {
		s.sport = model.SportOther
		im.c.MissingField(f.at("sport"), "session has no sport, using %s", model.SportOther)
	}

	s.start = f.time("start_time")
	s.end = f.time("timestamp")
	elapsed := f.floatPtr("total_elapsed_time")
	timer := f.floatPtr("total_timer_time")
	switch {
	case elapsed != nil:
		s.duration = *elapsed
	case timer != nil:
		s.duration = *timer
	case !s.start.IsZero() && s.end.After(s.start):
		s.duration = s.end.Sub(s.start).Seconds()
	}
	if s.start.IsZero() && !s.end.IsZero() {
		s.start = s.end.Add(-model.Seconds(s.duration))
	}
	if s.end.IsZero() && !s.start.IsZero() {
		s.end = s.start.Add(model.Seconds(s.duration))
	}

	s.distance = f.floatPtr("total_distance")
	s.avgHR = f.floatPtr("avg_heart_rate")
	s.maxHR = f.floatPtr("max_heart_rate")
	s.avgPower = f.floatPtr("avg_power")
	s.calories = f.intPtr("total_calories")
	s.poolLength = f.floatPtr("pool_length")
	f.skip("pool_length_unit", "message_index", "event", "event_type")
	if v, ok := f.float("threshold_power"); ok {
		s.thresholdPower = v
	}
	first, okFirst := f.int("first_lap_index")
	num, okNum := f.int("num_laps")
	if okFirst && okNum {
		s.firstLap, s.numLaps, s.hasLapRange = first, num, true
	}
	im.sessions = append(im.sessions, s)
}

func (im *importer) readLap(seq uint64, f *fields) {
	l := &lap{seq: seq}
	if n, ok := f.int("session_index"); ok {
		l.sessionIndex, l.hasSession = n, true
	}
	first, okFirst := f.int("first_length_index")
	num, okNum := f.int("num_lengths")
	if okFirst && okNum {
		l.firstLength, l.numLengths, l.hasLengthRange = first, num, true
	}

	out := &l.out
	out.StartTime = f.time("start_time")
	end := f.time("timestamp")
	if d := f.firstFloat("total_timer_time", "total_elapsed_time"); d != nil {
		out.DurationSec = *d
	} else if !out.StartTime.IsZero() && end.After(out.StartTime) {
		out.DurationSec = end.Sub(out.StartTime).Seconds()
	}
	if out.StartTime.IsZero() && !end.IsZero() {
		out.StartTime = end.Add(-model.Seconds(out.DurationSec))
	}
	out.DistanceMeters = f.floatPtr("total_distance")
	out.AvgHeartRate = f.floatPtr("avg_heart_rate")
	out.MaxHeartRate = f.floatPtr("max_heart_rate")
	out.AvgCadence = f.floatPtr("avg_cadence")
	out.AvgPower = f.floatPtr("avg_power")
	out.MaxPower = f.floatPtr("max_power")
	out.Calories = f.intPtr("total_calories")
	if v, ok := f.raw("intensity"); ok {
		if in, ok := intensityOf(v); ok {
			out.Intensity = in
		} else {
			im.c.Clamped(f.at("intensity"), "unknown lap intensity %v ignored", v)
		}
	}
	f.skip("message_index", "event", "event_type")
	im.laps = append(im.laps, l)
}

func (im *importer) readLength(seq uint64, f *fields) {
	l := &length{seq: seq}
	out := &l.out
	out.StartTime = f.time("start_time")
	end := f.time("timestamp")
	if d := f.firstFloat("total_elapsed_time", "total_timer_time"); d != nil {
		out.DurationSec = *d
	} else if !out.StartTime.IsZero() && end.After(out.StartTime) {
		out.DurationSec = end.Sub(out.StartTime).Seconds()
	}
	if out.StartTime.IsZero() && !end.IsZero() {
		out.StartTime = end.Add(-model.Seconds(out.DurationSec))
	}
	out.StrokeCount = f.intPtr("total_strokes")
	if v, ok := f.raw("swim_stroke"); ok {
		if s, ok := strokeOf(v); ok {
			out.Stroke = s
		} else {
			im.c.Clamped(f.at("swim_stroke"), "unknown swim stroke %v", v)
		}
	}
	out.Active = true
	if v, ok := f.raw("length_type"); ok {
		if active, ok := lengthActive(v); ok {
			out.Active = active
		} else {
			im.c.Clamped(f.at("length_type"), "unknown length type %v treated as active", v)
		}
	} else {
		im.c.MissingField(f.at("length_type"), "length has no type, treated as active")
	}
	f.skip("message_index", "event", "event_type")
	im.lengths = append(im.lengths, l)
}

func (im *importer) readRecord(idx int, f *fields) {
	p := model.TelemetryPoint{Time: f.time("timestamp")}
	if p.Time.IsZero() {
		im.c.MissingField(f.at("timestamp"), "record has no timestamp, dropped")
		f.skip(keys(f.m)...)
		return
	}
	lat, okLat := f.int("position_lat")
	lon, okLon := f.int("position_long")
	if okLat && okLon {
		if !fitsInt32(lat) || !fitsInt32(lon) {
			im.c.DataQuality(f.at("position"), "position %d,%d exceeds the semicircle range, dropped", lat, lon)
		} else if dLat, dLon := geo.SemicirclesToDegrees(int32(lat)), geo.SemicirclesToDegrees(int32(lon)); geo.ValidLatLon(dLat, dLon) {
			p.Lat, p.Lon = model.Float(dLat), model.Float(dLon)
		} else {
			im.c.DataQuality(f.at("position"), "position %v,%v out of range, dropped", dLat, dLon)
		}
	} else if okLat != okLon {
		im.c.DataQuality(f.at("position"), "record has only one coordinate, position dropped")
	}
	p.AltitudeM = f.firstFloat("enhanced_altitude", "altitude")
	p.SpeedMPS = f.firstFloat("enhanced_speed", "speed")
	p.HeartRate = f.floatPtr("heart_rate")
	p.Power = f.floatPtr("power")
	p.Cadence = f.floatPtr("cadence")
	p.TemperatureC = f.floatPtr("temperature")
	p.Heading = f.floatPtr("heading")
	p.DistanceM = f.floatPtr("distance")
	im.records = append(im.records, record{idx: idx, point: p})
}

func (im *importer) build() (*model.Workout, error) {
	if len(im.sessions) == 0 {
		if err := im.synthesizeSession(); err != nil {
			return nil, err
		}
	}
	if im.numSess > 0 && im.numSess != int64(len(im.sessions)) {
		im.c.DataQuality("activity[0].num_sessions",
			"activity reports %d sessions, stream carries %d", im.numSess, len(im.sessions))
	}
	if err := im.attachLaps(); err != nil {
		return nil, err
	}

	w := &model.Workout{Title: im.title}
	if im.hasDevice {
		d := im.device
		w.Device = &d
	}

	lapRef := make([]*model.Lap, len(im.laps))
	spans := make([]fitconvert.SessionSport, len(im.sessions))
	for i, s := range im.sessions {
		spans[i] = fitconvert.SessionSport{Sport: s.sport, Transition: s.transition}
	}
	var windows []window
	for _, s := range im.sessions {
		if s.transition {
			w.Transitions = append(w.Transitions, model.Transition{StartTime: s.start, DurationSec: s.duration})
			windows = append(windows, window{start: s.start, end: s.end})
		}
	}

	type lapOwner struct{ seg, lap int }
	owners := make([]lapOwner, len(im.laps))
	for i := range owners {
		owners[i] = lapOwner{-1, -1}
	}
	for _, span := range fitconvert.SegmentSessions(spans) {
		seg := im.segment(span)
		si := len(w.Segments)
		for k := span.First; k <= span.Last; k++ {
			for _, li := range im.sessions[k].laps {
				owners[li] = lapOwner{si, len(seg.Laps)}
				seg.Laps = append(seg.Laps, im.laps[li].out)
			}
		}
		if seg.StartTime.IsZero() {
			if t := earliestLapStart(seg.Laps); !t.IsZero() {
				seg.StartTime = t
				im.c.MissingField(fmt.Sprintf("session[%d].start_time", span.First), "session has no start time, using its first lap")
			}
		}
		fillLapStarts(&seg)
		w.Segments = append(w.Segments, seg)
	}
	if len(w.Segments) == 0 {
		return nil, diag.Invalid(op, "session", "stream contains only transition sessions")
	}
	for li, o := range owners {
		if o.seg < 0 {
			im.c.Unsupported(fmt.Sprintf("lap[%d]", li), "lap belongs to a transition session, dropped")
		}
	}
	w.EnsureLaps()
	for li, o := range owners {
		if o.seg >= 0 {
			lapRef[li] = &w.Segments[o.seg].Laps[o.lap]
		}
	}

	if err := im.attachLengths(w, lapRef); err != nil {
		return nil, err
	}
	im.attachRecords(w, windows)
	for si := range w.Segments {
		seg := &w.Segments[si]
		if !seg.StartTime.IsZero() {
			continue
		}
		if t := earliestPoint(seg); !t.IsZero() {
			seg.StartTime = t
			im.c.MissingField(fmt.Sprintf("segments[%d].start_time", si), "segment has no start time, using its first record")
		}
	}

	w.StartTime = w.Segments[0].StartTime
	switch last := im.sessions[len(im.sessions)-1]; {
	case !im.actEnd.IsZero():
		w.EndTime = im.actEnd
	case !last.end.IsZero():
		w.EndTime = last.end
	}
	if w.StartTime.IsZero() {
		return nil, diag.Missing(op, "session.start_time")
	}

	analysis := im.opts.Analysis
	if analysis.Power.DeviceFTPWatts <= 0 {
		for _, s := range im.sessions {
			if s.thresholdPower > 0 {
				analysis.Power.DeviceFTPWatts = s.thresholdPower
				break
			}
		}
	}
	fitconvert.Finish(w, analysis, im.c)
	return w, nil
}

// synthesizeSession stands in for a missing session message using the span
// of the records and laps.
func (im *importer) synthesizeSession() error {
	var start, end time.Time
	expand := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if start.IsZero() || t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}
	for _, r := range im.records {
		expand(r.point.Time)
	}
	for _, l := range im.laps {
		expand(l.out.StartTime)
		expand(l.out.EndTime())
	}
	if start.IsZero() {
		expand(im.created)
	}
	if start.IsZero() {
		return diag.Missing(op, "session.start_time")
	}
	sport := model.SportOther
	if im.sport != nil {
		sport = *im.sport
	}
	im.c.MissingField("session", "stream has no session message, synthesized one from %d records", len(im.records))
	im.sessions = append(im.sessions, &session{
		seq:      ^uint64(0),
		sport:    sport,
		start:    start,
		end:      end,
		duration: end.Sub(start).Seconds(),
	})
	return nil
}

// attachLaps assigns every lap to a session: by explicit session_index, then
// by the session's lap range, then by message order.
func (im *importer) attachLaps() error {
	owner := make([]int, len(im.laps))
	for i := range owner {
		owner[i] = -1
	}
	for li, l := range im.laps {
		if !l.hasSession {
			continue
		}
		if l.sessionIndex < 0 || l.sessionIndex >= int64(len(im.sessions)) {
			return diag.Invalid(op, fmt.Sprintf("lap[%d].session_index", li),
				"references session %d, stream has %d", l.sessionIndex, len(im.sessions))
		}
		owner[li] = int(l.sessionIndex)
	}
	for si, s := range im.sessions {
		if !s.hasLapRange || s.numLaps <= 0 {
			continue
		}
		if s.firstLap < 0 || s.firstLap >= int64(len(im.laps)) {
			return diag.Invalid(op, fmt.Sprintf("session[%d].first_lap_index", si),
				"references lap %d, stream has %d", s.firstLap, len(im.laps))
		}
		end := s.firstLap + s.numLaps
		if end > int64(len(im.laps)) {
			im.c.DataQuality(fmt.Sprintf("session[%d].num_laps", si),
				"session claims %d laps from %d, stream has %d", s.numLaps, s.firstLap, len(im.laps))
			end = int64(len(im.laps))
		}
		for li := s.firstLap; li < end; li++ {
			if owner[li] < 0 {
				owner[li] = si
			}
		}
	}
	for li, l := range im.laps {
		if owner[li] >= 0 {
			continue
		}
		owner[li] = len(im.sessions) - 1
		for si, s := range im.sessions {
			if s.seq > l.seq {
				owner[li] = si
				break
			}
		}
	}
	for li, si := range owner {
		im.sessions[si].laps = append(im.sessions[si].laps, li)
	}
	return nil
}

// segment merges the sessions of one span into a Segment.
func (im *importer) segment(span fitconvert.SegmentSpan) model.Segment {
	first := im.sessions[span.First]
	seg := model.Segment{Sport: span.Sport, StartTime: first.start}
	if span.First == span.Last {
		seg.DurationSec = first.duration
		seg.DistanceMeters = first.distance
		seg.AvgHeartRate = first.avgHR
		seg.MaxHeartRate = first.maxHR
		seg.AvgPower = first.avgPower
		seg.Calories = first.calories
	} else {
		last := im.sessions[span.Last]
		if last.end.After(first.start) {
			seg.DurationSec = last.end.Sub(first.start).Seconds()
		}
		var hrSum, hrDur, pwrSum, pwrDur, total float64
		for k := span.First; k <= span.Last; k++ {
			s := im.sessions[k]
			total += s.duration
			seg.DistanceMeters = addFloat(seg.DistanceMeters, s.distance)
			seg.Calories = addInt(seg.Calories, s.calories)
			if s.maxHR != nil && (seg.MaxHeartRate == nil || *s.maxHR > *seg.MaxHeartRate) {
				seg.MaxHeartRate = model.Float(*s.maxHR)
			}
			if s.avgHR != nil && s.duration > 0 {
				hrSum += *s.avgHR * s.duration
				hrDur += s.duration
			}
			if s.avgPower != nil && s.duration > 0 {
				pwrSum += *s.avgPower * s.duration
				pwrDur += s.duration
			}
		}
		if seg.DurationSec <= 0 {
			seg.DurationSec = total
		}
		if hrDur > 0 {
			seg.AvgHeartRate = model.Float(hrSum / hrDur)
		}
		if pwrDur > 0 {
			seg.AvgPower = model.Float(pwrSum / pwrDur)
		}
	}
	if span.Sport == model.SportSwimming {
		for k := span.First; k <= span.Last; k++ {
			if p := im.sessions[k].poolLength; p != nil {
				seg.Swim = &model.SwimSummary{RawPoolLength: model.Float(*p)}
				break
			}
		}
	}
	return seg
}

func fillLapStarts(seg *model.Segment) {
	prev := seg.StartTime
	for i := range seg.Laps {
		l := &seg.Laps[i]
		if l.StartTime.IsZero() {
			l.StartTime = prev
		}
		if !l.StartTime.IsZero() {
			prev = l.EndTime()
		}
	}
}

func earliestLapStart(laps []model.Lap) time.Time {
	var first time.Time
	for _, l := range laps {
		if !l.StartTime.IsZero() && (first.IsZero() || l.StartTime.Before(first)) {
			first = l.StartTime
		}
	}
	return first
}

func earliestPoint(seg *model.Segment) time.Time {
	var first time.Time
	for _, l := range seg.Laps {
		for _, p := range l.Points {
			if first.IsZero() || p.Time.Before(first) {
				first = p.Time
			}
		}
	}
	return first
}

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func (im *importer) attachLengths(w *model.Workout, lapRef []*model.Lap) error {
	if len(im.lengths) == 0 {
		return nil
	}
	claimed := make([]bool, len(im.lengths))
	for li, l := range im.laps {
		if !l.hasLengthRange || l.numLengths <= 0 || lapRef[li] == nil {
			continue
		}
		if l.firstLength < 0 || l.firstLength >= int64(len(im.lengths)) {
			return diag.Invalid(op, fmt.Sprintf("lap[%d].first_length_index", li),
				"references length %d, stream has %d", l.firstLength, len(im.lengths))
		}
		end := l.firstLength + l.numLengths
		if end > int64(len(im.lengths)) {
			im.c.DataQuality(fmt.Sprintf("lap[%d].num_lengths", li),
				"lap claims %d lengths from %d, stream has %d", l.numLengths, l.firstLength, len(im.lengths))
			end = int64(len(im.lengths))
		}
		for k := l.firstLength; k < end; k++ {
			if !claimed[k] {
				lapRef[li].Lengths = append(lapRef[li].Lengths, im.lengths[k].out)
				claimed[k] = true
			}
		}
	}
	idx := newLapIndex(w)
	for k, l := range im.lengths {
		if claimed[k] {
			continue
		}
		target := idx.find(l.out.StartTime)
		target.Lengths = append(target.Lengths, l.out)
	}
	return nil
}

type window struct{ start, end time.Time }

func (wn window) contains(t time.Time) bool {
	return !t.Before(wn.start) && t.Before(wn.end)
}

func (im *importer) attachRecords(w *model.Workout, transitions []window) {
	if len(im.records) == 0 {
		return
	}
	idx := newLapIndex(w)
	dropped := make([]int, len(transitions))
	for _, r := range im.records {
		inTransition := false
		for ti, tw := range transitions {
			if tw.contains(r.point.Time) {
				dropped[ti]++
				inTransition = true
				break
			}
		}
		if inTransition {
			continue
		}
		w.AddPoint(idx.find(r.point.Time), r.point)
	}
	for ti, n := range dropped {
		if n > 0 {
			im.c.DataQuality(fmt.Sprintf("transitions[%d]", ti),
				"%d records recorded during a transition were dropped", n)
		}
	}
}

// lapIndex finds the lap a timestamp falls into: the last lap starting at or
// before it, or the first lap for earlier timestamps.
type lapIndex struct {
	starts []time.Time
	laps   []*model.Lap
}

func newLapIndex(w *model.Workout) *lapIndex {
	idx := &lapIndex{}
	for si := range w.Segments {
		for li := range w.Segments[si].Laps {
			l := &w.Segments[si].Laps[li]
			idx.laps = append(idx.laps, l)
			idx.starts = append(idx.starts, l.StartTime)
		}
	}
	sort.Stable(idx)
	return idx
}

func (x *lapIndex) Len() int           { return len(x.laps) }
func (x *lapIndex) Less(i, j int) bool { return x.starts[i].Before(x.starts[j]) }
func (x *lapIndex) Swap(i, j int) {
	x.starts[i], x.starts[j] = x.starts[j], x.starts[i]
	x.laps[i], x.laps[j] = x.laps[j], x.laps[i]
}

func (x *lapIndex) find(t time.Time) *model.Lap {
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i].After(t) })
	if i == 0 {
		return x.laps[0]
	}
	return x.laps[i-1]
}

func addFloat(dst, v *float64) *float64 {
	if v == nil {
		return dst
	}
	if dst == nil {
		return model.Float(*v)
	}
	return model.Float(*dst + *v)
}

func addInt(dst, v *int) *int {
	if v == nil {
		return dst
	}
	if dst == nil {
		return model.Int(*v)
	}
	return model.Int(*dst + *v)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
