package tcx

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/geo"
	"github.com/lucasjlepore/fitconvert/model"
)

const importOp = "import tcx"

// Options configures Import.
type Options struct {
	// WorkoutIndex selects the activity to convert when the file holds several.
	WorkoutIndex int
	// SummaryOnly skips trackpoints and keeps lap summaries.
	SummaryOnly bool
	Analysis    fitconvert.Options
}

// Import parses a TCX document into a Workout.
func Import(data []byte, opts Options, c *diag.Collector) (*model.Workout, error) {
	var doc database
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, diag.Read(importOp, err)
	}
	acts := doc.Activities.Activities
	if n := len(doc.Activities.MultiSport); n > 0 {
		c.Unsupported("Activities.MultiSportSession", "%d multi-sport sessions ignored", n)
	}
	if len(acts) == 0 {
		return nil, diag.Invalid(importOp, "Activities", "document has no activities")
	}
	idx := opts.WorkoutIndex
	if idx < 0 || idx >= len(acts) {
		return nil, diag.Invalid(importOp, fmt.Sprintf("Activities.Activity[%d]", idx),
			"document has %d activities", len(acts))
	}
	if len(acts) > 1 {
		c.Unsupported("Activities", "%d further activities not converted", len(acts)-1)
	}

	act := acts[idx]
	path := fmt.Sprintf("Activities.Activity[%d]", idx)
	w := &model.Workout{Notes: act.Notes}

	sport, ok := sportsByName[act.Sport]
	if !ok {
		sport, _ = model.ParseSport(act.Sport)
		c.Clamped(path+".Sport", "unknown sport %q mapped to %s", act.Sport, sport)
	}
	seg := model.Segment{Sport: sport}

	resting := false
	for _, l := range act.Laps {
		if l.Intensity == intensityResting {
			resting = true
		}
	}
	skipped := 0
	for li, l := range act.Laps {
		lp, n := importLap(w, l, fmt.Sprintf("%s.Lap[%d]", path, li), resting, opts.SummaryOnly, c)
		skipped += n
		seg.Laps = append(seg.Laps, lp)
	}
	if skipped > 0 {
		c.Skipped("Trackpoint", "summary-only import skipped %d trackpoints", skipped)
	}

	start, err := parseTime(act.ID)
	if err != nil {
		for _, l := range seg.Laps {
			if !l.StartTime.IsZero() {
				start = l.StartTime
				break
			}
		}
		if start.IsZero() {
			return nil, diag.Missing(importOp, path+".Id")
		}
		c.MissingField(path+".Id", "activity id is not a timestamp, using first lap start")
	}
	seg.StartTime = start
	w.StartTime = start
	for i := range seg.Laps {
		if seg.Laps[i].StartTime.IsZero() {
			seg.Laps[i].StartTime = start
		}
	}
	fillDistance(&seg)
	w.Segments = []model.Segment{seg}

	if cr := act.Creator; cr != nil && cr.Name != "" {
		w.Device = &model.Device{Product: cr.Name}
		if cr.UnitID != nil {
			w.Device.SerialNumber = strconv.FormatUint(uint64(*cr.UnitID), 10)
		}
		if v := cr.Version; v != nil {
			w.Device.Firmware = fmt.Sprintf("%d.%d", v.Major, v.Minor)
		}
	}

	fitconvert.Finish(w, opts.Analysis, c)
	return w, nil
}

// importLap returns the lap and how many trackpoints summary-only mode skipped.
func importLap(w *model.Workout, l lap, path string, resting, summaryOnly bool, c *diag.Collector) (model.Lap, int) {
	out := model.Lap{
		DurationSec:    l.TotalTimeSeconds,
		DistanceMeters: l.DistanceMeters,
		Calories:       l.Calories,
		AvgHeartRate:   bpmValue(l.AvgHeartRate),
		MaxHeartRate:   bpmValue(l.MaxHeartRate),
		AvgCadence:     l.Cadence,
	}
	if t, err := parseTime(l.StartTime); err == nil {
		out.StartTime = t
	} else {
		c.MissingField(path+".StartTime", "lap start: %v", err)
	}
	switch l.Intensity {
	case intensityResting:
		out.Intensity = model.IntensityRest
	case intensityActive:
		// Leave unlabelled unless the file marks rests itself, so the
		// power-based classifier can run.
		if resting {
			out.Intensity = model.IntensityActive
		}
	}
	if l.Extensions != nil && l.Extensions.LX != nil {
		x := l.Extensions.LX
		out.AvgPower = x.AvgWatts
		out.MaxPower = x.MaxWatts
		if out.AvgCadence == nil {
			out.AvgCadence = x.AvgRunCadence
		}
	}

	skipped := 0
	for ti, trk := range l.Tracks {
		if summaryOnly {
			skipped += len(trk.Points)
			continue
		}
		for pi, tp := range trk.Points {
			p, ok := importPoint(tp, fmt.Sprintf("%s.Track[%d].Trackpoint[%d]", path, ti, pi), c)
			if ok {
				w.AddPoint(&out, p)
			}
		}
	}
	if out.StartTime.IsZero() && len(out.Points) > 0 {
		out.StartTime = out.Points[0].Time
	}
	return out, skipped
}

func importPoint(tp trackpoint, path string, c *diag.Collector) (model.TelemetryPoint, bool) {
	t, err := parseTime(tp.Time)
	if err != nil {
		c.MissingField(path+".Time", "trackpoint dropped: %v", err)
		return model.TelemetryPoint{}, false
	}
	p := model.TelemetryPoint{
		Time:      t,
		AltitudeM: tp.AltitudeMeters,
		DistanceM: tp.DistanceMeters,
		HeartRate: bpmValue(tp.HeartRate),
		Cadence:   tp.Cadence,
	}
	if pos := tp.Position; pos != nil {
		if geo.ValidLatLon(pos.Lat, pos.Lon) {
			p.Lat, p.Lon = model.Float(pos.Lat), model.Float(pos.Lon)
		} else {
			c.DataQuality(path+".Position", "coordinate %.6f,%.6f out of range", pos.Lat, pos.Lon)
		}
	}
	if tp.Extensions != nil && tp.Extensions.TPX != nil {
		x := tp.Extensions.TPX
		p.Power = x.Watts
		p.SpeedMPS = x.Speed
		if p.Cadence == nil {
			p.Cadence = x.RunCadence
		}
	}
	return p, true
}

// fillDistance falls back to haversine distance when no trackpoint carries
// DistanceMeters.
func fillDistance(seg *model.Segment) {
	var run []geo.Point
	for _, l := range seg.Laps {
		for _, p := range l.Points {
			if p.DistanceM != nil {
				return
			}
			gp := geo.Point{Valid: p.HasPosition()}
			if gp.Valid {
				gp.Lat, gp.Lon = *p.Lat, *p.Lon
			}
			run = append(run, gp)
		}
	}
	if len(run) == 0 {
		return
	}
	cum := geo.CumulativeDistance(run)
	i := 0
	for li := range seg.Laps {
		l := &seg.Laps[li]
		if len(l.Points) == 0 {
			continue
		}
		from := cum[i]
		for pi := range l.Points {
			l.Points[pi].DistanceM = model.Float(cum[i])
			i++
		}
		if l.DistanceMeters == nil {
			l.DistanceMeters = model.Float(cum[i-1] - from)
		}
	}
}
