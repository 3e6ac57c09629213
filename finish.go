package fitconvert

import (
	"fmt"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

// Options configures Finish.
type Options struct {
	Power PowerOptions
	// Pool overrides the pool-length bins. A zero value uses DefaultPoolBins.
	Pool *PoolBins
	// SkipPower disables power analysis, e.g. for summary-only imports.
	SkipPower bool
}

func (o Options) poolBins() PoolBins {
	if o.Pool == nil {
		return DefaultPoolBins()
	}
	return *o.Pool
}

// Finish runs every analyzer over a freshly imported workout and restores the
// model invariants: at least one lap per segment, time-ordered points, filled
// aggregates, swim and power summaries, lap intensity and the multi-sport flag.
//
// Swimming segments read the device pool length from Swim.RawPoolLength when
// the importer stored one there.
func Finish(w *model.Workout, opts Options, c *diag.Collector) {
	w.EnsureLaps()
	bins := opts.poolBins()

	for i := range w.Segments {
		seg := &w.Segments[i]
		path := fmt.Sprintf("segments[%d]", i)
		for li := range seg.Laps {
			seg.Laps[li].SortPoints()
		}
		fillLapAggregates(seg)
		fillSegmentAggregates(seg)

		if seg.Sport == model.SportSwimming && (seg.Swim != nil || hasLengths(seg)) {
			var raw *float64
			if seg.Swim != nil {
				raw = seg.Swim.RawPoolLength
			}
			AnalyzeSwim(seg, raw, bins, c, path+".swim")
		}
		if !opts.SkipPower {
			if pm := AnalyzePower(seg, opts.Power, c, path+".power"); pm != nil {
				seg.Power = pm
			}
		}
		ClassifyLaps(seg)
	}

	fillWorkoutSpan(w)
	DetectMultiSport(w)
}

func hasLengths(seg *model.Segment) bool {
	for _, l := range seg.Laps {
		if len(l.Lengths) > 0 {
			return true
		}
	}
	return false
}

// fillLapAggregates derives per-lap summaries from points when the source
// carried only a series.
func fillLapAggregates(seg *model.Segment) {
	for i := range seg.Laps {
		lap := &seg.Laps[i]
		if len(lap.Points) == 0 {
			continue
		}
		var hr, cad, pwr []float64
		for _, p := range lap.Points {
			if p.HeartRate != nil {
				hr = append(hr, *p.HeartRate)
			}
			if p.Cadence != nil {
				cad = append(cad, *p.Cadence)
			}
			if p.Power != nil {
				pwr = append(pwr, *p.Power)
			}
		}
		if lap.AvgHeartRate == nil && len(hr) > 0 {
			lap.AvgHeartRate = model.Float(average(hr))
		}
		if lap.MaxHeartRate == nil && len(hr) > 0 {
			lap.MaxHeartRate = model.Float(maxValue(hr))
		}
		if lap.AvgCadence == nil && len(cad) > 0 {
			lap.AvgCadence = model.Float(average(cad))
		}
		if lap.AvgPower == nil && len(pwr) > 0 {
			lap.AvgPower = model.Float(average(pwr))
		}
		if lap.MaxPower == nil && len(pwr) > 0 {
			lap.MaxPower = model.Float(maxValue(pwr))
		}
		if lap.DurationSec <= 0 {
			first, last := lap.Points[0].Time, lap.Points[len(lap.Points)-1].Time
			if lap.StartTime.IsZero() {
				lap.StartTime = first
			}
			if last.After(lap.StartTime) {
				lap.DurationSec = last.Sub(lap.StartTime).Seconds()
			}
		}
	}
}

// fillSegmentAggregates rolls lap summaries up into the segment, weighting
// averages by lap duration.
func fillSegmentAggregates(seg *model.Segment) {
	var (
		hrSum, hrDur   float64
		pwrSum, pwrDur float64
		maxHR          *float64
		dist           *float64
		cal            *int
		dur            float64
	)
	for _, l := range seg.Laps {
		dur += l.DurationSec
		if l.AvgHeartRate != nil && l.DurationSec > 0 {
			hrSum += *l.AvgHeartRate * l.DurationSec
			hrDur += l.DurationSec
		}
		if l.AvgPower != nil && l.DurationSec > 0 {
			pwrSum += *l.AvgPower * l.DurationSec
			pwrDur += l.DurationSec
		}
		if l.MaxHeartRate != nil && (maxHR == nil || *l.MaxHeartRate > *maxHR) {
			maxHR = model.Float(*l.MaxHeartRate)
		}
		if l.DistanceMeters != nil {
			if dist == nil {
				dist = model.Float(0)
			}
			*dist += *l.DistanceMeters
		}
		if l.Calories != nil {
			if cal == nil {
				cal = model.Int(0)
			}
			*cal += *l.Calories
		}
	}
	if seg.StartTime.IsZero() && len(seg.Laps) > 0 {
		seg.StartTime = seg.Laps[0].StartTime
	}
	if seg.DurationSec <= 0 {
		seg.DurationSec = dur
	}
	if seg.AvgHeartRate == nil && hrDur > 0 {
		seg.AvgHeartRate = model.Float(hrSum / hrDur)
	}
	if seg.MaxHeartRate == nil {
		seg.MaxHeartRate = maxHR
	}
	if seg.AvgPower == nil && pwrDur > 0 {
		seg.AvgPower = model.Float(pwrSum / pwrDur)
	}
	if seg.DistanceMeters == nil {
		seg.DistanceMeters = dist
	}
	if seg.Calories == nil {
		seg.Calories = cal
	}
}

func fillWorkoutSpan(w *model.Workout) {
	if len(w.Segments) == 0 {
		return
	}
	if w.StartTime.IsZero() {
		w.StartTime = w.Segments[0].StartTime
	}
	last := w.Segments[len(w.Segments)-1]
	if w.EndTime.IsZero() {
		w.EndTime = last.StartTime.Add(model.Seconds(last.DurationSec))
	}
	if w.DurationSec <= 0 && w.EndTime.After(w.StartTime) {
		w.DurationSec = w.EndTime.Sub(w.StartTime).Seconds()
	}
}
