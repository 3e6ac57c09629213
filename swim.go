package fitconvert

import (
	"fmt"
	"math"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

// PoolBin is one named pool identity. A raw length in [Min, Max] maps to it.
type PoolBin struct {
	Name   string  `json:"name"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Meters float64 `json:"meters"`
}

func (b PoolBin) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// PoolBins is the ordered set of bins used to snap noisy device pool lengths.
// The first matching bin wins; Default is used when none matches.
type PoolBins struct {
	Bins    []PoolBin `json:"bins"`
	Default PoolBin   `json:"default"`
}

// DefaultPoolBins returns 45–55 → "50 m", 30–40 → "33 yd", else "25 m".
func DefaultPoolBins() PoolBins {
	return PoolBins{
		Bins: []PoolBin{
			{Name: "50 m", Min: 45, Max: 55, Meters: 50},
			{Name: "33 yd", Min: 30, Max: 40, Meters: 30.48},
		},
		Default: PoolBin{Name: "25 m", Meters: 25},
	}
}

// Validate rejects bins that cannot match anything.
func (p PoolBins) Validate() error {
	for i, b := range p.Bins {
		if b.Name == "" {
			return fmt.Errorf("pool bin %d: empty name", i)
		}
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Min > b.Max {
			return fmt.Errorf("pool bin %q: invalid range %v–%v", b.Name, b.Min, b.Max)
		}
	}
	if p.Default.Name == "" {
		return fmt.Errorf("pool bins: default bin needs a name")
	}
	return nil
}

// Classify snaps a raw pool length to a bin. It reports false when the
// default bin was used because no bin matched.
func (p PoolBins) Classify(raw float64) (PoolBin, bool) {
	if !isFinite(raw) {
		return p.Default, false
	}
	for _, b := range p.Bins {
		if b.contains(raw) {
			return b, true
		}
	}
	return p.Default, false
}

// SWOLF is stroke count plus the length duration truncated to whole seconds.
// Negative inputs count as zero.
func SWOLF(durationSec float64, strokes int) int {
	if strokes < 0 {
		strokes = 0
	}
	if !isFinite(durationSec) || durationSec < 0 {
		durationSec = 0
	}
	return strokes + int(math.Floor(durationSec))
}

// AnalyzeSwim fills per-length SWOLF scores and the segment SwimSummary.
// rawPoolLength is the device-recorded pool length in meters, nil when the
// source did not carry one.
func AnalyzeSwim(seg *model.Segment, rawPoolLength *float64, bins PoolBins, w *diag.Collector, path string) {
	summary := &model.SwimSummary{}

	var bin PoolBin
	switch {
	case rawPoolLength == nil:
		bin = bins.Default
		w.MissingField(path+".pool_length", "no pool length recorded, assuming %s", bin.Name)
	default:
		raw := *rawPoolLength
		summary.RawPoolLength = model.Float(raw)
		var ok bool
		bin, ok = bins.Classify(raw)
		if !ok {
			w.Clamped(path+".pool_length", "pool length %.2f matches no known pool, using %s", raw, bin.Name)
		}
	}
	summary.PoolLength = bin.Name
	summary.PoolLengthMeters = bin.Meters

	swolfTotal := 0
	swolfCount := 0
	for li := range seg.Laps {
		lap := &seg.Laps[li]
		for i := range lap.Lengths {
			length := &lap.Lengths[i]
			lpath := fmt.Sprintf("%s.laps[%d].lengths[%d]", path, li, i)
			if length.DurationSec < 0 {
				w.Clamped(lpath+".duration", "negative length duration %.2f clamped to 0", length.DurationSec)
				length.DurationSec = 0
			}

			if !length.Active {
				summary.RestLengths++
				if length.SWOLF == nil {
					strokes := 0
					if length.StrokeCount != nil {
						strokes = *length.StrokeCount
					}
					length.SWOLF = model.Int(SWOLF(length.DurationSec, strokes))
				}
				continue
			}

			summary.ActiveLengths++
			if length.StrokeCount == nil {
				if length.SWOLF == nil {
					w.MissingField(lpath+".stroke_count", "active length has no stroke count, SWOLF not computed")
				}
			} else {
				summary.TotalStrokes += *length.StrokeCount
				if length.SWOLF == nil {
					length.SWOLF = model.Int(SWOLF(length.DurationSec, *length.StrokeCount))
				}
			}
			if length.SWOLF != nil {
				swolfTotal += *length.SWOLF
				swolfCount++
			}
		}
	}
	if swolfCount > 0 {
		summary.AvgSWOLF = model.Float(float64(swolfTotal) / float64(swolfCount))
	}
	seg.Swim = summary
}
