package fitconvert

import "github.com/lucasjlepore/fitconvert/model"

const (
	hardLapFactor = 1.20
	easyLapFactor = 0.90
	minWorkLapSec = 90
	minEasyLapSec = 60
	fallbackBaseW = 150
)

// ClassifyLaps labels lap intensity from average lap power relative to the
// segment average. Segments where any lap already carries an intensity from
// the source, or where no lap has power, are left untouched.
func ClassifyLaps(seg *model.Segment) {
	if len(seg.Laps) == 0 {
		return
	}
	lapPowers := make([]float64, 0, len(seg.Laps))
	for _, lap := range seg.Laps {
		if lap.Intensity != model.IntensityUnknown {
			return
		}
		if lap.AvgPower != nil && *lap.AvgPower > 0 {
			lapPowers = append(lapPowers, *lap.AvgPower)
		}
	}
	if len(lapPowers) == 0 {
		return
	}

	baseline := 0.0
	if seg.AvgPower != nil {
		baseline = safePositive(*seg.AvgPower)
	}
	if baseline <= 0 {
		baseline = average(lapPowers)
	}
	if baseline <= 0 {
		baseline = fallbackBaseW
	}
	hard := baseline * hardLapFactor
	easy := baseline * easyLapFactor

	power := func(l model.Lap) float64 {
		if l.AvgPower == nil {
			return 0
		}
		return *l.AvgPower
	}
	isEasy := func(l model.Lap) bool {
		p := power(l)
		return p > 0 && p <= easy && l.DurationSec >= minEasyLapSec
	}

	var work []int
	for i := range seg.Laps {
		lap := &seg.Laps[i]
		p := power(*lap)
		if p <= 0 || lap.DurationSec <= 0 {
			continue
		}
		lap.Intensity = model.IntensityActive
		if p >= hard && lap.DurationSec >= minWorkLapSec {
			lap.Intensity = model.IntensityWork
			work = append(work, i)
		}
	}

	if len(work) == 0 {
		return
	}
	first, last := work[0], work[len(work)-1]

	// Recovery only sits between two work laps; an easy lap after the last
	// one is cooldown.
	for _, wi := range work[:len(work)-1] {
		next := wi + 1
		if seg.Laps[next].Intensity != model.IntensityWork && isEasy(seg.Laps[next]) {
			seg.Laps[next].Intensity = model.IntensityRecovery
		}
	}
	for i := 0; i < first; i++ {
		if i == 0 || isEasy(seg.Laps[i]) {
			if power(seg.Laps[i]) > 0 {
				seg.Laps[i].Intensity = model.IntensityWarmup
			}
		}
	}
	for i := last + 1; i < len(seg.Laps); i++ {
		l := &seg.Laps[i]
		if l.Intensity == model.IntensityRecovery {
			continue
		}
		if p := power(*l); p > 0 && p <= easy {
			l.Intensity = model.IntensityCooldown
		}
	}
}
