// Package fitconvert holds the domain analyzers shared by every importer:
// power metrics, pool swim analysis, multi-sport segmentation and lap
// intensity classification.
package fitconvert

import (
	"math"
	"sort"
	"time"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

const (
	secondsPerHour = 3600.0

	// npWindow is the rolling window, in one-second samples, used for
	// Normalized Power.
	npWindow = 30

	// Gaps longer than this are not back-filled when resampling power.
	maxFillGapSec = 30

	best20Window  = 20 * 60
	ftpFromBest20 = 0.95
)

// FTP sources recorded on PowerMetrics.
const (
	FTPSourceSupplied  = "supplied"
	FTPSourceDevice    = "device"
	FTPSourceEstimated = "estimated"
)

// PowerOptions controls the athlete-specific inputs of AnalyzePower.
type PowerOptions struct {
	// FTPWatts is the caller-supplied threshold and wins over everything else.
	FTPWatts float64
	// DeviceFTPWatts is the threshold the recording device stored, if any.
	DeviceFTPWatts float64
	// EstimateFTP allows falling back to 95% of the best 20 minute power.
	EstimateFTP bool
}

type powerSeries struct {
	samples   []float64 // raw samples as recorded
	perSecond []float64 // resampled to one value per second
	workKJ    float64
	duration  float64
}

// AnalyzePower derives PowerMetrics from the power samples of seg. It returns
// nil when the segment carries no power data. Short series still produce
// average, max and work but no Normalized Power.
func AnalyzePower(seg *model.Segment, opts PowerOptions, w *diag.Collector, path string) *model.PowerMetrics {
	series := buildPowerSeries(seg)
	if len(series.samples) == 0 {
		return nil
	}

	pm := &model.PowerMetrics{
		AvgPower: average(series.samples),
		MaxPower: maxValue(series.samples),
		WorkKJ:   series.workKJ,
	}

	duration := seg.DurationSec
	if duration <= 0 {
		duration = series.duration
	}

	if np, ok := NormalizedPower(series.perSecond); ok {
		pm.NormalizedPower = model.Float(np)
		if pm.AvgPower > 0 {
			pm.VariabilityIndex = model.Float(np / pm.AvgPower)
		}
	} else {
		w.DataQuality(path+".normalized_power",
			"power series covers %d s, at least %d s needed", len(series.perSecond), npWindow)
	}

	if best, ok := BestRollingPower(series.perSecond, best20Window); ok {
		pm.Best20MinPower = model.Float(best)
	}

	switch {
	case safePositive(opts.FTPWatts) > 0:
		pm.FTP = model.Float(opts.FTPWatts)
		pm.FTPSource = FTPSourceSupplied
	case safePositive(opts.DeviceFTPWatts) > 0:
		pm.FTP = model.Float(opts.DeviceFTPWatts)
		pm.FTPSource = FTPSourceDevice
	case opts.EstimateFTP:
		if pm.Best20MinPower != nil {
			pm.FTP = model.Float(*pm.Best20MinPower * ftpFromBest20)
			pm.FTPSource = FTPSourceEstimated
		} else {
			w.DataQuality(path+".ftp", "cannot estimate FTP from less than 20 minutes of power")
		}
	}

	if pm.FTP != nil && pm.NormalizedPower != nil {
		ftp := *pm.FTP
		ifactor := *pm.NormalizedPower / ftp
		pm.IntensityFactor = model.Float(ifactor)
		pm.TrainingStress = model.Float(TrainingStress(duration, ifactor))
	}
	if pm.FTP != nil {
		pm.Zones = PowerZones(series.perSecond, *pm.FTP)
	}
	return pm
}

// NormalizedPower computes NP from one-second power samples: a 30 s rolling
// average raised to the 4th power, averaged, then 4th-rooted. The second
// result is false when fewer than 30 samples are available.
func NormalizedPower(perSecond []float64) (float64, bool) {
	if len(perSecond) < npWindow {
		return 0, false
	}

	sum := 0.0
	for i := 0; i < npWindow; i++ {
		sum += perSecond[i]
	}

	fourthPowerTotal := 0.0
	count := 0
	for i := npWindow - 1; i < len(perSecond); i++ {
		if i >= npWindow {
			sum += perSecond[i] - perSecond[i-npWindow]
		}
		rolling := sum / npWindow
		sq := rolling * rolling
		fourthPowerTotal += sq * sq
		count++
	}
	return math.Sqrt(math.Sqrt(fourthPowerTotal / float64(count))), true
}

// TrainingStress is hours × IF² × 100.
func TrainingStress(durationSec, intensityFactor float64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return (durationSec / secondsPerHour) * intensityFactor * intensityFactor * 100.0
}

// BestRollingPower returns the best average over any window of the given
// length. It reports false when the series is shorter than the window.
func BestRollingPower(perSecond []float64, seconds int) (float64, bool) {
	if seconds <= 0 || len(perSecond) < seconds {
		return 0, false
	}

	sum := 0.0
	for i := 0; i < seconds; i++ {
		sum += perSecond[i]
	}
	best := sum / float64(seconds)
	for i := seconds; i < len(perSecond); i++ {
		sum += perSecond[i] - perSecond[i-seconds]
		if current := sum / float64(seconds); current > best {
			best = current
		}
	}
	return best, true
}

type zoneBoundary struct {
	name     string
	min, max float64
}

var powerZones = []zoneBoundary{
	{name: "Z1 Active Recovery", min: 0, max: 55},
	{name: "Z2 Endurance", min: 55, max: 75},
	{name: "Z3 Tempo", min: 75, max: 90},
	{name: "Z4 Threshold", min: 90, max: 105},
	{name: "Z5 VO2", min: 105, max: 120},
	{name: "Z6 Anaerobic", min: 120, max: 150},
	{name: "Z7 Neuromuscular", min: 150, max: 1000},
}

// PowerZones distributes one-second samples over the seven FTP zones.
func PowerZones(perSecond []float64, ftp float64) []model.PowerZone {
	if ftp <= 0 || len(perSecond) == 0 {
		return nil
	}

	counts := make([]int, len(powerZones))
	total := 0
	for _, p := range perSecond {
		if p < 0 || !isFinite(p) {
			continue
		}
		percent := (p / ftp) * 100.0
		for i, z := range powerZones {
			if percent >= z.min && percent < z.max {
				counts[i]++
				total++
				break
			}
		}
	}
	if total == 0 {
		return nil
	}

	out := make([]model.PowerZone, 0, len(powerZones))
	for i, z := range powerZones {
		seconds := float64(counts[i])
		out = append(out, model.PowerZone{
			Name:       z.name,
			MinPctFTP:  z.min,
			MaxPctFTP:  z.max,
			Seconds:    seconds,
			Percentage: (seconds / float64(total)) * 100.0,
		})
	}
	return out
}

func buildPowerSeries(seg *model.Segment) powerSeries {
	type sample struct {
		ts    time.Time
		power float64
	}
	var rows []sample
	for _, lap := range seg.Laps {
		for _, p := range lap.Points {
			if p.Power == nil || !isFinite(*p.Power) || *p.Power < 0 {
				continue
			}
			rows = append(rows, sample{ts: p.Time, power: *p.Power})
		}
	}

	ps := powerSeries{}
	if len(rows) == 0 {
		return ps
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })

	var (
		lastTS     time.Time
		lastPower  float64
		havePrev   bool
		workJoules float64
	)
	for _, r := range rows {
		ps.samples = append(ps.samples, r.power)
		if havePrev && r.ts.After(lastTS) {
			delta := r.ts.Sub(lastTS).Seconds()
			if delta <= 5 {
				workJoules += lastPower * delta
			}
			missing := int(math.Round(delta)) - 1
			if missing > 0 && missing <= maxFillGapSec {
				for i := 0; i < missing; i++ {
					ps.perSecond = append(ps.perSecond, lastPower)
				}
			}
		}
		if havePrev && !r.ts.After(lastTS) {
			// Duplicate timestamp: keep the first sample of that second.
			continue
		}
		ps.perSecond = append(ps.perSecond, r.power)
		lastTS = r.ts
		lastPower = r.power
		havePrev = true
	}

	first, last := rows[0].ts, rows[len(rows)-1].ts
	if last.After(first) {
		ps.duration = last.Sub(first).Seconds()
	}
	if workJoules == 0 {
		for _, p := range ps.samples {
			workJoules += p
		}
	}
	ps.workKJ = workJoules / 1000.0
	return ps
}

func average(values []float64) float64 {
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	max := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
