package fitconvert

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasjlepore/fitconvert/model"
)

// Describe renders a short human-readable summary of a workout.
func Describe(w *model.Workout) string {
	if w == nil {
		return ""
	}

	var b strings.Builder

	title := w.Title
	if title == "" {
		title = string(w.Sport)
	}
	fmt.Fprintf(&b, "Workout: %s (%s)\n", title, w.Sport)
	if !w.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", w.StartTime.UTC().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Duration %s | Segments %d | Points %d\n",
		formatDuration(w.DurationSec), len(w.Segments), w.PointCount())
	if w.Device != nil && (w.Device.Manufacturer != "" || w.Device.Product != "") {
		fmt.Fprintf(&b, "Device: %s\n", strings.TrimSpace(w.Device.Manufacturer+" "+w.Device.Product))
	}
	if w.Bounds.Valid {
		fmt.Fprintf(&b, "Bounds: %.5f,%.5f to %.5f,%.5f\n",
			w.Bounds.MinLat, w.Bounds.MinLon, w.Bounds.MaxLat, w.Bounds.MaxLon)
	}

	for i, seg := range w.Segments {
		fmt.Fprintf(&b, "\nSegment %d: %s, %s, %d laps\n", i+1, seg.Sport, formatDuration(seg.DurationSec), len(seg.Laps))
		if seg.DistanceMeters != nil {
			fmt.Fprintf(&b, "- Distance %.2f km\n", *seg.DistanceMeters/1000.0)
		}
		if seg.AvgHeartRate != nil {
			fmt.Fprintf(&b, "- HR %.0f avg / %.0f max bpm\n", *seg.AvgHeartRate, orZero(seg.MaxHeartRate))
		}
		if pm := seg.Power; pm != nil {
			fmt.Fprintf(&b, "- Power %.0f avg / %s NP / %.0f max W | Work %.0f kJ\n",
				pm.AvgPower, optional(pm.NormalizedPower, "%.0f"), pm.MaxPower, pm.WorkKJ)
			if pm.FTP != nil {
				fmt.Fprintf(&b, "- Load IF %s | TSS %s | FTP %.0f W (%s)\n",
					optional(pm.IntensityFactor, "%.2f"), optional(pm.TrainingStress, "%.0f"), *pm.FTP, pm.FTPSource)
			} else {
				b.WriteString("- Load IF/TSS unavailable (no FTP)\n")
			}
			for _, z := range pm.Zones {
				if z.Seconds <= 0 {
					continue
				}
				fmt.Fprintf(&b, "  %s: %s (%.1f%%)\n", z.Name, formatDuration(z.Seconds), z.Percentage)
			}
		}
		if sw := seg.Swim; sw != nil {
			fmt.Fprintf(&b, "- Pool %s | %d active / %d rest lengths | SWOLF %s\n",
				sw.PoolLength, sw.ActiveLengths, sw.RestLengths, optional(sw.AvgSWOLF, "%.1f"))
		}
	}
	for i, t := range w.Transitions {
		fmt.Fprintf(&b, "\nTransition %d: %s\n", i+1, formatDuration(t.DurationSec))
	}
	if len(w.Exercises) > 0 {
		b.WriteString("\nExercises\n")
		for _, ex := range w.Exercises {
			fmt.Fprintf(&b, "- %s: %d sets\n", ex.Name, len(ex.Sets))
		}
	}

	return strings.TrimSpace(b.String())
}

func optional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
