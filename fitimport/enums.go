package fitimport

import (
	"strings"

	"github.com/lucasjlepore/fitconvert/model"
)

// FIT sport enum values.
const (
	fitSportGeneric          = 0
	fitSportRunning          = 1
	fitSportCycling          = 2
	fitSportTransition       = 3
	fitSportFitnessEquipment = 4
	fitSportSwimming         = 5
	fitSportTraining         = 10
	fitSportWalking          = 11
	fitSportCrossCountrySki  = 12
	fitSportRowing           = 15
	fitSportHiking           = 17
	fitSportMultisport       = 18
	fitSportPaddling         = 19
	fitSportKayaking         = 41
)

var fitSports = map[int64]model.Sport{
	fitSportGeneric:          model.SportOther,
	fitSportRunning:          model.SportRunning,
	fitSportCycling:          model.SportCycling,
	fitSportFitnessEquipment: model.SportOther,
	fitSportSwimming:         model.SportSwimming,
	fitSportTraining:         model.SportStrength,
	fitSportWalking:          model.SportWalking,
	fitSportCrossCountrySki:  model.SportCrossCountry,
	fitSportRowing:           model.SportRowing,
	fitSportHiking:           model.SportHiking,
	fitSportMultisport:       model.SportMultisport,
	fitSportPaddling:         model.SportPaddling,
	fitSportKayaking:         model.SportPaddling,
}

// sportOf maps a decoded sport value, numeric or named, onto a canonical
// sport. transition is true for the transition sentinel; known is false when
// the value fell back to SportOther.
func sportOf(v any) (sport model.Sport, transition, known bool) {
	if s, ok := v.(string); ok {
		name := strings.ToLower(strings.TrimSpace(s))
		if name == "transition" {
			return "", true, true
		}
		sport, known = model.ParseSport(name)
		return sport, false, known
	}
	n, ok := toFloat(v)
	if !ok {
		return model.SportOther, false, false
	}
	if int64(n) == fitSportTransition {
		return "", true, true
	}
	sport, known = fitSports[int64(n)]
	if !known {
		return model.SportOther, false, false
	}
	return sport, false, true
}

var fitStrokes = map[int64]model.Stroke{
	0: model.StrokeFreestyle,
	1: model.StrokeBackstroke,
	2: model.StrokeBreaststroke,
	3: model.StrokeButterfly,
	4: model.StrokeDrill,
	5: model.StrokeMixed,
	6: model.StrokeMixed, // individual medley
}

func strokeOf(v any) (model.Stroke, bool) {
	if s, ok := v.(string); ok {
		if strings.EqualFold(s, "im") {
			return model.StrokeMixed, true
		}
		return model.ParseStroke(s)
	}
	n, ok := toFloat(v)
	if !ok {
		return model.StrokeUnknown, false
	}
	s, ok := fitStrokes[int64(n)]
	return s, ok
}

// lengthActive reads length_type: 0 idle, 1 active.
func lengthActive(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(x) {
		case "active":
			return true, true
		case "idle", "rest":
			return false, true
		}
		return false, false
	}
	n, ok := toFloat(v)
	if !ok {
		return false, false
	}
	switch int64(n) {
	case 0:
		return false, true
	case 1:
		return true, true
	}
	return false, false
}

var fitIntensities = map[int64]model.Intensity{
	0: model.IntensityActive,
	1: model.IntensityRest,
	2: model.IntensityWarmup,
	3: model.IntensityCooldown,
	4: model.IntensityRecovery,
	5: model.IntensityWork, // interval
	6: model.IntensityActive,
}

var namedIntensities = map[string]model.Intensity{
	"active":   model.IntensityActive,
	"rest":     model.IntensityRest,
	"warmup":   model.IntensityWarmup,
	"cooldown": model.IntensityCooldown,
	"recovery": model.IntensityRecovery,
	"interval": model.IntensityWork,
	"work":     model.IntensityWork,
	"other":    model.IntensityActive,
}

func intensityOf(v any) (model.Intensity, bool) {
	if s, ok := v.(string); ok {
		i, ok := namedIntensities[strings.ToLower(s)]
		return i, ok
	}
	n, ok := toFloat(v)
	if !ok {
		return model.IntensityUnknown, false
	}
	i, ok := fitIntensities[int64(n)]
	return i, ok
}
