package model

import "strings"

// Sport is the canonical sport identifier.
type Sport string

const (
	SportRunning      Sport = "running"
	SportCycling      Sport = "cycling"
	SportSwimming     Sport = "swimming"
	SportWalking      Sport = "walking"
	SportHiking       Sport = "hiking"
	SportRowing       Sport = "rowing"
	SportStrength     Sport = "strength"
	SportCrossCountry Sport = "cross_country_skiing"
	SportPaddling     Sport = "paddling"
	SportMultisport   Sport = "multisport"
	SportOther        Sport = "other"
)

var canonicalSports = map[string]Sport{
	"running":              SportRunning,
	"cycling":              SportCycling,
	"swimming":             SportSwimming,
	"walking":              SportWalking,
	"hiking":               SportHiking,
	"rowing":               SportRowing,
	"strength":             SportStrength,
	"cross_country_skiing": SportCrossCountry,
	"paddling":             SportPaddling,
	"multisport":           SportMultisport,
	"other":                SportOther,
}

// Loose aliases seen in GPX <type> values and PWF documents.
var sportAliases = map[string]Sport{
	"run":               SportRunning,
	"trail_running":     SportRunning,
	"treadmill":         SportRunning,
	"ride":              SportCycling,
	"biking":            SportCycling,
	"bike":              SportCycling,
	"road_biking":       SportCycling,
	"mountain_biking":   SportCycling,
	"virtualride":       SportCycling,
	"swim":              SportSwimming,
	"lap_swimming":      SportSwimming,
	"open_water":        SportSwimming,
	"walk":              SportWalking,
	"hike":              SportHiking,
	"row":               SportRowing,
	"indoor_rowing":     SportRowing,
	"strength_training": SportStrength,
	"weighttraining":    SportStrength,
	"training":          SportStrength,
	"nordicski":         SportCrossCountry,
	"kayaking":          SportPaddling,
	"triathlon":         SportMultisport,
}

// ParseSport maps a free-form sport name onto a canonical Sport, falling back
// to SportOther. The second result is false when the fallback was used.
func ParseSport(name string) (Sport, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if s, ok := canonicalSports[key]; ok {
		return s, true
	}
	if s, ok := sportAliases[key]; ok {
		return s, true
	}
	return SportOther, false
}

// Stroke is a swimming stroke type.
type Stroke string

const (
	StrokeFreestyle    Stroke = "freestyle"
	StrokeBackstroke   Stroke = "backstroke"
	StrokeBreaststroke Stroke = "breaststroke"
	StrokeButterfly    Stroke = "butterfly"
	StrokeDrill        Stroke = "drill"
	StrokeMixed        Stroke = "mixed"
	StrokeUnknown      Stroke = ""
)

var strokes = map[string]Stroke{
	"freestyle":    StrokeFreestyle,
	"backstroke":   StrokeBackstroke,
	"breaststroke": StrokeBreaststroke,
	"butterfly":    StrokeButterfly,
	"drill":        StrokeDrill,
	"mixed":        StrokeMixed,
}

// ParseStroke maps a stroke name onto a Stroke.
func ParseStroke(name string) (Stroke, bool) {
	s, ok := strokes[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}
