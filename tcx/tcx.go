// Package tcx reads and writes Garmin Training Center XML (TCX v2).
//
// An Activity maps to a Segment, a Lap to a Lap and a Trackpoint to a
// TelemetryPoint. Power, speed and run cadence use the ActivityExtension/v2
// TPX and LX elements because the base schema has no field for them.
package tcx

import (
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lucasjlepore/fitconvert/model"
)

const (
	nsTCD = "http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2"
	nsXSI = "http://www.w3.org/2001/XMLSchema-instance"
)

type database struct {
	XMLName    xml.Name   `xml:"TrainingCenterDatabase"`
	Xmlns      string     `xml:"xmlns,attr,omitempty"`
	XmlnsXSI   string     `xml:"xmlns:xsi,attr,omitempty"`
	Activities activities `xml:"Activities"`
}

type activities struct {
	Activities []activity      `xml:"Activity"`
	MultiSport []multiSportRaw `xml:"MultiSportSession"`
}

type multiSportRaw struct {
	ID string `xml:"Id"`
}

type activity struct {
	Sport   string   `xml:"Sport,attr"`
	ID      string   `xml:"Id"`
	Laps    []lap    `xml:"Lap"`
	Notes   string   `xml:"Notes,omitempty"`
	Creator *creator `xml:"Creator,omitempty"`
}

type creator struct {
	XSIType   string   `xml:"xsi:type,attr,omitempty"`
	Name      string   `xml:"Name"`
	UnitID    *uint32  `xml:"UnitId,omitempty"`
	ProductID *uint16  `xml:"ProductID,omitempty"`
	Version   *version `xml:"Version,omitempty"`
}

type version struct {
	Major int `xml:"VersionMajor"`
	Minor int `xml:"VersionMinor"`
}

type lap struct {
	StartTime        string         `xml:"StartTime,attr"`
	TotalTimeSeconds float64        `xml:"TotalTimeSeconds"`
	DistanceMeters   *float64       `xml:"DistanceMeters"`
	MaximumSpeed     *float64       `xml:"MaximumSpeed,omitempty"`
	Calories         *int           `xml:"Calories"`
	AvgHeartRate     *bpm           `xml:"AverageHeartRateBpm,omitempty"`
	MaxHeartRate     *bpm           `xml:"MaximumHeartRateBpm,omitempty"`
	Intensity        string         `xml:"Intensity"`
	Cadence          *float64       `xml:"Cadence,omitempty"`
	TriggerMethod    string         `xml:"TriggerMethod"`
	Tracks           []trackElem    `xml:"Track"`
	Extensions       *lapExtensions `xml:"Extensions,omitempty"`
}

type bpm struct {
	Value float64 `xml:"Value"`
}

type trackElem struct {
	Points []trackpoint `xml:"Trackpoint"`
}

type trackpoint struct {
	Time           string        `xml:"Time"`
	Position       *position     `xml:"Position,omitempty"`
	AltitudeMeters *float64      `xml:"AltitudeMeters,omitempty"`
	DistanceMeters *float64      `xml:"DistanceMeters,omitempty"`
	HeartRate      *bpm          `xml:"HeartRateBpm,omitempty"`
	Cadence        *float64      `xml:"Cadence,omitempty"`
	Extensions     *tpExtensions `xml:"Extensions,omitempty"`
}

type position struct {
	Lat float64 `xml:"LatitudeDegrees"`
	Lon float64 `xml:"LongitudeDegrees"`
}

type tpExtensions struct {
	TPX *tpx `xml:"http://www.garmin.com/xmlschemas/ActivityExtension/v2 TPX,omitempty"`
}

type tpx struct {
	Speed      *float64 `xml:"Speed,omitempty"`
	RunCadence *float64 `xml:"RunCadence,omitempty"`
	Watts      *float64 `xml:"Watts,omitempty"`
}

type lapExtensions struct {
	LX *lx `xml:"http://www.garmin.com/xmlschemas/ActivityExtension/v2 LX,omitempty"`
}

type lx struct {
	AvgSpeed      *float64 `xml:"AvgSpeed,omitempty"`
	AvgRunCadence *float64 `xml:"AvgRunCadence,omitempty"`
	AvgWatts      *float64 `xml:"AvgWatts,omitempty"`
	MaxWatts      *float64 `xml:"MaxWatts,omitempty"`
}

const (
	intensityActive  = "Active"
	intensityResting = "Resting"
	triggerManual    = "Manual"
)

// TCX only knows three sports.
var sportsByName = map[string]model.Sport{
	"Running": model.SportRunning,
	"Biking":  model.SportCycling,
	"Other":   model.SportOther,
}

func sportName(s model.Sport) (string, bool) {
	switch s {
	case model.SportRunning:
		return "Running", true
	case model.SportCycling:
		return "Biking", true
	case model.SportOther:
		return "Other", true
	default:
		return "Other", false
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.000"}

// parseTime accepts RFC 3339 and the zone-less form some exporters write;
// the latter is read as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func rounded(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(math.Round(*v))
}

func bpmOf(v *float64) *bpm {
	if v == nil || *v < 1 {
		return nil
	}
	return &bpm{Value: math.Round(*v)}
}

func bpmValue(b *bpm) *float64 {
	if b == nil || b.Value <= 0 {
		return nil
	}
	return model.Float(b.Value)
}
