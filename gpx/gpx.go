// Package gpx reads and writes GPX 1.1 tracks.
//
// Each <trk> maps to a Segment and each <trkseg> to a Lap. Heart rate,
// cadence, temperature, speed and course travel in the Garmin
// TrackPointExtension; power uses the bare <power> extension element most
// platforms emit.
package gpx

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/lucasjlepore/fitconvert"
	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/geo"
	"github.com/lucasjlepore/fitconvert/model"
)

const (
	nsGPX   = "http://www.topografix.com/GPX/1/1"
	creator = "fitconvert"
)

type document struct {
	XMLName  xml.Name  `xml:"gpx"`
	Xmlns    string    `xml:"xmlns,attr,omitempty"`
	Version  string    `xml:"version,attr"`
	Creator  string    `xml:"creator,attr,omitempty"`
	Metadata *metadata `xml:"metadata,omitempty"`
	Routes   []route   `xml:"rte"`
	Tracks   []track   `xml:"trk"`
}

type metadata struct {
	Name string `xml:"name,omitempty"`
	Desc string `xml:"desc,omitempty"`
	Time string `xml:"time,omitempty"`
}

type route struct {
	Name string `xml:"name,omitempty"`
}

type track struct {
	Name     string     `xml:"name,omitempty"`
	Desc     string     `xml:"desc,omitempty"`
	Type     string     `xml:"type,omitempty"`
	Segments []trackSeg `xml:"trkseg"`
}

type trackSeg struct {
	Points []trackPoint `xml:"trkpt"`
}

type trackPoint struct {
	Lat        float64     `xml:"lat,attr"`
	Lon        float64     `xml:"lon,attr"`
	Ele        *float64    `xml:"ele,omitempty"`
	Time       string      `xml:"time,omitempty"`
	Extensions *extensions `xml:"extensions,omitempty"`
}

type extensions struct {
	TPX   *trackPointExt `xml:"http://www.garmin.com/xmlschemas/TrackPointExtension/v1 TrackPointExtension,omitempty"`
	TPX2  *trackPointExt `xml:"http://www.garmin.com/xmlschemas/TrackPointExtension/v2 TrackPointExtension,omitempty"`
	Power *float64       `xml:"power,omitempty"`
}

type trackPointExt struct {
	ATemp  *float64 `xml:"atemp,omitempty"`
	HR     *float64 `xml:"hr,omitempty"`
	Cad    *float64 `xml:"cad,omitempty"`
	Speed  *float64 `xml:"speed,omitempty"`
	Course *float64 `xml:"course,omitempty"`
}

func (e *extensions) tpx() *trackPointExt {
	if e == nil {
		return nil
	}
	if e.TPX != nil {
		return e.TPX
	}
	return e.TPX2
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

const importOp = "import gpx"

// Import parses a GPX document. Points without a parseable timestamp are
// dropped with a warning; a document with no timed point at all has no start
// time and fails with MissingRequiredField.
func Import(data []byte, opts fitconvert.Options, c *diag.Collector) (*model.Workout, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, diag.Read(importOp, err)
	}
	if len(doc.Tracks) == 0 {
		if len(doc.Routes) > 0 {
			return nil, diag.Unsupported(importOp, "document carries %d routes and no tracks", len(doc.Routes))
		}
		return nil, diag.Invalid(importOp, "gpx.trk", "document has no tracks")
	}
	if len(doc.Routes) > 0 {
		c.Unsupported("gpx.rte", "%d planned routes ignored", len(doc.Routes))
	}

	w := &model.Workout{}
	if doc.Metadata != nil {
		w.Title = doc.Metadata.Name
		w.Notes = doc.Metadata.Desc
	}

	for ti, trk := range doc.Tracks {
		path := fmt.Sprintf("trk[%d]", ti)
		seg := model.Segment{Sport: model.SportOther}
		if trk.Type != "" {
			sport, ok := model.ParseSport(trk.Type)
			if !ok {
				c.Clamped(path+".type", "unknown sport %q mapped to %s", trk.Type, sport)
			}
			seg.Sport = sport
		}
		if w.Title == "" {
			w.Title = trk.Name
		}
		if w.Notes == "" {
			w.Notes = trk.Desc
		}

		var offset float64
		for si, ts := range trk.Segments {
			lap := model.Lap{}
			var run []geo.Point
			for pi, pt := range ts.Points {
				p, ok := importPoint(pt, fmt.Sprintf("%s.trkseg[%d].trkpt[%d]", path, si, pi), c)
				if !ok {
					continue
				}
				w.AddPoint(&lap, p)
				gp := geo.Point{Valid: p.HasPosition()}
				if gp.Valid {
					gp.Lat, gp.Lon = *p.Lat, *p.Lon
				}
				run = append(run, gp)
			}
			if len(lap.Points) == 0 {
				continue
			}
			fillDistance(&lap, run, offset)
			if lap.DistanceMeters != nil {
				offset += *lap.DistanceMeters
			}
			lap.StartTime = lap.Points[0].Time
			lap.DurationSec = lap.Points[len(lap.Points)-1].Time.Sub(lap.StartTime).Seconds()
			seg.Laps = append(seg.Laps, lap)
		}
		if len(seg.Laps) == 0 {
			c.DataQuality(path, "track has no timed points")
			continue
		}
		seg.StartTime = seg.Laps[0].StartTime
		last := seg.Laps[len(seg.Laps)-1]
		seg.DurationSec = last.EndTime().Sub(seg.StartTime).Seconds()
		w.Segments = append(w.Segments, seg)
	}
	if len(w.Segments) == 0 {
		return nil, diag.Missing(importOp, "trk.trkseg.trkpt.time")
	}

	fitconvert.Finish(w, opts, c)
	return w, nil
}

func importPoint(pt trackPoint, path string, c *diag.Collector) (model.TelemetryPoint, bool) {
	t, err := parseTime(pt.Time)
	if err != nil {
		c.MissingField(path+".time", "point dropped: %v", err)
		return model.TelemetryPoint{}, false
	}
	p := model.TelemetryPoint{Time: t, AltitudeM: pt.Ele}
	if geo.ValidLatLon(pt.Lat, pt.Lon) {
		p.Lat, p.Lon = model.Float(pt.Lat), model.Float(pt.Lon)
	} else {
		c.DataQuality(path, "coordinate %.6f,%.6f out of range", pt.Lat, pt.Lon)
	}
	if x := pt.Extensions.tpx(); x != nil {
		p.HeartRate = x.HR
		p.Cadence = x.Cad
		p.TemperatureC = x.ATemp
		p.SpeedMPS = x.Speed
		p.Heading = x.Course
	}
	if pt.Extensions != nil {
		p.Power = pt.Extensions.Power
	}
	return p, true
}

// fillDistance sets cumulative point distances from the haversine run.
// GPX has no native distance field.
func fillDistance(lap *model.Lap, run []geo.Point, offset float64) {
	cum := geo.CumulativeDistance(run)
	if len(cum) == 0 {
		return
	}
	for i := range lap.Points {
		lap.Points[i].DistanceM = model.Float(offset + cum[i])
	}
	lap.DistanceMeters = model.Float(cum[len(cum)-1])
}

const exportOp = "export gpx"

// Export writes w as GPX 1.1. Samples without a position cannot be expressed
// in GPX and are skipped; strength exercises and RPE are dropped.
func Export(w *model.Workout, c *diag.Collector) ([]byte, error) {
	doc := document{
		Xmlns:   nsGPX,
		Version: "1.1",
		Creator: creator,
		Metadata: &metadata{
			Name: w.Title,
			Desc: w.Notes,
		},
	}
	if !w.StartTime.IsZero() {
		doc.Metadata.Time = formatTime(w.StartTime)
	}
	if len(w.Exercises) > 0 {
		c.Unsupported("exercises", "%d strength exercises have no GPX representation", len(w.Exercises))
	}
	if w.RPE != nil {
		c.Unsupported("rpe", "perceived exertion has no GPX representation")
	}

	for si, seg := range w.Segments {
		path := fmt.Sprintf("segments[%d]", si)
		trk := track{Name: w.Title, Type: string(seg.Sport)}
		if seg.Swim != nil {
			c.Unsupported(path+".swim", "pool lengths have no GPX representation")
		}
		for li, lap := range seg.Laps {
			ts := trackSeg{}
			skipped := 0
			for _, p := range lap.Points {
				if !p.HasPosition() {
					skipped++
					continue
				}
				ts.Points = append(ts.Points, exportPoint(p))
			}
			if skipped > 0 {
				c.Skipped(fmt.Sprintf("%s.laps[%d]", path, li), "%d samples without position omitted", skipped)
			}
			if len(ts.Points) > 0 {
				trk.Segments = append(trk.Segments, ts)
			}
		}
		if len(trk.Segments) == 0 {
			c.Skipped(path, "segment has no positioned telemetry")
		}
		doc.Tracks = append(doc.Tracks, trk)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, diag.Serialization(exportOp, err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func exportPoint(p model.TelemetryPoint) trackPoint {
	pt := trackPoint{
		Lat:  *p.Lat,
		Lon:  *p.Lon,
		Ele:  p.AltitudeM,
		Time: formatTime(p.Time),
	}
	ext := &extensions{Power: p.Power}
	if p.HeartRate != nil || p.Cadence != nil || p.TemperatureC != nil || p.SpeedMPS != nil || p.Heading != nil {
		ext.TPX = &trackPointExt{
			ATemp:  p.TemperatureC,
			HR:     p.HeartRate,
			Cad:    p.Cadence,
			Speed:  p.SpeedMPS,
			Course: p.Heading,
		}
	}
	if ext.TPX != nil || ext.Power != nil {
		pt.Extensions = ext
	}
	return pt
}
