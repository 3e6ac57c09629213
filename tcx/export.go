package tcx

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

const exportOp = "export tcx"

// Export writes w as TCX. Each segment becomes one Activity since a TCX
// activity has a single sport. Strength exercises, RPE, pool lengths,
// temperature and heading have no TCX element and are dropped with a warning.
func Export(w *model.Workout, c *diag.Collector) ([]byte, error) {
	doc := database{Xmlns: nsTCD, XmlnsXSI: nsXSI}

	if w.Title != "" {
		c.Unsupported("title", "TCX activities carry no title")
	}
	if len(w.Exercises) > 0 {
		c.Unsupported("exercises", "%d strength exercises have no TCX representation", len(w.Exercises))
	}
	if w.RPE != nil {
		c.Unsupported("rpe", "perceived exertion has no TCX representation")
	}

	var dropped struct{ temperature, heading bool }
	for si, seg := range w.Segments {
		path := fmt.Sprintf("segments[%d]", si)
		name, ok := sportName(seg.Sport)
		if !ok {
			c.Clamped(path+".sport", "sport %s exported as %s", seg.Sport, name)
		}
		if seg.Swim != nil {
			c.Unsupported(path+".swim", "pool lengths have no TCX representation")
		}

		start := seg.StartTime
		if start.IsZero() {
			start = w.StartTime
		}
		act := activity{Sport: name, ID: formatTime(start)}
		if si == 0 {
			act.Notes = w.Notes
			act.Creator = exportCreator(w.Device)
		}

		running := seg.Sport == model.SportRunning
		for _, l := range seg.Laps {
			el := exportLap(l, running)
			if len(l.Points) > 0 {
				trk := trackElem{}
				for _, p := range l.Points {
					if p.TemperatureC != nil {
						dropped.temperature = true
					}
					if p.Heading != nil {
						dropped.heading = true
					}
					trk.Points = append(trk.Points, exportPoint(p, running))
				}
				el.Tracks = []trackElem{trk}
			}
			act.Laps = append(act.Laps, el)
		}
		doc.Activities.Activities = append(doc.Activities.Activities, act)
	}
	if dropped.temperature {
		c.Unsupported("points.temperature", "temperature samples have no TCX element")
	}
	if dropped.heading {
		c.Unsupported("points.heading", "heading samples have no TCX element")
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, diag.Serialization(exportOp, err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func exportLap(l model.Lap, running bool) lap {
	el := lap{
		StartTime:        formatTime(l.StartTime),
		TotalTimeSeconds: l.DurationSec,
		DistanceMeters:   l.DistanceMeters,
		Calories:         l.Calories,
		AvgHeartRate:     bpmOf(l.AvgHeartRate),
		MaxHeartRate:     bpmOf(l.MaxHeartRate),
		Intensity:        intensityActive,
		TriggerMethod:    triggerManual,
	}
	if el.DistanceMeters == nil {
		el.DistanceMeters = model.Float(0)
	}
	if el.Calories == nil {
		el.Calories = model.Int(0)
	}
	if l.Intensity.Resting() {
		el.Intensity = intensityResting
	}

	x := &lx{AvgWatts: rounded(l.AvgPower), MaxWatts: rounded(l.MaxPower)}
	if running {
		x.AvgRunCadence = rounded(l.AvgCadence)
	} else {
		el.Cadence = rounded(l.AvgCadence)
	}
	if x.AvgWatts != nil || x.MaxWatts != nil || x.AvgRunCadence != nil {
		el.Extensions = &lapExtensions{LX: x}
	}
	return el
}

func exportPoint(p model.TelemetryPoint, running bool) trackpoint {
	tp := trackpoint{
		Time:           formatTime(p.Time),
		AltitudeMeters: p.AltitudeM,
		DistanceMeters: p.DistanceM,
		HeartRate:      bpmOf(p.HeartRate),
	}
	if p.HasPosition() {
		tp.Position = &position{Lat: *p.Lat, Lon: *p.Lon}
	}
	x := &tpx{Speed: p.SpeedMPS, Watts: rounded(p.Power)}
	if running {
		x.RunCadence = rounded(p.Cadence)
	} else {
		tp.Cadence = rounded(p.Cadence)
	}
	if x.Speed != nil || x.Watts != nil || x.RunCadence != nil {
		tp.Extensions = &tpExtensions{TPX: x}
	}
	return tp
}

func exportCreator(d *model.Device) *creator {
	if d == nil || (d.Product == "" && d.Manufacturer == "") {
		return nil
	}
	name := strings.TrimSpace(d.Manufacturer + " " + d.Product)
	if d.Product != "" {
		name = d.Product
	}
	cr := &creator{XSIType: "Device_t", Name: name, ProductID: new(uint16), Version: &version{}}
	if id, err := strconv.ParseUint(d.SerialNumber, 10, 32); err == nil {
		u := uint32(id)
		cr.UnitID = &u
	} else {
		cr.UnitID = new(uint32)
	}
	if d.Firmware != "" {
		major, minor, _ := strings.Cut(d.Firmware, ".")
		cr.Version.Major, _ = strconv.Atoi(major)
		cr.Version.Minor, _ = strconv.Atoi(minor)
	}
	return cr
}
