// Package geo converts device angle encodings and computes great-circle
// distances.
package geo

import "math"

const (
	semicirclesToDeg = 180.0 / 2147483648.0 // 2^31

	// EarthRadiusMeters is the mean Earth radius used by Haversine.
	EarthRadiusMeters = 6371008.8
)

// SemicirclesToDegrees converts a signed 32-bit semicircle angle to decimal degrees.
func SemicirclesToDegrees(raw int32) float64 {
	return float64(raw) * semicirclesToDeg
}

// ValidLatLon reports whether a coordinate pair lies inside the valid degree range.
func ValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Haversine returns the great-circle distance in meters between two points on
// a sphere of EarthRadiusMeters. It is an approximation: the Earth is not a
// sphere and elevation changes are ignored.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Point is a bare coordinate used by CumulativeDistance.
type Point struct {
	Lat, Lon float64
	Valid    bool
}

// CumulativeDistance returns the running haversine distance at each point.
// Points without a valid position carry the previous cumulative value forward.
func CumulativeDistance(points []Point) []float64 {
	out := make([]float64, len(points))
	var (
		total   float64
		prev    Point
		hasPrev bool
	)
	for i, p := range points {
		if p.Valid {
			if hasPrev {
				total += Haversine(prev.Lat, prev.Lon, p.Lat, p.Lon)
			}
			prev = p
			hasPrev = true
		}
		out[i] = total
	}
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
