// ABOUTME: Great-circle distance calculations
// ABOUTME: Haversine formula over a fixed spherical Earth radius

package geo

import (
	"math"

	"github.com/harper/stride/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used for all distances.
const EarthRadiusMeters = 6371000.0

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the haversine distance in meters between a and b.
// NaN coordinates propagate to the result.
func Distance(a, b models.GeoPoint) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	la1 := toRad(a.Latitude)
	la2 := toRad(b.Latitude)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(la1)*math.Cos(la2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLength sums Distance over every consecutive pair in points.
// Fewer than two points yield 0.
func PathLength(points []models.GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
