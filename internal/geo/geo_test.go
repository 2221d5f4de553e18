// ABOUTME: Unit tests for great-circle distance
// ABOUTME: Covers symmetry, identity, known distances, and path sums

package geo

import (
	"math"
	"testing"

	"github.com/harper/stride/internal/models"
)

func TestDistance_KnownPair(t *testing.T) {
	// 0.1 degree of latitude along a meridian is ~11.12 km
	a := models.NewGeoPoint(52.0, 5.0)
	b := models.NewGeoPoint(52.1, 5.0)

	d := Distance(a, b)
	if math.Abs(d-11119) > 50 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistance_LongHaul(t *testing.T) {
	// Jakarta to Bandung is roughly 115-120 km
	d := Distance(models.NewGeoPoint(-6.2, 106.816), models.NewGeoPoint(-6.9175, 107.6191))
	if d < 100000 || d > 140000 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]models.GeoPoint{
		{models.NewGeoPoint(41.8781, -87.6298), models.NewGeoPoint(40.7128, -74.0060)},
		{models.NewGeoPoint(-33.8688, 151.2093), models.NewGeoPoint(51.5074, -0.1278)},
		{models.NewGeoPoint(0, 179.9), models.NewGeoPoint(0, -179.9)},
	}
	for _, p := range pairs {
		ab := Distance(p[0], p[1])
		ba := Distance(p[1], p[0])
		if ab != ba {
			t.Errorf("distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestDistance_Identity(t *testing.T) {
	p := models.NewGeoPoint(41.8781, -87.6298)
	if d := Distance(p, p); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
}

func TestDistance_NaNPropagates(t *testing.T) {
	d := Distance(models.NewGeoPoint(math.NaN(), 0), models.NewGeoPoint(0, 0))
	if !math.IsNaN(d) {
		t.Errorf("expected NaN, got %v", d)
	}
}

func TestPathLength(t *testing.T) {
	if got := PathLength(nil); got != 0 {
		t.Errorf("empty path: expected 0, got %v", got)
	}
	if got := PathLength([]models.GeoPoint{models.NewGeoPoint(52, 5)}); got != 0 {
		t.Errorf("single point: expected 0, got %v", got)
	}

	pts := []models.GeoPoint{
		models.NewGeoPoint(52.0, 5.0),
		models.NewGeoPoint(52.1, 5.0),
		models.NewGeoPoint(52.1, 5.1),
	}
	want := Distance(pts[0], pts[1]) + Distance(pts[1], pts[2])
	if got := PathLength(pts); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
