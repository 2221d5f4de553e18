// ABOUTME: GeoJSON generation utilities
// ABOUTME: Converts parsed track points to GeoJSON FeatureCollections

package geojson

import (
	"encoding/json"
	"math"
	"time"

	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/track"
)

// FeatureCollection represents a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a GeoJSON Feature.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry represents a GeoJSON Geometry.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Properties holds a feature's free-form attributes.
type Properties map[string]any

// PointCoordinates represents [longitude, latitude] for a Point.
type PointCoordinates [2]float64

// LineCoordinates represents [[lng, lat], [lng, lat], ...] for a LineString.
type LineCoordinates []PointCoordinates

// FromPoints converts points to a FeatureCollection of Points, one per
// point, in document order.
func FromPoints(points []models.GeoPoint, name string) *FeatureCollection {
	features := make([]Feature, 0, len(points))

	for i, p := range points {
		props := Properties{
			"name":  name,
			"index": i,
		}
		if p.Elevation != nil {
			props["elevation"] = *p.Elevation
		}
		if p.HasTime() {
			props["time"] = p.Time.UTC().Format(time.RFC3339)
		}

		features = append(features, newFeature("Point", coordinatesOf(p), props))
	}
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}

// FromTrack converts a parsed track to a FeatureCollection holding a single
// LineString. Tracks with fewer than two points produce no features.
func FromTrack(t *track.ParsedTrack, name string) *FeatureCollection {
	fc := &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}
	if t == nil || len(t.Points) < 2 {
		return fc
	}

	coords := make(LineCoordinates, len(t.Points))
	for i, p := range t.Points {
		coords[i] = coordinatesOf(p)
	}

	fc.Features = append(fc.Features, newFeature("LineString", coords, Properties{
		"name":           name,
		"point_count":    len(t.Points),
		"distance_m":     math.Round(t.DistanceMeters*10) / 10,
		"duration_s":     t.DurationSeconds,
		"contains_track": t.ContainsTrack,
	}))
	return fc
}

func newFeature(geometry string, coords any, props Properties) Feature {
	return Feature{
		Type:       "Feature",
		Geometry:   Geometry{Type: geometry, Coordinates: coords},
		Properties: props,
	}
}

// coordinatesOf returns GeoJSON axis order, longitude first.
func coordinatesOf(p models.GeoPoint) PointCoordinates {
	return PointCoordinates{p.Longitude, p.Latitude}
}

// ToJSON serializes a FeatureCollection to JSON.
func (fc *FeatureCollection) ToJSON() ([]byte, error) {
	return json.Marshal(fc)
}

// ToJSONIndent serializes a FeatureCollection to indented JSON.
func (fc *FeatureCollection) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(fc, "", "  ")
}
