// ABOUTME: Core data models for track points and run records
// ABOUTME: Provides coordinate validation and the canonical run shape

package models

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ValidateCoordinates checks if latitude and longitude are within valid ranges.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("coordinates cannot be NaN")
	}
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("coordinates cannot be infinite")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// GeoPoint is a single coordinate read from a track file.
type GeoPoint struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Elevation *float64   `json:"elevation,omitempty"`
	Time      *time.Time `json:"time,omitempty"`
}

// NewGeoPoint creates a point without elevation or timestamp.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Latitude: lat, Longitude: lng}
}

// WithElevation returns a copy of p carrying the given elevation.
func (p GeoPoint) WithElevation(ele float64) GeoPoint {
	p.Elevation = &ele
	return p
}

// WithTime returns a copy of p carrying the given timestamp.
func (p GeoPoint) WithTime(t time.Time) GeoPoint {
	p.Time = &t
	return p
}

// HasTime reports whether the point carries a usable timestamp.
func (p GeoPoint) HasTime() bool {
	return p.Time != nil && !p.Time.IsZero()
}

// RunRecord is the canonical client-side shape of a run, independent of
// whichever field names the backend used.
type RunRecord struct {
	ID          string  `json:"id"`
	DistanceKm  float64 `json:"distanceKm"`
	DurationSec int64   `json:"durationSec"`
	StartISO    *string `json:"startIso,omitempty"`
	Filename    *string `json:"filename,omitempty"`
	Pace        *string `json:"pace,omitempty"`
}

// StartTime parses StartISO. The second return is false when the run has no
// start time or it cannot be parsed.
func (r RunRecord) StartTime() (time.Time, bool) {
	if r.StartISO == nil || *r.StartISO == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *r.StartISO); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Raw re-expresses the record as a backend record using the canonical field
// names. Absent optional fields are omitted.
func (r RunRecord) Raw() map[string]any {
	raw := map[string]any{
		"id":          r.ID,
		"distanceKm":  r.DistanceKm,
		"durationSec": r.DurationSec,
	}
	if r.StartISO != nil {
		raw["startIso"] = *r.StartISO
	}
	if r.Filename != nil {
		raw["filename"] = *r.Filename
	}
	if r.Pace != nil {
		raw["pace"] = *r.Pace
	}
	return raw
}

// String returns a short human-readable identifier for logs.
func (r RunRecord) String() string {
	return fmt.Sprintf("run %s (%s km)", r.ID, strconv.FormatFloat(r.DistanceKm, 'f', 2, 64))
}
