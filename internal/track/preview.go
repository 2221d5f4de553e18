// ABOUTME: Human-scale summary of a parsed track
// ABOUTME: Shown before upload and returned by the preview tool

package track

import "math"

// Preview summarizes a parsed track for display.
type Preview struct {
	Points        int     `json:"points"`
	DistanceKm    float64 `json:"distanceKm"`
	DurationMin   *int64  `json:"durationMin,omitempty"`
	ContainsTrack bool    `json:"containsTrack"`
}

// Preview returns the display summary. Distance is rounded to two decimals;
// duration is in whole minutes and absent when no time elapsed.
func (t *ParsedTrack) Preview() Preview {
	p := Preview{
		Points:        len(t.Points),
		DistanceKm:    math.Round(t.DistanceMeters/10) / 100,
		ContainsTrack: t.ContainsTrack,
	}
	if t.DurationSeconds > 0 {
		mins := int64(math.Round(float64(t.DurationSeconds) / 60))
		p.DurationMin = &mins
	}
	return p
}
