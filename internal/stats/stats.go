// ABOUTME: Aggregate statistics over run records
// ABOUTME: Totals, average pace, duration formatting, and a distance-over-time series

package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/harper/stride/internal/models"
)

// Summary holds totals across a set of runs.
type Summary struct {
	Runs             int     `json:"runs"`
	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalDurationSec int64   `json:"totalDurationSec"`
	AveragePace      string  `json:"averagePace"`
}

// Point is one sample of the distance chart.
type Point struct {
	Start      time.Time `json:"start"`
	DistanceKm float64   `json:"distanceKm"`
}

// Summarize totals distance and duration across runs.
func Summarize(runs []models.RunRecord) Summary {
	s := Summary{Runs: len(runs)}
	for _, r := range runs {
		if isFinite(r.DistanceKm) {
			s.TotalDistanceKm += r.DistanceKm
		}
		if r.DurationSec > 0 {
			s.TotalDurationSec += r.DurationSec
		}
	}
	s.AveragePace = FormatPace(s.TotalDurationSec, s.TotalDistanceKm)
	return s
}

// FormatPace renders seconds per kilometre as "m:ss /km", or "-" when there
// is no distance to divide by.
func FormatPace(durationSec int64, distanceKm float64) string {
	if distanceKm <= 0 || !isFinite(distanceKm) {
		return "-"
	}
	total := int64(math.Round(float64(durationSec) / distanceKm))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d /km", total/60, total%60)
}

// FormatDuration renders seconds as "Xhr Ym Zs". Negative input renders as zero.
func FormatDuration(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%dhr %dm %ds", sec/3600, (sec%3600)/60, sec%60)
}

// Series returns (start, distance) samples sorted by start time. Runs without a
// parseable start are skipped.
func Series(runs []models.RunRecord) []Point {
	points := make([]Point, 0, len(runs))
	for _, r := range runs {
		start, ok := r.StartTime()
		if !ok || !isFinite(r.DistanceKm) {
			continue
		}
		points = append(points, Point{Start: start, DistanceKm: r.DistanceKm})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Start.Before(points[j].Start)
	})
	return points
}

// DefaultTitle names a run by the hour it started, read at the offset the
// start timestamp was recorded with.
func DefaultTitle(r models.RunRecord) string {
	start, ok := r.StartTime()
	if !ok {
		return "Run"
	}
	switch h := start.Hour(); {
	case h < 12:
		return "Morning run"
	case h < 18:
		return "Afternoon run"
	default:
		return "Evening run"
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
