// ABOUTME: Terminal UI formatting utilities
// ABOUTME: Provides human-readable output for runs, track previews, and totals

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/stats"
	"github.com/harper/stride/internal/track"
)

// FormatRun formats a run for list display.
func FormatRun(r models.RunRecord) string {
	var sb strings.Builder

	sb.WriteString(color.GreenString(stats.DefaultTitle(r)))
	if start, ok := r.StartTime(); ok {
		sb.WriteString(" " + color.New(color.Faint).Sprint(start.Format("Jan 2, 3:04 PM")))
	}
	sb.WriteString(color.New(color.Faint).Sprintf("  [%s]", r.ID))
	sb.WriteString("\n")

	pace := "-"
	if r.Pace != nil && *r.Pace != "" {
		pace = *r.Pace
	}
	sb.WriteString(fmt.Sprintf("  %s km  %s  pace %s",
		color.CyanString("%.2f", r.DistanceKm),
		stats.FormatDuration(r.DurationSec),
		pace))

	if r.Filename != nil && *r.Filename != "" {
		sb.WriteString("  " + color.New(color.Faint).Sprint(*r.Filename))
	}
	return sb.String()
}

// FormatPreview formats a track preview on one line.
func FormatPreview(p track.Preview) string {
	parts := []string{
		fmt.Sprintf("%d points", p.Points),
		fmt.Sprintf("%.2f km", p.DistanceKm),
	}
	if p.DurationMin != nil {
		parts = append(parts, fmt.Sprintf("%d min", *p.DurationMin))
	}
	if p.ContainsTrack {
		parts = append(parts, color.GreenString("contains track"))
	} else {
		parts = append(parts, color.YellowString("waypoints detected"))
	}
	return strings.Join(parts, " • ")
}

// FormatSummary formats run totals.
func FormatSummary(s stats.Summary) string {
	label := color.New(color.Faint).SprintFunc()
	return fmt.Sprintf("%s %d\n%s %s km\n%s %s\n%s %s",
		label("Runs:          "), s.Runs,
		label("Total distance:"), color.CyanString("%.2f", s.TotalDistanceKm),
		label("Total time:    "), stats.FormatDuration(s.TotalDurationSec),
		label("Average pace:  "), s.AveragePace)
}

// FormatSeries renders the distance series as a simple bar chart, one line per run.
func FormatSeries(points []stats.Point, width int) string {
	if len(points) == 0 {
		return color.New(color.Faint).Sprint("(no dated runs)")
	}
	if width < 1 {
		width = 40
	}

	var longest float64
	for _, p := range points {
		if p.DistanceKm > longest {
			longest = p.DistanceKm
		}
	}

	var sb strings.Builder
	for i, p := range points {
		n := 0
		if longest > 0 && p.DistanceKm > 0 {
			n = int(p.DistanceKm / longest * float64(width))
			if n == 0 {
				n = 1
			}
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s %s %.2f",
			p.Start.Format("Jan 02"),
			color.CyanString(strings.Repeat("█", n)),
			p.DistanceKm))
	}
	return sb.String()
}

// FormatRelativeTime formats a time as relative to now.
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(diff.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
