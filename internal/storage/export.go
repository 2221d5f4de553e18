// ABOUTME: Export and import functionality for cached runs
// ABOUTME: Supports YAML backup format and markdown export

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/stats"
	"gopkg.in/yaml.v3"
)

// BackupVersion is the current backup format version.
const BackupVersion = "1.0"

// BackupTool identifies backups written by this tool.
const BackupTool = "stride"

// Backup represents the YAML backup format.
type Backup struct {
	Version    string      `yaml:"version"`
	ExportedAt time.Time   `yaml:"exported_at"`
	Tool       string      `yaml:"tool"`
	Runs       []RunBackup `yaml:"runs"`
}

// RunBackup represents a run in the backup format.
type RunBackup struct {
	ID          string  `yaml:"id"`
	DistanceKm  float64 `yaml:"distance_km"`
	DurationSec int64   `yaml:"duration_sec"`
	StartISO    string  `yaml:"start_iso,omitempty"`
	Filename    string  `yaml:"filename,omitempty"`
	Pace        string  `yaml:"pace,omitempty"`
}

// ExportToYAML exports all cached runs to YAML format.
func ExportToYAML(repo Repository) ([]byte, error) {
	runs, err := repo.ListRuns()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	backup := Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       BackupTool,
		Runs:       make([]RunBackup, len(runs)),
	}

	for i, r := range runs {
		backup.Runs[i] = RunBackup{
			ID:          r.ID,
			DistanceKm:  r.DistanceKm,
			DurationSec: r.DurationSec,
			StartISO:    deref(r.StartISO),
			Filename:    deref(r.Filename),
			Pace:        deref(r.Pace),
		}
	}

	return yaml.Marshal(backup)
}

// ImportFromYAML merges a YAML backup into the cache. Runs already cached
// under the same id are overwritten in place; new runs are appended in backup
// order. It returns the number of runs read from the backup.
func ImportFromYAML(repo Repository, data []byte) (int, error) {
	var backup Backup
	if err := yaml.Unmarshal(data, &backup); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}

	if backup.Version != BackupVersion {
		return 0, fmt.Errorf("unsupported backup version: %s (expected %s)", backup.Version, BackupVersion)
	}

	if backup.Tool != BackupTool {
		return 0, fmt.Errorf("wrong tool: %s (expected %s)", backup.Tool, BackupTool)
	}

	existing, err := repo.ListRuns()
	if err != nil {
		return 0, fmt.Errorf("list runs: %w", err)
	}

	index := make(map[string]int, len(existing))
	for i, r := range existing {
		index[r.ID] = i
	}

	merged := existing
	for _, rb := range backup.Runs {
		if rb.ID == "" {
			return 0, fmt.Errorf("run without id in backup")
		}
		r := models.RunRecord{
			ID:          rb.ID,
			DistanceKm:  rb.DistanceKm,
			DurationSec: rb.DurationSec,
			StartISO:    optional(rb.StartISO),
			Filename:    optional(rb.Filename),
			Pace:        optional(rb.Pace),
		}
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			continue
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}

	if err := repo.ReplaceRuns(merged); err != nil {
		return 0, fmt.Errorf("store runs: %w", err)
	}
	return len(backup.Runs), nil
}

// ExportToMarkdown renders the cached runs as a markdown table.
func ExportToMarkdown(repo Repository) ([]byte, error) {
	runs, err := repo.ListRuns()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var sb strings.Builder

	now := time.Now().UTC()
	sb.WriteString(fmt.Sprintf("# Run Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(runs) == 0 {
		sb.WriteString("No runs cached.\n")
		return []byte(sb.String()), nil
	}

	sb.WriteString("| Date | Title | Distance | Duration | Pace |\n")
	sb.WriteString("|------|-------|----------|----------|------|\n")

	for _, r := range runs {
		date := "-"
		if start, ok := r.StartTime(); ok {
			date = start.Format("2006-01-02 15:04")
		}
		pace := "-"
		if r.Pace != nil && *r.Pace != "" {
			pace = *r.Pace
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %.2f km | %s | %s |\n",
			date, stats.DefaultTitle(r), r.DistanceKm, stats.FormatDuration(r.DurationSec), pace))
	}

	summary := stats.Summarize(runs)
	sb.WriteString(fmt.Sprintf("\n**Total:** %d runs, %.2f km, %s, average pace %s\n",
		summary.Runs, summary.TotalDistanceKm, stats.FormatDuration(summary.TotalDurationSec), summary.AveragePace))

	return []byte(sb.String()), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
