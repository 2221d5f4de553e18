// ABOUTME: Repository interface for the local run cache
// ABOUTME: Enables testability and keeps callers independent of SQLite

package storage

import (
	"time"

	"github.com/harper/stride/internal/models"
)

// RunRepository holds the last known run collection in display order.
type RunRepository interface {
	ReplaceRuns(runs []models.RunRecord) error
	ListRuns() ([]models.RunRecord, error)
	GetRun(id string) (*models.RunRecord, error)
	MarkSynced(at time.Time) error
	LastSynced() (time.Time, error)
}

// Repository combines run operations with lifecycle management.
type Repository interface {
	RunRepository
	Close() error
	Reset() error
}
