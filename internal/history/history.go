// Package history defines the persistence interface for pipeline run history.
package history

import (
	"context"
	"errors"

	"github.com/hyperjump/datawizard/internal/models"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Store records pipeline runs and the files they produced.
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, rec *models.HistoryRecord) error
	UpdateStatus(ctx context.Context, id string, status models.Status, reasons []string, processingTimeMs int64) error
	GetRun(ctx context.Context, id string) (*models.HistoryRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*models.HistoryRecord, error)

	// Output file operations
	AddArtifact(ctx context.Context, runID string, a models.Artifact) error

	// Stats
	CountRuns(ctx context.Context) (int64, error)
	StatsByKind(ctx context.Context) ([]models.KindCount, error)
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)

	Close() error
}
