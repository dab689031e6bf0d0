// Package persistence provides the storage abstraction for execution records.
package persistence

import (
	"context"

	"github.com/hsetrack/hseflow/pkg/models"
)

// ExecutionRepository stores execution record snapshots.
// Save is an upsert keyed by record ID. List returns records in no particular order.
type ExecutionRepository interface {
	Save(ctx context.Context, record *models.ExecutionRecord) error
	Get(ctx context.Context, id string) (*models.ExecutionRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.ExecutionRecord, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
