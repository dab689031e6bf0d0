// Package memory provides an in-process ExecutionRepository.
package memory

import (
	"context"
	"sync"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/persistence"
)

// Repository keeps execution records in a map. Stored and returned records are copies.
type Repository struct {
	mu      sync.RWMutex
	records map[string]*models.ExecutionRecord
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{records: make(map[string]*models.ExecutionRecord)}
}

func (r *Repository) Save(_ context.Context, record *models.ExecutionRecord) error {
	if err := persistence.CheckExecutionID(record.ID); err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	r.mu.Lock()
	r.records[record.ID] = record.Clone()
	r.mu.Unlock()

	return nil
}

func (r *Repository) Get(_ context.Context, id string) (*models.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, persistence.NewExecutionError("Get", id, persistence.ErrExecutionNotFound)
	}

	return record.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return persistence.NewExecutionError("Delete", id, persistence.ErrExecutionNotFound)
	}

	delete(r.records, id)

	return nil
}

func (r *Repository) List(_ context.Context) ([]*models.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.ExecutionRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record.Clone())
	}

	return out, nil
}

func (r *Repository) HealthCheck(_ context.Context) error {
	return nil
}

func (r *Repository) Close(_ context.Context) error {
	return nil
}
