// Package file provides file-based persistence for execution records.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/persistence"
)

const executionsDir = "executions"

// Repository implements persistence.ExecutionRepository with one JSON file per execution.
type Repository struct {
	root string
}

// NewRepository creates a repository rooted at root. A file:// prefix is accepted.
func NewRepository(root string) *Repository {
	return &Repository{root: strings.Replace(root, "file://", "", 1)}
}

func (r *Repository) dir() string {
	return filepath.Join(r.root, executionsDir)
}

func (r *Repository) path(id string) string {
	return filepath.Join(r.dir(), id+".json")
}

// Save writes the record to a temporary file and renames it into place.
func (r *Repository) Save(_ context.Context, record *models.ExecutionRecord) error {
	err := persistence.CheckExecutionID(record.ID)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	err = os.MkdirAll(r.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, fmt.Errorf("failed to marshal record: %w", err))
	}

	tmp, err := os.CreateTemp(r.dir(), record.ID+".*.tmp")
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewExecutionError("Save", record.ID, fmt.Errorf("failed to write record: %w", err))
	}

	err = os.Rename(tmp.Name(), r.path(record.ID))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewExecutionError("Save", record.ID, err)
	}

	return nil
}

func (r *Repository) Get(_ context.Context, id string) (*models.ExecutionRecord, error) {
	err := persistence.CheckExecutionID(id)
	if err != nil {
		return nil, persistence.NewExecutionError("Get", id, err)
	}

	return r.read(id, r.path(id))
}

func (r *Repository) read(id, path string) (*models.ExecutionRecord, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is built from a checked ID
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewExecutionError("Get", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("Get", id, err)
	}

	var record models.ExecutionRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, persistence.NewExecutionError("Get", id, fmt.Errorf("failed to unmarshal record: %w", err))
	}

	return &record, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	err := persistence.CheckExecutionID(id)
	if err != nil {
		return persistence.NewExecutionError("Delete", id, err)
	}

	err = os.Remove(r.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewExecutionError("Delete", id, persistence.ErrExecutionNotFound)
		}

		return persistence.NewExecutionError("Delete", id, err)
	}

	return nil
}

func (r *Repository) List(_ context.Context) ([]*models.ExecutionRecord, error) {
	entries, err := os.ReadDir(r.dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.ExecutionRecord{}, nil
		}

		return nil, persistence.NewExecutionError("List", "", err)
	}

	records := make([]*models.ExecutionRecord, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		record, err := r.read(id, filepath.Join(r.dir(), entry.Name()))
		if err != nil {
			return nil, persistence.NewExecutionError("List", id, err)
		}

		records = append(records, record)
	}

	return records, nil
}

// HealthCheck verifies the root directory exists.
func (r *Repository) HealthCheck(_ context.Context) error {
	info, err := os.Stat(r.root)
	if err != nil {
		return fmt.Errorf("file repository root %s: %w", r.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("file repository root %s is not a directory", r.root)
	}

	return nil
}

// Close is a no-op for file-based persistence.
func (r *Repository) Close(_ context.Context) error {
	return nil
}
