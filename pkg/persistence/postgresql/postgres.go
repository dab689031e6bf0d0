// Package postgresql provides PostgreSQL persistence for execution records.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/persistence"
	"github.com/hsetrack/hseflow/pkg/persistence/sqlbase"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
)

// Repository implements persistence.ExecutionRepository on a PostgreSQL database.
// Indexed columns mirror the filterable fields; the full snapshot lives in the record column.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository connects to databaseURL and brings the schema up to date.
func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (*Repository, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	err = sqlbase.NewMigrationManager(logger, database, migrations()).RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repository{db: database, logger: logger}, nil
}

// Save upserts the record snapshot.
func (r *Repository) Save(ctx context.Context, record *models.ExecutionRecord) error {
	err := persistence.CheckExecutionID(record.ID)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, fmt.Errorf("failed to marshal record: %w", err))
	}

	query := `
		INSERT INTO executions (
			id, action_type, status, priority, assignee, project_id,
			record, created_at, updated_at, scheduled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			action_type = EXCLUDED.action_type,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			assignee = EXCLUDED.assignee,
			project_id = EXCLUDED.project_id,
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at,
			scheduled_at = EXCLUDED.scheduled_at
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.Action.Type,
		record.Status,
		nullString(string(record.Action.EffectivePriority())),
		nullString(record.Action.Assignee()),
		nullString(record.Action.ProjectID),
		recordJSON,
		record.CreatedAt,
		record.UpdatedAt,
		record.ScheduledAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", record.ID, err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	var recordJSON []byte

	err := r.db.QueryRowContext(ctx, "SELECT record FROM executions WHERE id = $1", id).Scan(&recordJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("Get", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("Get", id, err)
	}

	return decode(id, recordJSON)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM executions WHERE id = $1", id)
	if err != nil {
		return persistence.NewExecutionError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Delete", id, persistence.ErrExecutionNotFound)
	}

	return nil
}

func (r *Repository) List(ctx context.Context) ([]*models.ExecutionRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, record FROM executions ORDER BY created_at DESC")
	if err != nil {
		return nil, persistence.NewExecutionError("List", "", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		var (
			id         string
			recordJSON []byte
		)

		err := rows.Scan(&id, &recordJSON)
		if err != nil {
			return nil, persistence.NewExecutionError("List", "", fmt.Errorf("failed to scan execution row: %w", err))
		}

		record, err := decode(id, recordJSON)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewExecutionError("List", "", err)
	}

	return records, nil
}

// HealthCheck verifies the database connection is healthy.
func (r *Repository) HealthCheck(ctx context.Context) error {
	err := r.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (r *Repository) Close(_ context.Context) error {
	if r.db != nil {
		err := r.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func decode(id string, data []byte) (*models.ExecutionRecord, error) {
	var record models.ExecutionRecord

	err := json.Unmarshal(data, &record)
	if err != nil {
		return nil, persistence.NewExecutionError("Get", id, fmt.Errorf("failed to unmarshal record: %w", err))
	}

	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
