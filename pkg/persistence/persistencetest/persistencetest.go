// Package persistencetest holds the behaviour every ExecutionRepository backend must share.
package persistencetest

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) persistence.ExecutionRepository

// NewRecord builds a completed task record suitable for round-trip checks.
func NewRecord(id string, createdAt time.Time) *models.ExecutionRecord {
	started := createdAt.Add(time.Second)
	completed := started.Add(2 * time.Second)

	action := models.NewTaskAction(models.TaskAction{
		Title:    "Inspect scaffold on level 3",
		Assignee: "site.lead@example.com",
		Priority: models.TaskPriorityHigh,
		Labels:   []string{"scaffold", "inspection"},
	})
	action.ProjectID = "tower-a"

	return &models.ExecutionRecord{
		ID:          id,
		Action:      action,
		Status:      models.ExecutionStatusCompleted,
		CreatedAt:   createdAt,
		UpdatedAt:   completed,
		StartedAt:   &started,
		CompletedAt: &completed,
		MaxRetries:  3,
		Progress:    100,
		Warnings:    []string{"Task due date is in the past"},
		Result:      map[string]any{"taskId": "JIRA-42", "status": "created"},
	}
}

// Run exercises the repository contract against the backend built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	created := time.Date(2026, 3, 4, 8, 30, 0, 0, time.UTC)

	t.Run("save and get round trip", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		record := NewRecord("exec-1", created)
		require.NoError(t, repo.Save(ctx, record))

		got, err := repo.Get(ctx, "exec-1")
		require.NoError(t, err)

		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, record.Status, got.Status)
		assert.Equal(t, record.Action.Type, got.Action.Type)
		require.NotNil(t, got.Action.Task)
		assert.Equal(t, record.Action.Task.Title, got.Action.Task.Title)
		assert.Equal(t, record.Action.Task.Labels, got.Action.Task.Labels)
		assert.Equal(t, "tower-a", got.Action.ProjectID)
		assert.True(t, record.CreatedAt.Equal(got.CreatedAt))
		require.NotNil(t, got.CompletedAt)
		assert.True(t, record.CompletedAt.Equal(*got.CompletedAt))
		assert.Equal(t, 100, got.Progress)
		assert.Equal(t, record.Warnings, got.Warnings)
	})

	t.Run("save overwrites", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		record := NewRecord("exec-2", created)
		record.Status = models.ExecutionStatusRunning
		record.Progress = 40
		require.NoError(t, repo.Save(ctx, record))

		record.Status = models.ExecutionStatusFailed
		record.ErrorMessage = "provider unavailable"
		require.NoError(t, repo.Save(ctx, record))

		got, err := repo.Get(ctx, "exec-2")
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusFailed, got.Status)
		assert.Equal(t, "provider unavailable", got.ErrorMessage)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := factory(t)

		_, err := repo.Get(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, persistence.IsExecutionNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		require.NoError(t, repo.Save(ctx, NewRecord("exec-3", created)))
		require.NoError(t, repo.Delete(ctx, "exec-3"))

		_, err := repo.Get(ctx, "exec-3")
		assert.True(t, persistence.IsExecutionNotFound(err))

		err = repo.Delete(ctx, "exec-3")
		assert.True(t, persistence.IsExecutionNotFound(err))
	})

	t.Run("list", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		empty, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for i, id := range []string{"exec-a", "exec-b", "exec-c"} {
			require.NoError(t, repo.Save(ctx, NewRecord(id, created.Add(time.Duration(i)*time.Minute))))
		}

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)

		ids := make([]string, 0, len(all))
		for _, record := range all {
			ids = append(ids, record.ID)
		}

		sort.Strings(ids)
		assert.Equal(t, []string{"exec-a", "exec-b", "exec-c"}, ids)
	})

	t.Run("health check", func(t *testing.T) {
		repo := factory(t)

		assert.NoError(t, repo.HealthCheck(context.Background()))
	})
}
