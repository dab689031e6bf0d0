package persistence_test

import (
	"errors"
	"testing"

	"github.com/hsetrack/hseflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		t.Parallel()

		err := persistence.NewExecutionError("Get", "exec-123", persistence.ErrExecutionNotFound)

		assert.True(t, persistence.IsExecutionNotFound(err))
		assert.True(t, errors.Is(err, persistence.ErrExecutionNotFound))
		assert.False(t, persistence.IsExecutionNotFound(errors.New("boom")))
	})

	t.Run("execution error contains context", func(t *testing.T) {
		t.Parallel()

		err := persistence.NewExecutionError("Delete", "exec-123", persistence.ErrExecutionNotFound)

		assert.Contains(t, err.Error(), "Delete")
		assert.Contains(t, err.Error(), "exec-123")
		assert.Contains(t, err.Error(), "execution not found")
	})

	t.Run("list error omits id", func(t *testing.T) {
		t.Parallel()

		err := persistence.NewExecutionError("List", "", errors.New("disk gone"))

		assert.Equal(t, "List operation failed: disk gone", err.Error())
	})
}

func TestCheckExecutionID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id    string
		valid bool
	}{
		{id: "0b6f3c5e-3f0a-4d55-9b63-3a8a0f1d2c11", valid: true},
		{id: "exec_1", valid: true},
		{id: "", valid: false},
		{id: "../etc/passwd", valid: false},
		{id: "a/b", valid: false},
		{id: `a\b`, valid: false},
		{id: "index:all", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			err := persistence.CheckExecutionID(tt.id)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, persistence.ErrInvalidExecutionID)
			}
		})
	}
}
