package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_Report(t *testing.T) {
	t.Parallel()

	var seen []int

	progress := NewProgress(func(v int) { seen = append(seen, v) })
	assert.Equal(t, -1, progress.Last())

	for _, v := range []int{-5, 10, 10, 5, 40, 150, 100} {
		progress.Report(v)
	}

	assert.Equal(t, []int{0, 10, 40, 100}, seen)
	assert.Equal(t, 100, progress.Last())
}

func TestProgress_NilFunc(t *testing.T) {
	t.Parallel()

	progress := NewProgress(nil)
	progress.Report(50)
	assert.Equal(t, 50, progress.Last())
}

func TestDependencies_WithDefaults(t *testing.T) {
	t.Parallel()

	deps := Dependencies{}.WithDefaults()

	require.NotNil(t, deps.Logger)
	require.NotNil(t, deps.Clock)
	require.NotNil(t, deps.Deferrer)
	require.NotNil(t, deps.Notifier)

	deps.Deferrer.Defer("noop", time.Second, func(context.Context) error {
		t.Fatal("dropped work must never run")

		return nil
	})
	require.NoError(t, deps.Notifier.Notify(context.Background(), models.ChannelInApp, "a@x.com", "t", "m"))
}
