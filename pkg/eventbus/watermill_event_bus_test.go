package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/hsetrack/hseflow/pkg/channels/gochannel"
	"github.com/hsetrack/hseflow/pkg/events"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	received := make(chan *events.ExecutionEvent, 1)

	require.NoError(t, bus.Handle(events.ExecutionCompleted, func(_ context.Context, event *events.ExecutionEvent) error {
		received <- event

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	record := &models.ExecutionRecord{ID: "exec-1", Status: models.ExecutionStatusCompleted, Progress: 100}
	require.NoError(t, bus.Publish(ctx, record.ID, events.NewExecutionEvent(events.ExecutionCompleted, record, time.Now())))

	select {
	case event := <-received:
		assert.Equal(t, events.ExecutionCompleted, event.Type)
		assert.Equal(t, "exec-1", event.Execution.ID)
		assert.Equal(t, 100, event.Execution.Progress)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_WildcardHandler(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	received := make(chan events.EventType, 2)

	require.NoError(t, bus.Handle(events.AllEvents, func(_ context.Context, event *events.ExecutionEvent) error {
		received <- event.Type

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	record := &models.ExecutionRecord{ID: "exec-2"}
	require.NoError(t, bus.Publish(ctx, record.ID, events.NewExecutionEvent(events.ExecutionCreated, record, time.Now())))

	select {
	case eventType := <-received:
		assert.Equal(t, events.ExecutionCreated, eventType)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ Event) error {
	p.keys = append(p.keys, key)

	return p.err
}

func TestForward(t *testing.T) {
	t.Parallel()

	source := events.NewBus(nil)
	publisher := &recordingPublisher{}

	sub := Forward(source, publisher)

	source.Emit(context.Background(), events.NewExecutionEvent(events.ExecutionStarted, &models.ExecutionRecord{ID: "exec-3"}, time.Now()))
	source.Emit(context.Background(), events.NewExecutionEvent(events.ExecutionProgress, &models.ExecutionRecord{ID: "exec-3"}, time.Now()))
	assert.Equal(t, []string{"exec-3", "exec-3"}, publisher.keys)

	publisher.err = errors.New("broker down")

	require.NotPanics(t, func() {
		source.Emit(context.Background(), events.NewExecutionEvent(events.ExecutionFailed, &models.ExecutionRecord{ID: "exec-4"}, time.Now()))
	})

	assert.True(t, source.Off(sub))
}
