package document

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hsetrack/hseflow/pkg/log"
	"github.com/hsetrack/hseflow/pkg/mocks"
	"github.com/hsetrack/hseflow/pkg/models"
	"github.com/hsetrack/hseflow/pkg/protocol"
	"github.com/hsetrack/hseflow/pkg/scheduler"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExecutorFactory(t *testing.T) {
	t.Parallel()

	factory := NewExecutorFactory()
	assert.Equal(t, models.ActionTypeDocument, factory.ID())

	executor, err := factory.Create(models.ProviderConfig{Provider: models.DocumentProviderGoogleDrive}, protocol.Dependencies{})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), models.NewDocumentAction(models.DocumentAction{
		DocumentID: "RAMS-1",
		Operation:  models.DocumentCreate,
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, "created", result.(models.DocumentResult).Status)
}

func TestExecutor_NotifiesParticipants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		document  models.DocumentAction
		notified  int32
		titleLike string
	}{
		{
			name:      "review notifies reviewers",
			document:  models.DocumentAction{DocumentID: "RAMS-2", Operation: models.DocumentReview, Reviewers: []string{"r1@x.com", "r2@x.com"}},
			notified:  2,
			titleLike: "Review requested: RAMS-2",
		},
		{
			name:      "approve notifies approvers",
			document:  models.DocumentAction{DocumentID: "RAMS-3", Operation: models.DocumentApprove, Approvers: []string{"boss@x.com"}},
			notified:  1,
			titleLike: "Approval requested: RAMS-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := clockwork.NewFakeClock()
			timers := scheduler.NewTimers(clock, log.Discard())

			store := &mocks.MockDocumentProvider{}
			store.On("Apply", mock.Anything, tt.document).Return(models.DocumentResult{
				DocumentID: tt.document.DocumentID,
				Operation:  tt.document.Operation,
				Version:    "1.0",
			}, nil)

			var calls atomic.Int32

			notifier := &mocks.MockNotificationSender{}
			notifier.On("Notify", mock.Anything, models.ChannelEmail, mock.Anything, tt.titleLike, mock.Anything).
				Run(func(mock.Arguments) { calls.Add(1) }).
				Return(nil)

			executor := NewExecutor(store, protocol.Dependencies{
				Logger:               log.Discard(),
				Clock:                clock,
				Deferrer:             timers,
				Notifier:             notifier,
				NotificationsEnabled: true,
			})

			var progress []int

			_, err := executor.Execute(context.Background(), models.NewDocumentAction(tt.document), func(v int) {
				progress = append(progress, v)
			})
			require.NoError(t, err)
			assert.Equal(t, []int{15, 75, 90}, progress)

			clock.Advance(0)
			require.Eventually(t, func() bool { return calls.Load() == tt.notified }, time.Second, 5*time.Millisecond)
		})
	}
}

func TestExecutor_NotificationFailureIsSecondary(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	timers := scheduler.NewTimers(clock, log.Discard())
	document := models.DocumentAction{DocumentID: "RAMS-4", Operation: models.DocumentReview, Reviewers: []string{"r@x.com"}}

	store := &mocks.MockDocumentProvider{}
	store.On("Apply", mock.Anything, document).Return(models.DocumentResult{Status: "in_review"}, nil)

	notifier := &mocks.MockNotificationSender{}
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	result, err := NewExecutor(store, protocol.Dependencies{
		Logger:               log.Discard(),
		Clock:                clock,
		Deferrer:             timers,
		Notifier:             notifier,
		NotificationsEnabled: true,
	}).Execute(context.Background(), models.NewDocumentAction(document), nil)
	require.NoError(t, err)
	assert.Equal(t, "in_review", result.(models.DocumentResult).Status)
}

func TestExecutor_NoNotificationsWhenDisabled(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	timers := scheduler.NewTimers(clock, log.Discard())
	document := models.DocumentAction{DocumentID: "RAMS-5", Operation: models.DocumentApprove, Approvers: []string{"a@x.com"}}

	store := &mocks.MockDocumentProvider{}
	store.On("Apply", mock.Anything, document).Return(models.DocumentResult{Status: "approved"}, nil)

	_, err := NewExecutor(store, protocol.Dependencies{Logger: log.Discard(), Clock: clock, Deferrer: timers}).
		Execute(context.Background(), models.NewDocumentAction(document), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, timers.Pending())
}

func TestExecutor_ProviderError(t *testing.T) {
	t.Parallel()

	store := &mocks.MockDocumentProvider{}
	store.On("Apply", mock.Anything, mock.Anything).Return(models.DocumentResult{}, errors.New("locked"))

	_, err := NewExecutor(store, protocol.Dependencies{Logger: log.Discard()}).Execute(context.Background(),
		models.NewDocumentAction(models.DocumentAction{DocumentID: "RAMS-6", Operation: models.DocumentArchive}), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive document RAMS-6")
}
