package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finwallet/internal/amqp"
	"finwallet/internal/core"
	"finwallet/internal/remote/memory"
)

func message(t *testing.T, action core.SyncAction, key string, payload any) *amqp.MutationMessage {
	t.Helper()
	op, err := core.NewSyncOperation(core.EntityCategory, action, key, payload)
	require.NoError(t, err)
	return amqp.NewMutationMessage(*op)
}

func TestHandleMutationAppliesOnce(t *testing.T) {
	ctx := context.Background()
	sink := memory.New()
	w := NewSyncWorker(sink)

	msg := message(t, core.ActionCreate, "Food", map[string]string{"name": "Food"})
	require.NoError(t, w.HandleMutation(ctx, msg))
	require.NoError(t, w.HandleMutation(ctx, msg))

	require.Len(t, sink.Ops(), 1)
	_, ok := sink.Get(core.EntityCategory, "Food")
	require.True(t, ok)
}

func TestHandleMutationFailureIsRetriable(t *testing.T) {
	ctx := context.Background()
	sink := memory.New()
	sink.FailNext(1)
	w := NewSyncWorker(sink)

	msg := message(t, core.ActionCreate, "Food", map[string]string{"name": "Food"})
	err := w.HandleMutation(ctx, msg)
	require.ErrorIs(t, err, memory.ErrUnavailable)

	require.NoError(t, w.HandleMutation(ctx, msg))
	require.Equal(t, 1, sink.Len(core.EntityCategory))
}

func TestStartupCheckWithoutHeaders(t *testing.T) {
	w := NewSyncWorker(memory.New())
	require.NoError(t, w.StartupCheck(context.Background()))
}

type fakeProcessor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakeProcessor) ProcessDue(context.Context, time.Time) (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return 1, 0, p.err
}

func (p *fakeProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestRecurringSchedulerRunsAtStartup(t *testing.T) {
	p := &fakeProcessor{}
	s, err := NewRecurringScheduler("0 0 1 1 *", p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return p.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRecurringSchedulerErrors(t *testing.T) {
	_, err := NewRecurringScheduler("not a schedule", &fakeProcessor{})
	require.Error(t, err)

	p := &fakeProcessor{err: errors.New("db locked")}
	s, err := NewRecurringScheduler("@hourly", p)
	require.NoError(t, err)
	require.ErrorIs(t, s.RunOnce(context.Background()), p.err)
}
