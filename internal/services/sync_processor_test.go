package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hamyon/internal/core"
	"hamyon/internal/storage"
)

// fakePusher records pushed items and fails ids listed in failing.
type fakePusher struct {
	mu      sync.Mutex
	pushed  []core.OutboxItem
	failing map[int64]error
}

func (p *fakePusher) Push(_ context.Context, item core.OutboxItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, item)
	if err, ok := p.failing[item.ID]; ok {
		return err
	}
	return nil
}

func (p *fakePusher) pushCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed)
}

func newProcessorFixture(t *testing.T) (*storage.Store, *fakePusher, *SyncProcessor) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pusher := &fakePusher{failing: map[int64]error{}}
	processor := NewSyncProcessor(store, pusher, DefaultSyncProcessorConfig())
	return store, pusher, processor
}

func enqueue(t *testing.T, store *storage.Store, n int) []core.OutboxItem {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		err := store.Enqueue(ctx, storage.TableTransactions, core.NewID(), core.ActionCreate,
			map[string]int{"n": i})
		require.NoError(t, err)
	}
	items, err := store.FindPendingOutbox(ctx, n)
	require.NoError(t, err)
	require.Len(t, items, n)
	return items
}

func TestProcessBatch_SuccessDrainsQueue(t *testing.T) {
	store, pusher, processor := newProcessorFixture(t)
	ctx := context.Background()
	items := enqueue(t, store, 3)

	processor.ProcessBatch(ctx)

	require.Len(t, pusher.pushed, 3)
	for i, item := range items {
		require.Equal(t, item.ID, pusher.pushed[i].ID)
	}

	remaining, err := store.FindPendingOutbox(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestProcessBatch_FailureRecordsAttemptAndKeepsItem(t *testing.T) {
	store, pusher, processor := newProcessorFixture(t)
	ctx := context.Background()
	items := enqueue(t, store, 2)
	pusher.failing[items[0].ID] = errors.New("server unavailable")

	processor.ProcessBatch(ctx)

	// Both were attempted; the failure did not block the rest of the batch
	require.Len(t, pusher.pushed, 2)

	pending, err := store.FindPendingOutbox(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, items[0].ID, pending[0].ID)
	require.EqualValues(t, 1, pending[0].Attempts)
	require.NotNil(t, pending[0].LastError)
	require.Equal(t, "server unavailable", *pending[0].LastError)
}

func TestProcessBatch_RetryExhaustionDeadLetters(t *testing.T) {
	store, pusher, processor := newProcessorFixture(t)
	ctx := context.Background()
	items := enqueue(t, store, 1)
	id := items[0].ID
	pusher.failing[id] = errors.New("permanent failure")

	for i := 0; i < int(core.MaxSyncAttempts); i++ {
		processor.ProcessBatch(ctx)
	}

	pending, err := store.FindPendingOutbox(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, pending)

	item, err := store.FindOutboxItemByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, item)
	require.EqualValues(t, core.MaxSyncAttempts, item.Attempts)

	// Dead item is never pushed again
	processor.ProcessBatch(ctx)
	require.Len(t, pusher.pushed, int(core.MaxSyncAttempts))
}

func TestSyncProcessor_Lifecycle(t *testing.T) {
	_, _, processor := newProcessorFixture(t)
	ctx := context.Background()

	require.NoError(t, processor.Start(ctx))
	require.True(t, processor.IsRunning())
	require.Error(t, processor.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, processor.Stop(stopCtx))
	require.False(t, processor.IsRunning())

	// Stopping a stopped processor is a no-op
	require.NoError(t, processor.Stop(stopCtx))
}

func TestSyncProcessor_NudgeTriggersDrain(t *testing.T) {
	store, pusher, processor := newProcessorFixture(t)
	processor.config.PollInterval = time.Hour // only the nudge can drain

	ctx := context.Background()
	require.NoError(t, processor.Start(ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		processor.Stop(stopCtx)
	}()

	enqueue(t, store, 1)
	processor.Nudge()

	require.Eventually(t, func() bool {
		pending, err := store.FindPendingOutbox(ctx, 0)
		return err == nil && len(pending) == 0
	}, 5*time.Second, 10*time.Millisecond)
	require.Positive(t, pusher.pushCount())
}
