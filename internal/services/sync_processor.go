package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hamyon/internal/core"
	"hamyon/internal/storage"
)

// Pusher applies one outbox item to the remote store. Implementations must
// apply items in the order given; the processor feeds them FIFO.
type Pusher interface {
	Push(ctx context.Context, item core.OutboxItem) error
}

// SyncProcessorConfig holds configuration for the outbox drain loop.
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per cycle (default: 50)
	BatchSize int
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    storage.DefaultPendingLimit,
	}
}

// SyncProcessor drains the outbox against a Pusher. Retry bookkeeping
// lives in the store (attempt counter, dead-letter threshold); the
// processor only reports outcomes.
type SyncProcessor struct {
	store  *storage.Store
	pusher Pusher
	config SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	nudgeCh chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(store *storage.Store, pusher Pusher, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		store:   store,
		pusher:  pusher,
		config:  config,
		nudgeCh: make(chan struct{}, 1),
	}
}

// Start begins the drain loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	if stats, err := p.store.OutboxStats(ctx); err == nil && stats.Dead > 0 {
		slog.WarnContext(ctx, "Outbox has dead-lettered items requiring inspection",
			"dead", stats.Dead, "pending", stats.Pending)
	}

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Nudge requests an immediate drain cycle. Safe from any goroutine; extra
// nudges while one is queued coalesce.
func (p *SyncProcessor) Nudge() {
	select {
	case p.nudgeCh <- struct{}{}:
	default:
	}
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Drain immediately on startup
	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		case <-p.nudgeCh:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch pushes one batch of pending items in enqueue order. Each
// item independently succeeds (deleted from the queue) or fails (attempt
// recorded); one failure never blocks the rest of the batch.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) {
	items, err := p.store.FindPendingOutbox(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending outbox items", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	slog.DebugContext(ctx, "Draining outbox batch", "count", len(items))

	for _, item := range items {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := p.pusher.Push(ctx, item); err != nil {
			p.handleFailure(ctx, item, err)
			continue
		}
		if err := p.store.MarkSynced(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark outbox item synced",
				"id", item.ID, "error", err)
			continue
		}
		slog.InfoContext(ctx, "Synced outbox item",
			"id", item.ID,
			"table", item.TableName,
			"record_id", item.RecordID,
			"action", item.Action)
	}
}

func (p *SyncProcessor) handleFailure(ctx context.Context, item core.OutboxItem, pushErr error) {
	slog.WarnContext(ctx, "Outbox push failed",
		"id", item.ID,
		"table", item.TableName,
		"attempt", item.Attempts+1,
		"error", pushErr)

	if err := p.store.RecordFailure(ctx, item.ID, pushErr.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to record outbox failure",
			"id", item.ID, "error", err)
		return
	}

	if item.Attempts+1 >= core.MaxSyncAttempts {
		slog.ErrorContext(ctx, "Outbox item dead-lettered after max retries",
			"id", item.ID,
			"table", item.TableName,
			"record_id", item.RecordID,
			"attempts", item.Attempts+1)
	}
}

// Stats exposes queue health for diagnostics endpoints and worker logs.
func (p *SyncProcessor) Stats(ctx context.Context) (storage.OutboxStats, error) {
	return p.store.OutboxStats(ctx)
}
