package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"hamyon/internal/core"
)

const outboxCols = `id, table_name, record_id, action, data, created_at, attempts, last_error`

// DefaultPendingLimit bounds a single outbox drain batch.
const DefaultPendingLimit = 50

// OutboxStats summarizes queue health for operator logging.
type OutboxStats struct {
	Pending int64
	Dead    int64
}

// Enqueue appends a standalone outbox entry outside any entity mutation.
// Entity repositories enqueue inside their own transactions; this is the
// escape hatch for callers composing their own payloads.
func (s *Store) Enqueue(ctx context.Context, table, recordID string, action core.OutboxAction, payload any) error {
	if !action.Valid() {
		return fmt.Errorf("enqueue: invalid action %q", action)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return enqueueTx(tx, table, recordID, action, payload)
	})
}

// FindPendingOutbox returns up to limit items that still have retry budget,
// strictly ordered by enqueue sequence. Replaying in this order guarantees
// the server never sees an update before its create. limit <= 0 falls back
// to DefaultPendingLimit.
func (s *Store) FindPendingOutbox(ctx context.Context, limit int) ([]core.OutboxItem, error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+outboxCols+` FROM sync_queue WHERE attempts < ? ORDER BY id ASC LIMIT ?`,
		core.MaxSyncAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var items []core.OutboxItem
	for rows.Next() {
		item, err := scanOutboxItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// FindOutboxItemByID returns (nil, nil) when the item is gone. Dead items
// remain visible here so an operator can inspect last_error.
func (s *Store) FindOutboxItemByID(ctx context.Context, id int64) (*core.OutboxItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+outboxCols+` FROM sync_queue WHERE id = ?`, id)
	item, err := scanOutboxItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find outbox item: %w", err)
	}
	return item, nil
}

// MarkSynced removes an acknowledged item. Idempotent: deleting an already
// deleted id is a no-op.
func (s *Store) MarkSynced(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// RecordFailure increments the attempt counter and overwrites last_error.
// Attempts never reset; an item at the retry ceiling stays put as a
// dead letter until someone looks at it.
func (s *Store) RecordFailure(ctx context.Context, id int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_queue SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		errMsg, id)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

func (s *Store) OutboxStats(ctx context.Context) (OutboxStats, error) {
	var st OutboxStats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(CASE WHEN attempts < ? THEN 1 END),
			COUNT(CASE WHEN attempts >= ? THEN 1 END)
		 FROM sync_queue`,
		core.MaxSyncAttempts, core.MaxSyncAttempts).Scan(&st.Pending, &st.Dead)
	if err != nil {
		return st, fmt.Errorf("outbox stats: %w", err)
	}
	return st, nil
}

func scanOutboxItem(r rowScanner) (*core.OutboxItem, error) {
	var (
		item      core.OutboxItem
		action    string
		data      string
		lastError sql.NullString
	)
	err := r.Scan(&item.ID, &item.TableName, &item.RecordID, &action, &data,
		&item.CreatedAt, &item.Attempts, &lastError)
	if err != nil {
		return nil, err
	}
	item.Action = core.OutboxAction(action)
	item.Data = json.RawMessage(data)
	item.LastError = strPtr(lastError)
	return &item, nil
}
