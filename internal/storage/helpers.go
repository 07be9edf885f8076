package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
)

// Table names as they appear in sync_queue entries and in the remote
// contract. Kept as constants so a typo fails at compile time, not on the
// server.
const (
	TableAccounts     = "accounts"
	TableCategories   = "categories"
	TableTransactions = "transactions"
	TableBudgets      = "budgets"
	TableRecurrings   = "recurrings"
)

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullDec(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}

func parseDec(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored decimal %q: %w", s, err)
	}
	return d, nil
}

func parseDecPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := parseDec(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// updateSet accumulates SET clauses for partial updates. A mutation with
// zero changed fields must not execute a degenerate statement, so callers
// check empty() before building SQL.
type updateSet struct {
	cols []string
	args []any
}

func (u *updateSet) set(col string, v any) {
	u.cols = append(u.cols, col+" = ?")
	u.args = append(u.args, v)
}

func (u *updateSet) empty() bool {
	return len(u.cols) == 0
}

// enqueueTx appends an outbox entry inside the caller's transaction. The
// payload is serialized now so the queue entry is immune to later in-memory
// mutations of the same entity.
func enqueueTx(tx *sql.Tx, table, recordID string, action core.OutboxAction, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO sync_queue (table_name, record_id, action, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		table, recordID, string(action), string(data), core.NowMillis(),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox item: %w", err)
	}
	return nil
}
