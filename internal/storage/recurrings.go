package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
)

const recurringCols = `id, user_id, account_id, category_id, type, amount, currency,
	description, frequency, next_date, is_active, created_at, updated_at`

// RecurringUpdate is a partial update; nil fields are left untouched.
type RecurringUpdate struct {
	Amount      *decimal.Decimal
	Description *string
	Frequency   *core.Period
	NextDate    *int64
}

func (s *Store) InsertRecurring(ctx context.Context, r core.RecurringRule) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO recurrings (`+recurringCols+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.UserID, r.AccountID, r.CategoryID, string(r.Type),
			r.Amount.String(), r.Currency, r.Description, string(r.Frequency),
			r.NextDate, r.IsActive, r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert recurring rule: %w", err)
		}
		return enqueueTx(tx, TableRecurrings, r.ID, core.ActionCreate, r)
	})
}

func (s *Store) FindRecurringByID(ctx context.Context, id string) (*core.RecurringRule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recurringCols+` FROM recurrings WHERE id = ?`, id)
	r, err := scanRecurring(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recurring by id: %w", err)
	}
	return r, nil
}

func (s *Store) FindAllRecurrings(ctx context.Context) ([]core.RecurringRule, error) {
	return s.queryRecurrings(ctx, `SELECT `+recurringCols+` FROM recurrings ORDER BY next_date ASC`)
}

// FindRecurringsByUser lists active rules ordered by their next due time.
func (s *Store) FindRecurringsByUser(ctx context.Context, userID string) ([]core.RecurringRule, error) {
	return s.queryRecurrings(ctx,
		`SELECT `+recurringCols+` FROM recurrings WHERE user_id = ? AND is_active = 1 ORDER BY next_date ASC`,
		userID)
}

// FindDueRecurrings returns active rules whose next_date has passed. The
// caller materializes transactions and advances next_date; no scheduler
// lives in this layer.
func (s *Store) FindDueRecurrings(ctx context.Context, now int64) ([]core.RecurringRule, error) {
	return s.queryRecurrings(ctx,
		`SELECT `+recurringCols+` FROM recurrings WHERE is_active = 1 AND next_date <= ? ORDER BY next_date ASC`,
		now)
}

// UpdateRecurring applies a partial update and enqueues the new state.
// Updating zero fields is a no-op.
func (s *Store) UpdateRecurring(ctx context.Context, id string, upd RecurringUpdate) error {
	var u updateSet
	if upd.Amount != nil {
		u.set("amount", upd.Amount.String())
	}
	if upd.Description != nil {
		u.set("description", *upd.Description)
	}
	if upd.Frequency != nil {
		u.set("frequency", string(*upd.Frequency))
	}
	if upd.NextDate != nil {
		u.set("next_date", *upd.NextDate)
	}
	if u.empty() {
		return nil
	}
	u.set("updated_at", core.NowMillis())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		args := append(u.args, id)
		query := "UPDATE recurrings SET "
		for i, c := range u.cols {
			if i > 0 {
				query += ", "
			}
			query += c
		}
		query += " WHERE id = ?"
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("update recurring: %w", err)
		}
		return enqueueRecurringState(tx, id)
	})
}

// AdvanceNextDate moves a rule to its next undelivered occurrence. This is
// the sole side effect of materialization at this layer.
func (s *Store) AdvanceNextDate(ctx context.Context, id string, next int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE recurrings SET next_date = ?, updated_at = ? WHERE id = ?`,
			next, core.NowMillis(), id,
		)
		if err != nil {
			return fmt.Errorf("advance next date: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return enqueueRecurringState(tx, id)
	})
}

// PauseRecurring is the user-facing "delete" for recurring rules.
func (s *Store) PauseRecurring(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE recurrings SET is_active = 0, updated_at = ? WHERE id = ?`,
			core.NowMillis(), id,
		)
		if err != nil {
			return fmt.Errorf("pause recurring: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return enqueueRecurringState(tx, id)
	})
}

func enqueueRecurringState(tx *sql.Tx, id string) error {
	row := tx.QueryRow(`SELECT `+recurringCols+` FROM recurrings WHERE id = ?`, id)
	r, err := scanRecurring(row)
	if err != nil {
		return fmt.Errorf("reload recurring for outbox: %w", err)
	}
	return enqueueTx(tx, TableRecurrings, id, core.ActionUpdate, r)
}

func (s *Store) queryRecurrings(ctx context.Context, query string, args ...any) ([]core.RecurringRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurrings: %w", err)
	}
	defer rows.Close()

	var rules []core.RecurringRule
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring: %w", err)
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

func scanRecurring(r rowScanner) (*core.RecurringRule, error) {
	var (
		rule      core.RecurringRule
		typ       string
		amount    string
		frequency string
		isActive  int64
	)
	err := r.Scan(&rule.ID, &rule.UserID, &rule.AccountID, &rule.CategoryID, &typ,
		&amount, &rule.Currency, &rule.Description, &frequency, &rule.NextDate,
		&isActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rule.Type = core.TransactionType(typ)
	rule.Frequency = core.Period(frequency)
	rule.IsActive = isActive != 0
	if rule.Amount, err = parseDec(amount); err != nil {
		return nil, err
	}
	return &rule, nil
}
