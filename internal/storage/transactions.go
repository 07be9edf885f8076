package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
)

const transactionCols = `id, remote_id, user_id, account_id, category_id, family_group_id,
	type, amount, currency, amount_in_default, exchange_rate, description, date,
	is_recurring, recurring_id, voice_input, created_at, updated_at, synced_at`

// TransactionUpdate is a partial update. Changing Amount, Type or AccountID
// re-adjusts the balance ledger (reverse old, apply new).
type TransactionUpdate struct {
	AccountID   *string
	CategoryID  *string
	Type        *core.TransactionType
	Amount      *decimal.Decimal
	Description *string
	Date        *int64
}

// InsertTransaction persists a transaction, applies its signed amount to
// the account balance and enqueues the create, all in one SQL transaction.
func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertTransactionRow(tx, t); err != nil {
			return err
		}
		if err := adjustBalanceTx(tx, t.AccountID, t.SignedAmount()); err != nil {
			return err
		}
		return enqueueTx(tx, TableTransactions, t.ID, core.ActionCreate, t)
	})
}

func insertTransactionRow(tx *sql.Tx, t core.Transaction) error {
	_, err := tx.Exec(
		`INSERT INTO transactions (`+transactionCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullStr(t.RemoteID), t.UserID, t.AccountID, t.CategoryID,
		nullStr(t.FamilyGroupID), string(t.Type), t.Amount.String(), t.Currency,
		nullDec(t.AmountInDefault), nullDec(t.ExchangeRate), t.Description, t.Date,
		t.IsRecurring, nullStr(t.RecurringID), t.VoiceInput, t.CreatedAt, t.UpdatedAt,
		nullInt(t.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) FindTransactionByID(ctx context.Context, id string) (*core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by id: %w", err)
	}
	return t, nil
}

func (s *Store) FindAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.queryTransactions(ctx, `SELECT `+transactionCols+` FROM transactions ORDER BY date DESC`)
}

// FindTransactionsByUser lists a user's transactions, newest first.
func (s *Store) FindTransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE user_id = ? ORDER BY date DESC`,
		userID)
}

// FindTransactionsInWindow lists a user's transactions with date inside the
// window, both ends inclusive.
func (s *Store) FindTransactionsInWindow(ctx context.Context, userID string, w core.Window) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionCols+` FROM transactions
		 WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date DESC`,
		userID, w.From, w.To)
}

// UpdateTransaction applies a partial update. When the edit touches amount,
// type or account, the old signed amount is reversed on the old account and
// the new one applied on the (possibly different) new account, keeping the
// ledger invariant across edits.
func (s *Store) UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) error {
	var u updateSet
	if upd.AccountID != nil {
		u.set("account_id", *upd.AccountID)
	}
	if upd.CategoryID != nil {
		u.set("category_id", *upd.CategoryID)
	}
	if upd.Type != nil {
		u.set("type", string(*upd.Type))
	}
	if upd.Amount != nil {
		u.set("amount", upd.Amount.String())
	}
	if upd.Description != nil {
		u.set("description", *upd.Description)
	}
	if upd.Date != nil {
		u.set("date", *upd.Date)
	}
	if u.empty() {
		return nil
	}
	u.set("updated_at", core.NowMillis())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
		old, err := scanTransaction(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("update transaction: no such id %s", id)
		}
		if err != nil {
			return fmt.Errorf("load transaction for update: %w", err)
		}

		args := append(u.args, id)
		query := "UPDATE transactions SET "
		for i, c := range u.cols {
			if i > 0 {
				query += ", "
			}
			query += c
		}
		query += " WHERE id = ?"
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		row = tx.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
		updated, err := scanTransaction(row)
		if err != nil {
			return fmt.Errorf("reload transaction: %w", err)
		}

		ledgerChanged := upd.Amount != nil || upd.Type != nil || upd.AccountID != nil
		if ledgerChanged {
			if err := adjustBalanceTx(tx, old.AccountID, old.SignedAmount().Neg()); err != nil {
				return err
			}
			if err := adjustBalanceTx(tx, updated.AccountID, updated.SignedAmount()); err != nil {
				return err
			}
		}
		return enqueueTx(tx, TableTransactions, id, core.ActionUpdate, updated)
	})
}

// DeleteTransaction hard-deletes the row and reverses its balance effect.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
		t, err := scanTransaction(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction for delete: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if err := adjustBalanceTx(tx, t.AccountID, t.SignedAmount().Neg()); err != nil {
			return err
		}
		return enqueueTx(tx, TableTransactions, id, core.ActionDelete, map[string]string{"id": id})
	})
}

func (s *Store) SetTransactionRemoteID(ctx context.Context, id, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET remote_id = ?, synced_at = ? WHERE id = ?`,
		remoteID, core.NowMillis(), id,
	)
	if err != nil {
		return fmt.Errorf("set transaction remote id: %w", err)
	}
	return nil
}

// SumAmountByType totals amounts of one type for a user inside a window.
// Amounts are stored as decimal strings, so summation happens here rather
// than in SQL to keep exact arithmetic.
func (s *Store) SumAmountByType(ctx context.Context, userID string, typ core.TransactionType, w core.Window) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount FROM transactions
		 WHERE user_id = ? AND type = ? AND date >= ? AND date <= ?`,
		userID, string(typ), w.From, w.To)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum amounts by type: %w", err)
	}
	defer rows.Close()
	return sumAmountRows(rows)
}

// SumExpensesByCategory totals expense amounts for one category inside a
// window. Only expense rows count toward "spent"; income in the same
// category is ignored.
func (s *Store) SumExpensesByCategory(ctx context.Context, userID, categoryID string, w core.Window) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount FROM transactions
		 WHERE user_id = ? AND category_id = ? AND type = 'expense' AND date >= ? AND date <= ?`,
		userID, categoryID, w.From, w.To)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses by category: %w", err)
	}
	defer rows.Close()
	return sumAmountRows(rows)
}

func sumAmountRows(rows *sql.Rows) (decimal.Decimal, error) {
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		d, err := parseDec(raw)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func scanTransaction(r rowScanner) (*core.Transaction, error) {
	var (
		t               core.Transaction
		remoteID        sql.NullString
		familyGroupID   sql.NullString
		typ             string
		amount          string
		amountInDefault sql.NullString
		exchangeRate    sql.NullString
		isRecurring     int64
		recurringID     sql.NullString
		voiceInput      int64
		syncedAt        sql.NullInt64
	)
	err := r.Scan(&t.ID, &remoteID, &t.UserID, &t.AccountID, &t.CategoryID, &familyGroupID,
		&typ, &amount, &t.Currency, &amountInDefault, &exchangeRate, &t.Description,
		&t.Date, &isRecurring, &recurringID, &voiceInput, &t.CreatedAt, &t.UpdatedAt,
		&syncedAt)
	if err != nil {
		return nil, err
	}
	t.RemoteID = strPtr(remoteID)
	t.FamilyGroupID = strPtr(familyGroupID)
	t.Type = core.TransactionType(typ)
	t.IsRecurring = isRecurring != 0
	t.RecurringID = strPtr(recurringID)
	t.VoiceInput = voiceInput != 0
	t.SyncedAt = intPtr(syncedAt)
	if t.Amount, err = parseDec(amount); err != nil {
		return nil, err
	}
	if t.AmountInDefault, err = parseDecPtr(amountInDefault); err != nil {
		return nil, err
	}
	if t.ExchangeRate, err = parseDecPtr(exchangeRate); err != nil {
		return nil, err
	}
	return &t, nil
}
