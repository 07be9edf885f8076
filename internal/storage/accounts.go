package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
)

const accountCols = `id, remote_id, user_id, name, type, currency, balance, icon, color,
	is_archived, created_at, updated_at, synced_at`

// AccountUpdate is a partial update; nil fields are left untouched.
type AccountUpdate struct {
	Name     *string
	Currency *string
	Icon     *string
	Color    *string
}

// InsertAccount persists a new account and enqueues its create for sync.
// A duplicate ID surfaces as a constraint error from the engine.
func (s *Store) InsertAccount(ctx context.Context, a core.Account) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO accounts (`+accountCols+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, nullStr(a.RemoteID), a.UserID, a.Name, string(a.Type), a.Currency,
			a.Balance.String(), a.Icon, a.Color, a.IsArchived, a.CreatedAt, a.UpdatedAt,
			nullInt(a.SyncedAt),
		)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return enqueueTx(tx, TableAccounts, a.ID, core.ActionCreate, a)
	})
}

// FindAccountByID returns (nil, nil) when no account matches; not-found is
// a normal branch for callers, never an error.
func (s *Store) FindAccountByID(ctx context.Context, id string) (*core.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return a, nil
}

func (s *Store) FindAllAccounts(ctx context.Context) ([]core.Account, error) {
	return s.queryAccounts(ctx, `SELECT `+accountCols+` FROM accounts ORDER BY created_at ASC`)
}

// FindAccountsByUser lists the user's non-archived accounts, oldest first.
func (s *Store) FindAccountsByUser(ctx context.Context, userID string) ([]core.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE user_id = ? AND is_archived = 0 ORDER BY created_at ASC`,
		userID)
}

// UpdateAccount applies a partial update and enqueues the new state.
// Updating zero fields is a no-op.
func (s *Store) UpdateAccount(ctx context.Context, id string, upd AccountUpdate) error {
	var u updateSet
	if upd.Name != nil {
		u.set("name", *upd.Name)
	}
	if upd.Currency != nil {
		u.set("currency", *upd.Currency)
	}
	if upd.Icon != nil {
		u.set("icon", *upd.Icon)
	}
	if upd.Color != nil {
		u.set("color", *upd.Color)
	}
	if u.empty() {
		return nil
	}
	u.set("updated_at", core.NowMillis())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := execAccountUpdate(tx, id, u); err != nil {
			return err
		}
		return enqueueAccountState(tx, id, core.ActionUpdate)
	})
}

// ArchiveAccount soft-deletes an account. Accounts are never hard-deleted
// so transaction history stays intact.
func (s *Store) ArchiveAccount(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE accounts SET is_archived = 1, updated_at = ? WHERE id = ?`,
			core.NowMillis(), id,
		)
		if err != nil {
			return fmt.Errorf("archive account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return enqueueAccountState(tx, id, core.ActionUpdate)
	})
}

// SetAccountRemoteID records the server-assigned identifier after first
// sync. This is sync feedback, not a user mutation, so it does not enqueue.
func (s *Store) SetAccountRemoteID(ctx context.Context, id, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET remote_id = ?, synced_at = ? WHERE id = ?`,
		remoteID, core.NowMillis(), id,
	)
	if err != nil {
		return fmt.Errorf("set account remote id: %w", err)
	}
	return nil
}

// adjustBalanceTx applies a signed delta to the stored balance and stamps
// updated_at. Balances are decimal strings, so the adjustment is a
// read-modify-write; the single-writer connection keeps it race-free.
func adjustBalanceTx(tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	var raw string
	if err := tx.QueryRow(`SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&raw); err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	balance, err := parseDec(raw)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.Add(delta).String(), core.NowMillis(), accountID,
	)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return nil
}

func execAccountUpdate(tx *sql.Tx, id string, u updateSet) error {
	args := append(u.args, id)
	query := "UPDATE accounts SET "
	for i, c := range u.cols {
		if i > 0 {
			query += ", "
		}
		query += c
	}
	query += " WHERE id = ?"
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// enqueueAccountState snapshots the current row into the outbox.
func enqueueAccountState(tx *sql.Tx, id string, action core.OutboxAction) error {
	row := tx.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return fmt.Errorf("reload account for outbox: %w", err)
	}
	return enqueueTx(tx, TableAccounts, id, action, a)
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (*core.Account, error) {
	var (
		a        core.Account
		remoteID sql.NullString
		typ      string
		balance  string
		archived int64
		syncedAt sql.NullInt64
	)
	err := r.Scan(&a.ID, &remoteID, &a.UserID, &a.Name, &typ, &a.Currency, &balance,
		&a.Icon, &a.Color, &archived, &a.CreatedAt, &a.UpdatedAt, &syncedAt)
	if err != nil {
		return nil, err
	}
	a.RemoteID = strPtr(remoteID)
	a.Type = core.AccountType(typ)
	a.IsArchived = archived != 0
	a.SyncedAt = intPtr(syncedAt)
	if a.Balance, err = parseDec(balance); err != nil {
		return nil, err
	}
	return &a, nil
}
