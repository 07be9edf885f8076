package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
)

const budgetCols = `id, remote_id, user_id, family_group_id, category_id, name, amount,
	currency, period, start_date, end_date, is_active, created_at, updated_at, synced_at`

type BudgetUpdate struct {
	Name       *string
	Amount     *decimal.Decimal
	CategoryID *string
	Period     *core.Period
	EndDate    *int64
}

func (s *Store) InsertBudget(ctx context.Context, b core.Budget) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO budgets (`+budgetCols+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, nullStr(b.RemoteID), b.UserID, nullStr(b.FamilyGroupID),
			nullStr(b.CategoryID), b.Name, b.Amount.String(), b.Currency,
			string(b.Period), b.StartDate, nullInt(b.EndDate), b.IsActive,
			b.CreatedAt, b.UpdatedAt, nullInt(b.SyncedAt),
		)
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		return enqueueTx(tx, TableBudgets, b.ID, core.ActionCreate, b)
	})
}

func (s *Store) FindBudgetByID(ctx context.Context, id string) (*core.Budget, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find budget by id: %w", err)
	}
	return b, nil
}

func (s *Store) FindAllBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.queryBudgets(ctx, `SELECT `+budgetCols+` FROM budgets ORDER BY created_at DESC`)
}

// FindBudgetsByUser lists active budgets, newest first.
func (s *Store) FindBudgetsByUser(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.queryBudgets(ctx,
		`SELECT `+budgetCols+` FROM budgets WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC`,
		userID)
}

func (s *Store) UpdateBudget(ctx context.Context, id string, upd BudgetUpdate) error {
	var u updateSet
	if upd.Name != nil {
		u.set("name", *upd.Name)
	}
	if upd.Amount != nil {
		u.set("amount", upd.Amount.String())
	}
	if upd.CategoryID != nil {
		u.set("category_id", *upd.CategoryID)
	}
	if upd.Period != nil {
		u.set("period", string(*upd.Period))
	}
	if upd.EndDate != nil {
		u.set("end_date", *upd.EndDate)
	}
	if u.empty() {
		return nil
	}
	u.set("updated_at", core.NowMillis())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		args := append(u.args, id)
		query := "UPDATE budgets SET "
		for i, c := range u.cols {
			if i > 0 {
				query += ", "
			}
			query += c
		}
		query += " WHERE id = ?"
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		row := tx.QueryRow(`SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
		b, err := scanBudget(row)
		if err != nil {
			return fmt.Errorf("reload budget for outbox: %w", err)
		}
		return enqueueTx(tx, TableBudgets, id, core.ActionUpdate, b)
	})
}

// DeactivateBudget is the user-facing "delete". Budgets are never
// hard-deleted: historical enrichment must stay reproducible.
func (s *Store) DeactivateBudget(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE budgets SET is_active = 0, updated_at = ? WHERE id = ?`,
			core.NowMillis(), id,
		)
		if err != nil {
			return fmt.Errorf("deactivate budget: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		row := tx.QueryRow(`SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
		b, err := scanBudget(row)
		if err != nil {
			return fmt.Errorf("reload budget for outbox: %w", err)
		}
		return enqueueTx(tx, TableBudgets, id, core.ActionUpdate, b)
	})
}

func (s *Store) SetBudgetRemoteID(ctx context.Context, id, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET remote_id = ?, synced_at = ? WHERE id = ?`,
		remoteID, core.NowMillis(), id,
	)
	if err != nil {
		return fmt.Errorf("set budget remote id: %w", err)
	}
	return nil
}

func (s *Store) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func scanBudget(r rowScanner) (*core.Budget, error) {
	var (
		b             core.Budget
		remoteID      sql.NullString
		familyGroupID sql.NullString
		categoryID    sql.NullString
		amount        string
		period        string
		endDate       sql.NullInt64
		isActive      int64
		syncedAt      sql.NullInt64
	)
	err := r.Scan(&b.ID, &remoteID, &b.UserID, &familyGroupID, &categoryID, &b.Name,
		&amount, &b.Currency, &period, &b.StartDate, &endDate, &isActive,
		&b.CreatedAt, &b.UpdatedAt, &syncedAt)
	if err != nil {
		return nil, err
	}
	b.RemoteID = strPtr(remoteID)
	b.FamilyGroupID = strPtr(familyGroupID)
	b.CategoryID = strPtr(categoryID)
	b.Period = core.Period(period)
	b.EndDate = intPtr(endDate)
	b.IsActive = isActive != 0
	b.SyncedAt = intPtr(syncedAt)
	if b.Amount, err = parseDec(amount); err != nil {
		return nil, err
	}
	return &b, nil
}
