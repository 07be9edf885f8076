package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
)

type seedCategory struct {
	name string
	icon string
	typ  core.TransactionType
}

var defaultCategories = []seedCategory{
	{"Food", "restaurant", core.Expense},
	{"Transport", "directions_bus", core.Expense},
	{"Shopping", "shopping_bag", core.Expense},
	{"Entertainment", "movie", core.Expense},
	{"Health", "local_hospital", core.Expense},
	{"Utilities", "bolt", core.Expense},
	{"Other", "category", core.Expense},
	{"Salary", "payments", core.Income},
	{"Gifts", "redeem", core.Income},
	{"Other Income", "savings", core.Income},
}

// SeedDefaults gives a new user a minimally usable data set: the default
// category set plus one cash account. Idempotent: if the user already has
// any category, nothing happens. Categories and the account are inserted
// in one transaction so a user never ends up with one but not the other.
// Returns whether seeding ran.
func (s *Store) SeedDefaults(ctx context.Context, userID, currency string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count user categories: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	now := core.NowMillis()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for i, sc := range defaultCategories {
			c := core.Category{
				ID:        core.NewID(),
				UserID:    userID,
				Name:      sc.name,
				Icon:      sc.icon,
				Type:      sc.typ,
				IsDefault: true,
				SortOrder: int64(i),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := insertCategoryTx(tx, c); err != nil {
				return err
			}
		}

		a := core.Account{
			ID:        core.NewID(),
			UserID:    userID,
			Name:      "Cash",
			Type:      core.AccountCash,
			Currency:  currency,
			Balance:   decimal.Zero,
			Icon:      "wallet",
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := tx.Exec(
			`INSERT INTO accounts (`+accountCols+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, nil, a.UserID, a.Name, string(a.Type), a.Currency,
			a.Balance.String(), a.Icon, a.Color, a.IsArchived, a.CreatedAt,
			a.UpdatedAt, nil,
		)
		if err != nil {
			return fmt.Errorf("insert seed account: %w", err)
		}
		return enqueueTx(tx, TableAccounts, a.ID, core.ActionCreate, a)
	})
	if err != nil {
		return false, fmt.Errorf("seed defaults: %w", err)
	}
	return true, nil
}
