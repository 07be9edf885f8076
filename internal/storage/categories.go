package storage

import (
	"context"
	"database/sql"
	"fmt"

	"hamyon/internal/core"
)

const categoryCols = `id, remote_id, user_id, name, icon, color, type, is_default,
	parent_id, sort_order, created_at, updated_at, synced_at`

type CategoryUpdate struct {
	Name      *string
	Icon      *string
	Color     *string
	ParentID  *string
	SortOrder *int64
}

func (s *Store) InsertCategory(ctx context.Context, c core.Category) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertCategoryTx(tx, c)
	})
}

func insertCategoryTx(tx *sql.Tx, c core.Category) error {
	_, err := tx.Exec(
		`INSERT INTO categories (`+categoryCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullStr(c.RemoteID), c.UserID, c.Name, c.Icon, c.Color, string(c.Type),
		c.IsDefault, nullStr(c.ParentID), c.SortOrder, c.CreatedAt, c.UpdatedAt,
		nullInt(c.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return enqueueTx(tx, TableCategories, c.ID, core.ActionCreate, c)
}

func (s *Store) FindCategoryByID(ctx context.Context, id string) (*core.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

func (s *Store) FindAllCategories(ctx context.Context) ([]core.Category, error) {
	return s.queryCategories(ctx, `SELECT `+categoryCols+` FROM categories ORDER BY sort_order ASC`)
}

// FindCategoriesByUser lists a user's categories in display order.
func (s *Store) FindCategoriesByUser(ctx context.Context, userID string) ([]core.Category, error) {
	return s.queryCategories(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE user_id = ? ORDER BY sort_order ASC`,
		userID)
}

func (s *Store) UpdateCategory(ctx context.Context, id string, upd CategoryUpdate) error {
	var u updateSet
	if upd.Name != nil {
		u.set("name", *upd.Name)
	}
	if upd.Icon != nil {
		u.set("icon", *upd.Icon)
	}
	if upd.Color != nil {
		u.set("color", *upd.Color)
	}
	if upd.ParentID != nil {
		u.set("parent_id", *upd.ParentID)
	}
	if upd.SortOrder != nil {
		u.set("sort_order", *upd.SortOrder)
	}
	if u.empty() {
		return nil
	}
	u.set("updated_at", core.NowMillis())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		args := append(u.args, id)
		query := "UPDATE categories SET "
		for i, c := range u.cols {
			if i > 0 {
				query += ", "
			}
			query += c
		}
		query += " WHERE id = ?"
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		row := tx.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
		c, err := scanCategory(row)
		if err != nil {
			return fmt.Errorf("reload category for outbox: %w", err)
		}
		return enqueueTx(tx, TableCategories, id, core.ActionUpdate, c)
	})
}

// DeleteCategory hard-deletes a category. Referencing transactions make
// the FK constraint reject the delete; reassignment is the caller's job.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return enqueueTx(tx, TableCategories, id, core.ActionDelete, map[string]string{"id": id})
	})
}

func (s *Store) SetCategoryRemoteID(ctx context.Context, id, remoteID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories SET remote_id = ?, synced_at = ? WHERE id = ?`,
		remoteID, core.NowMillis(), id,
	)
	if err != nil {
		return fmt.Errorf("set category remote id: %w", err)
	}
	return nil
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func scanCategory(r rowScanner) (*core.Category, error) {
	var (
		c         core.Category
		remoteID  sql.NullString
		typ       string
		isDefault int64
		parentID  sql.NullString
		syncedAt  sql.NullInt64
	)
	err := r.Scan(&c.ID, &remoteID, &c.UserID, &c.Name, &c.Icon, &c.Color, &typ,
		&isDefault, &parentID, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt, &syncedAt)
	if err != nil {
		return nil, err
	}
	c.RemoteID = strPtr(remoteID)
	c.Type = core.TransactionType(typ)
	c.IsDefault = isDefault != 0
	c.ParentID = strPtr(parentID)
	c.SyncedAt = intPtr(syncedAt)
	return &c, nil
}
