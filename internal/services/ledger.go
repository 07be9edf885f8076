// Package services orchestrates the local store, the aggregation engine
// consumers and the sync side: validation and stamping on the way in,
// outbox draining on the way out.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
	"hamyon/internal/storage"
)

// Nudger wakes the sync worker after a local mutation so the outbox drains
// promptly instead of waiting for the next poll tick. Optional: a nil
// Nudger simply leaves draining to the poll loop.
type Nudger interface {
	PublishOutboxNudge(ctx context.Context, userID string) error
}

// Ledger is the business entry point the UI layer calls with a user id and
// DTOs. It never exposes raw queries.
type Ledger struct {
	store  *storage.Store
	nudger Nudger
}

func NewLedger(store *storage.Store, nudger Nudger) *Ledger {
	return &Ledger{store: store, nudger: nudger}
}

type CreateAccountParams struct {
	UserID   string
	Name     string
	Type     core.AccountType
	Currency string
	Icon     string
	Color    string
	Balance  decimal.Decimal
}

func (l *Ledger) CreateAccount(ctx context.Context, p CreateAccountParams) (core.Account, error) {
	now := core.NowMillis()
	a := core.Account{
		ID:        core.NewID(),
		UserID:    p.UserID,
		Name:      p.Name,
		Type:      p.Type,
		Currency:  p.Currency,
		Balance:   p.Balance,
		Icon:      p.Icon,
		Color:     p.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := l.store.InsertAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	l.nudge(ctx, p.UserID)
	return a, nil
}

func (l *Ledger) ArchiveAccount(ctx context.Context, userID, id string) error {
	if err := l.store.ArchiveAccount(ctx, id); err != nil {
		return err
	}
	l.nudge(ctx, userID)
	return nil
}

type CreateCategoryParams struct {
	UserID    string
	Name      string
	Icon      string
	Color     string
	Type      core.TransactionType
	ParentID  *string
	SortOrder int64
}

func (l *Ledger) CreateCategory(ctx context.Context, p CreateCategoryParams) (core.Category, error) {
	now := core.NowMillis()
	c := core.Category{
		ID:        core.NewID(),
		UserID:    p.UserID,
		Name:      p.Name,
		Icon:      p.Icon,
		Color:     p.Color,
		Type:      p.Type,
		ParentID:  p.ParentID,
		SortOrder: p.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := l.store.InsertCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	l.nudge(ctx, p.UserID)
	return c, nil
}

func (l *Ledger) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := l.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	l.nudge(ctx, userID)
	return nil
}

type CreateTransactionParams struct {
	UserID      string
	AccountID   string
	CategoryID  string
	Type        core.TransactionType
	Amount      decimal.Decimal
	Currency    string
	Description string
	Date        int64
	IsRecurring bool
	RecurringID *string
	VoiceInput  bool
}

func (l *Ledger) CreateTransaction(ctx context.Context, p CreateTransactionParams) (core.Transaction, error) {
	now := core.NowMillis()
	date := p.Date
	if date == 0 {
		date = now
	}
	t := core.Transaction{
		ID:          core.NewID(),
		UserID:      p.UserID,
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		Type:        p.Type,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: p.Description,
		Date:        date,
		IsRecurring: p.IsRecurring,
		RecurringID: p.RecurringID,
		VoiceInput:  p.VoiceInput,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := l.store.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	l.nudge(ctx, p.UserID)
	return t, nil
}

func (l *Ledger) UpdateTransaction(ctx context.Context, userID, id string, upd storage.TransactionUpdate) error {
	if upd.Amount != nil && !upd.Amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return core.ErrInvalidType
	}
	if err := l.store.UpdateTransaction(ctx, id, upd); err != nil {
		return err
	}
	l.nudge(ctx, userID)
	return nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	l.nudge(ctx, userID)
	return nil
}

type CreateBudgetParams struct {
	UserID     string
	CategoryID *string
	Name       string
	Amount     decimal.Decimal
	Currency   string
	Period     core.Period
	StartDate  int64
	EndDate    *int64
}

func (l *Ledger) CreateBudget(ctx context.Context, p CreateBudgetParams) (core.Budget, error) {
	now := core.NowMillis()
	start := p.StartDate
	if start == 0 {
		start = now
	}
	b := core.Budget{
		ID:         core.NewID(),
		UserID:     p.UserID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Period:     p.Period,
		StartDate:  start,
		EndDate:    p.EndDate,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := l.store.InsertBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	l.nudge(ctx, p.UserID)
	return b, nil
}

func (l *Ledger) DeactivateBudget(ctx context.Context, userID, id string) error {
	if err := l.store.DeactivateBudget(ctx, id); err != nil {
		return err
	}
	l.nudge(ctx, userID)
	return nil
}

type CreateRecurringParams struct {
	UserID      string
	AccountID   string
	CategoryID  string
	Type        core.TransactionType
	Amount      decimal.Decimal
	Currency    string
	Description string
	Frequency   core.Period
	NextDate    int64
}

func (l *Ledger) CreateRecurring(ctx context.Context, p CreateRecurringParams) (core.RecurringRule, error) {
	now := core.NowMillis()
	r := core.RecurringRule{
		ID:          core.NewID(),
		UserID:      p.UserID,
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		Type:        p.Type,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: p.Description,
		Frequency:   p.Frequency,
		NextDate:    p.NextDate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := l.store.InsertRecurring(ctx, r); err != nil {
		return core.RecurringRule{}, fmt.Errorf("create recurring rule: %w", err)
	}
	l.nudge(ctx, p.UserID)
	return r, nil
}

func (l *Ledger) PauseRecurring(ctx context.Context, userID, id string) error {
	if err := l.store.PauseRecurring(ctx, id); err != nil {
		return err
	}
	l.nudge(ctx, userID)
	return nil
}

// SeedUser bootstraps a new user's defaults. No nudge: the seed enqueues
// its own outbox entries and the poll loop picks them up.
func (l *Ledger) SeedUser(ctx context.Context, userID, currency string) (bool, error) {
	return l.store.SeedDefaults(ctx, userID, currency)
}

// nudge wakes the worker; failures are logged, never surfaced. The local
// write already succeeded and the poll loop is the safety net.
func (l *Ledger) nudge(ctx context.Context, userID string) {
	if l.nudger == nil {
		return
	}
	if err := l.nudger.PublishOutboxNudge(ctx, userID); err != nil {
		slog.WarnContext(ctx, "Failed to publish outbox nudge", "user_id", userID, "error", err)
	}
}
