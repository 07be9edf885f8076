// Package report computes read-time derived values: period summaries,
// per-category spend and budget enrichment. Nothing here is persisted, so
// stored data can never drift from derived data.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hamyon/internal/core"
	"hamyon/internal/storage"
)

// Summary is the income/expense roll-up for a period.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// EnrichedBudget is a budget plus its derived fields. Spent and Remaining
// use the budget's currency; Percentage may exceed 100 to signal overspend
// and is never clamped.
type EnrichedBudget struct {
	core.Budget
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percentage float64
}

type Engine struct {
	store *storage.Store
}

func New(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// GetSummary sums income and expense amounts over transactions whose date
// falls inside the window, both endpoints inclusive.
func (e *Engine) GetSummary(ctx context.Context, userID string, w core.Window) (Summary, error) {
	income, err := e.store.SumAmountByType(ctx, userID, core.Income, w)
	if err != nil {
		return Summary{}, err
	}
	expense, err := e.store.SumAmountByType(ctx, userID, core.Expense, w)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Income: income, Expense: expense}, nil
}

// SumByCategory totals expense spend for one category inside the window.
func (e *Engine) SumByCategory(ctx context.Context, userID, categoryID string, w core.Window) (decimal.Decimal, error) {
	return e.store.SumExpensesByCategory(ctx, userID, categoryID, w)
}

// EnrichBudget attaches spent/remaining/percentage to a budget. The window
// is the budget period relative to now: budgets reflect the current
// period, not a snapshot at their start date. A budget without a category
// cannot be tracked and reports zero spend.
func (e *Engine) EnrichBudget(ctx context.Context, b core.Budget, now time.Time) (EnrichedBudget, error) {
	enriched := EnrichedBudget{
		Budget:    b,
		Spent:     decimal.Zero,
		Remaining: b.Amount,
	}
	if b.CategoryID == nil {
		return enriched, nil
	}

	w := core.PeriodWindow(b.Period, now, b.StartDate)
	spent, err := e.store.SumExpensesByCategory(ctx, b.UserID, *b.CategoryID, w)
	if err != nil {
		return enriched, err
	}

	enriched.Spent = spent
	enriched.Remaining = b.Amount.Sub(spent)
	if enriched.Remaining.IsNegative() {
		enriched.Remaining = decimal.Zero
	}
	if b.Amount.IsPositive() {
		pct, _ := spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
		enriched.Percentage = pct
	}
	return enriched, nil
}

// EnrichBudgetsByUser enriches every active budget for a user.
func (e *Engine) EnrichBudgetsByUser(ctx context.Context, userID string, now time.Time) ([]EnrichedBudget, error) {
	budgets, err := e.store.FindBudgetsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	enriched := make([]EnrichedBudget, 0, len(budgets))
	for _, b := range budgets {
		eb, err := e.EnrichBudget(ctx, b, now)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, eb)
	}
	return enriched, nil
}
