package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hamyon/internal/core"
)

// The ledger invariant: after any sequence of inserts, updates and
// deletes, the stored balance equals the signed sum over the surviving
// transaction set.
func TestBalance_InvariantAcrossInsertAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mkAccount(t, s, "user-1")
	food := mkCategory(t, s, "user-1", core.Expense)

	salary := mkTransaction("user-1", a.ID, food.ID, core.Income, "500000", core.NowMillis())
	groceries := mkTransaction("user-1", a.ID, food.ID, core.Expense, "50000", core.NowMillis())
	taxi := mkTransaction("user-1", a.ID, food.ID, core.Expense, "12000", core.NowMillis())

	require.NoError(t, s.InsertTransaction(ctx, salary))
	require.NoError(t, s.InsertTransaction(ctx, groceries))
	require.NoError(t, s.InsertTransaction(ctx, taxi))
	require.Equal(t, "438000", accountBalance(t, s, a.ID).String())

	require.NoError(t, s.DeleteTransaction(ctx, groceries.ID))
	require.Equal(t, "488000", accountBalance(t, s, a.ID).String())

	require.NoError(t, s.DeleteTransaction(ctx, salary.ID))
	require.Equal(t, "-12000", accountBalance(t, s, a.ID).String())
}

func TestBalance_TransferHasNoEffect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mkAccount(t, s, "user-1")
	c := mkCategory(t, s, "user-1", core.Transfer)

	tx := mkTransaction("user-1", a.ID, c.ID, core.Transfer, "90000", core.NowMillis())
	require.NoError(t, s.InsertTransaction(ctx, tx))
	require.Equal(t, "0", accountBalance(t, s, a.ID).String())
}

func TestUpdateTransaction_AmountChangeReadjustsBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mkAccount(t, s, "user-1")
	c := mkCategory(t, s, "user-1", core.Expense)

	tx := mkTransaction("user-1", a.ID, c.ID, core.Expense, "50000", core.NowMillis())
	require.NoError(t, s.InsertTransaction(ctx, tx))
	require.Equal(t, "-50000", accountBalance(t, s, a.ID).String())

	newAmount := decimal.RequireFromString("80000")
	require.NoError(t, s.UpdateTransaction(ctx, tx.ID, TransactionUpdate{Amount: &newAmount}))
	require.Equal(t, "-80000", accountBalance(t, s, a.ID).String())
}

func TestUpdateTransaction_TypeChangeReadjustsBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mkAccount(t, s, "user-1")
	c := mkCategory(t, s, "user-1", core.Expense)

	tx := mkTransaction("user-1", a.ID, c.ID, core.Expense, "30000", core.NowMillis())
	require.NoError(t, s.InsertTransaction(ctx, tx))

	income := core.Income
	require.NoError(t, s.UpdateTransaction(ctx, tx.ID, TransactionUpdate{Type: &income}))
	require.Equal(t, "30000", accountBalance(t, s, a.ID).String())
}

func TestUpdateTransaction_AccountMoveRebalancesBoth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cash := mkAccount(t, s, "user-1")
	card := core.Account{
		ID: core.NewID(), UserID: "user-1", Name: "Card", Type: core.AccountCard,
		Currency: "UZS", Balance: decimal.Zero,
		CreatedAt: core.NowMillis(), UpdatedAt: core.NowMillis(),
	}
	require.NoError(t, s.InsertAccount(ctx, card))
	c := mkCategory(t, s, "user-1", core.Expense)

	tx := mkTransaction("user-1", cash.ID, c.ID, core.Expense, "25000", core.NowMillis())
	require.NoError(t, s.InsertTransaction(ctx, tx))
	require.Equal(t, "-25000", accountBalance(t, s, cash.ID).String())

	require.NoError(t, s.UpdateTransaction(ctx, tx.ID, TransactionUpdate{AccountID: &card.ID}))
	require.Equal(t, "0", accountBalance(t, s, cash.ID).String())
	require.Equal(t, "-25000", accountBalance(t, s, card.ID).String())
}

func TestUpdateTransaction_DescriptionOnlyLeavesBalanceAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mkAccount(t, s, "user-1")
	c := mkCategory(t, s, "user-1", core.Expense)

	tx := mkTransaction("user-1", a.ID, c.ID, core.Expense, "15000", core.NowMillis())
	require.NoError(t, s.InsertTransaction(ctx, tx))

	desc := "plov"
	require.NoError(t, s.UpdateTransaction(ctx, tx.ID, TransactionUpdate{Description: &desc}))
	require.Equal(t, "-15000", accountBalance(t, s, a.ID).String())
}

func TestDeleteTransaction_MissingIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.DeleteTransaction(context.Background(), "no-such-id"))
}

func TestSumAmountByType_InclusiveBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mkAccount(t, s, "user-1")
	c := mkCategory(t, s, "user-1", core.Expense)

	from := int64(1_700_000_000_000)
	to := from + 10_000
	for _, date := range []int64{from - 1, from, to, to + 1} {
		tx := mkTransaction("user-1", a.ID, c.ID, core.Expense, "100", date)
		require.NoError(t, s.InsertTransaction(ctx, tx))
	}

	total, err := s.SumAmountByType(ctx, "user-1", core.Expense, core.Window{From: from, To: to})
	require.NoError(t, err)
	require.Equal(t, "200", total.String())
}
