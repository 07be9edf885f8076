package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hamyon/internal/core"
)

func TestSeedDefaults_CreatesCategoriesAndCashAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeded, err := s.SeedDefaults(ctx, "user-1", "UZS")
	require.NoError(t, err)
	require.True(t, seeded)

	categories, err := s.FindCategoriesByUser(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, categories)
	for _, c := range categories {
		require.True(t, c.IsDefault)
	}

	accounts, err := s.FindAccountsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "Cash", accounts[0].Name)
	require.Equal(t, core.AccountCash, accounts[0].Type)
	require.Equal(t, "UZS", accounts[0].Currency)
	require.Equal(t, "0", accounts[0].Balance.String())
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeded, err := s.SeedDefaults(ctx, "user-1", "UZS")
	require.NoError(t, err)
	require.True(t, seeded)

	categories, err := s.FindCategoriesByUser(ctx, "user-1")
	require.NoError(t, err)
	want := len(categories)

	seeded, err = s.SeedDefaults(ctx, "user-1", "UZS")
	require.NoError(t, err)
	require.False(t, seeded)

	categories, err = s.FindCategoriesByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, categories, want)

	accounts, err := s.FindAccountsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestSeedDefaults_PerUserIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SeedDefaults(ctx, "user-1", "UZS")
	require.NoError(t, err)
	seeded, err := s.SeedDefaults(ctx, "user-2", "USD")
	require.NoError(t, err)
	require.True(t, seeded)

	accounts, err := s.FindAccountsByUser(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "USD", accounts[0].Currency)
}

func TestSeedDefaults_EnqueuesOutboxEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SeedDefaults(ctx, "user-1", "UZS")
	require.NoError(t, err)

	items, err := s.FindPendingOutbox(ctx, 0)
	require.NoError(t, err)

	var accountCreates, categoryCreates int
	for _, item := range items {
		require.Equal(t, core.ActionCreate, item.Action)
		switch item.TableName {
		case TableAccounts:
			accountCreates++
		case TableCategories:
			categoryCreates++
		}
	}
	require.Equal(t, 1, accountCreates)
	require.Greater(t, categoryCreates, 0)
}
