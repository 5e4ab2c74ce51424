package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waihong/stocksim-be/internal/storage"
)

func TestCreateAccountUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.CreateAccount(ctx, "alice", "hash", decimal.NewFromInt(10000))
	require.NoError(t, err)

	_, err = s.CreateAccount(ctx, "alice", "hash2", decimal.NewFromInt(10000))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := s.AccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)
}

func TestExecuteTradeAtomicity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account, err := s.CreateAccount(ctx, "alice", "hash", decimal.NewFromInt(100))
	require.NoError(t, err)

	// A trade the balance cannot cover changes nothing.
	_, err = s.ExecuteTrade(ctx, account.ID, "TST", decimal.NewFromInt(50), 3)
	assert.ErrorIs(t, err, storage.ErrInsufficientCash)

	after, err := s.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(decimal.NewFromInt(100)))

	records, err := s.Transactions(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	// A covered trade debits cash and appends exactly one row.
	record, err := s.ExecuteTrade(ctx, account.ID, "TST", decimal.NewFromInt(50), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.Shares)

	after, err = s.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.IsZero())

	// A sell credits it back.
	_, err = s.ExecuteTrade(ctx, account.ID, "TST", decimal.NewFromInt(60), -2)
	require.NoError(t, err)

	after, err = s.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(decimal.NewFromInt(120)))

	records, err = s.Transactions(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Less(t, records[0].ID, records[1].ID)
}

func TestTradeUnknownAccount(t *testing.T) {
	s := NewStore()
	_, err := s.ExecuteTrade(context.Background(), 42, "TST", decimal.NewFromInt(1), 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHoldingsOmitNetZero(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account, err := s.CreateAccount(ctx, "alice", "hash", decimal.NewFromInt(10000))
	require.NoError(t, err)

	mustTrade := func(symbol string, price int64, shares int64) {
		t.Helper()
		_, err := s.ExecuteTrade(ctx, account.ID, symbol, decimal.NewFromInt(price), shares)
		require.NoError(t, err)
	}
	mustTrade("AAA", 10, 5)
	mustTrade("BBB", 20, 3)
	mustTrade("AAA", 12, -5)

	holdings, err := s.Holdings(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "BBB", holdings[0].Symbol)
	assert.Equal(t, int64(3), holdings[0].Shares)

	position, err := s.Position(ctx, account.ID, "AAA")
	require.NoError(t, err)
	assert.Zero(t, position)

	records, err := s.Transactions(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestUpdatePasswordHash(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account, err := s.CreateAccount(ctx, "alice", "old", decimal.NewFromInt(10000))
	require.NoError(t, err)

	require.NoError(t, s.UpdatePasswordHash(ctx, account.ID, "new"))
	after, err := s.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", after.PasswordHash)

	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, 42, "x"), storage.ErrNotFound)
}
