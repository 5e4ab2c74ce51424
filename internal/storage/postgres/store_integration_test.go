package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waihong/stocksim-be/internal/storage"
)

// TestStoreIntegration exercises the trade commit path against a live
// database. Set RUN_DB_INTEGRATION=true and DATABASE_URL to run it.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION") != "true" {
		t.Skip("set RUN_DB_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	username := fmt.Sprintf("itest_%d", time.Now().UnixNano())
	account, err := store.CreateAccount(ctx, username, "test-hash", decimal.NewFromInt(10000))
	require.NoError(t, err)

	_, err = store.CreateAccount(ctx, username, "other-hash", decimal.NewFromInt(10000))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	price := decimal.RequireFromString("50.00")

	record, err := store.ExecuteTrade(ctx, account.ID, "TST", price, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), record.Shares)

	after, err := store.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(decimal.RequireFromString("9500.00")))

	// A trade the balance cannot cover must change nothing.
	_, err = store.ExecuteTrade(ctx, account.ID, "TST", price, 1_000_000)
	assert.ErrorIs(t, err, storage.ErrInsufficientCash)

	after, err = store.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, after.Cash.Equal(decimal.RequireFromString("9500.00")))

	records, err := store.Transactions(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = store.ExecuteTrade(ctx, account.ID, "TST", decimal.RequireFromString("60.00"), -10)
	require.NoError(t, err)

	holdings, err := store.Holdings(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	position, err := store.Position(ctx, account.ID, "TST")
	require.NoError(t, err)
	assert.Zero(t, position)
}

func loadDotEnv() {
	paths := []string{".env", "../.env", "../../.env", "../../../.env"}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
