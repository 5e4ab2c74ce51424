package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/waihong/stocksim-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInsufficientCash indicates a trade would drive the cash balance
// negative. No state changes when it is returned.
var ErrInsufficientCash = errors.New("insufficient cash")

// Store captures the persistence operations the ledger needs.
//
// ExecuteTrade is the critical contract: it must apply the cash delta
// -(price x shares) and append the transaction row as one atomic unit, and
// must fail with ErrInsufficientCash, touching nothing, if the balance would
// go below zero. Readers never observe a debited balance without its row or
// vice versa.
type Store interface {
	CreateAccount(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (models.Account, error)
	AccountByID(ctx context.Context, id int64) (models.Account, error)
	AccountByUsername(ctx context.Context, username string) (models.Account, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error

	ExecuteTrade(ctx context.Context, accountID int64, symbol string, price decimal.Decimal, shares int64) (models.Transaction, error)
	Position(ctx context.Context, accountID int64, symbol string) (int64, error)
	Holdings(ctx context.Context, accountID int64) ([]models.Holding, error)
	Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
}
