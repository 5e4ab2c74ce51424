// Package memory holds the ledger entirely in process. It backs tests and
// local development with the same contract as the Postgres store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/waihong/stocksim-be/internal/models"
	"github.com/waihong/stocksim-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a mutex-guarded in-memory implementation of storage.Store.
type Store struct {
	mu            sync.Mutex
	nextAccountID int64
	nextTxID      int64
	accounts      map[int64]models.Account
	byUsername    map[string]int64
	transactions  []models.Transaction
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[int64]models.Account),
		byUsername: make(map[string]int64),
	}
}

func (s *Store) CreateAccount(_ context.Context, username, passwordHash string, cash decimal.Decimal) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return models.Account{}, storage.ErrAlreadyExists
	}
	s.nextAccountID++
	account := models.Account{
		ID:           s.nextAccountID,
		Username:     username,
		PasswordHash: passwordHash,
		Cash:         cash,
		CreatedAt:    time.Now(),
	}
	s.accounts[account.ID] = account
	s.byUsername[username] = account.ID
	return account, nil
}

func (s *Store) AccountByID(_ context.Context, id int64) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	return account, nil
}

func (s *Store) AccountByUsername(_ context.Context, username string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[username]
	if !ok {
		return models.Account{}, storage.ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return storage.ErrNotFound
	}
	account.PasswordHash = passwordHash
	s.accounts[id] = account
	return nil
}

// ExecuteTrade applies the cash delta and appends the ledger row under one
// lock hold, mirroring the single-transaction Postgres commit.
func (s *Store) ExecuteTrade(_ context.Context, accountID int64, symbol string, price decimal.Decimal, shares int64) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return models.Transaction{}, storage.ErrNotFound
	}

	cash := account.Cash.Sub(price.Mul(decimal.NewFromInt(shares)))
	if cash.IsNegative() {
		return models.Transaction{}, storage.ErrInsufficientCash
	}

	s.nextTxID++
	record := models.Transaction{
		ID:        s.nextTxID,
		AccountID: accountID,
		Symbol:    symbol,
		Price:     price,
		Shares:    shares,
		CreatedAt: time.Now(),
	}
	account.Cash = cash
	s.accounts[accountID] = account
	s.transactions = append(s.transactions, record)
	return record, nil
}

func (s *Store) Position(_ context.Context, accountID int64, symbol string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var position int64
	for _, t := range s.transactions {
		if t.AccountID == accountID && t.Symbol == symbol {
			position += t.Shares
		}
	}
	return position, nil
}

func (s *Store) Holdings(_ context.Context, accountID int64) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	net := make(map[string]int64)
	for _, t := range s.transactions {
		if t.AccountID == accountID {
			net[t.Symbol] += t.Shares
		}
	}

	var holdings []models.Holding
	for symbol, shares := range net {
		if shares != 0 {
			holdings = append(holdings, models.Holding{Symbol: symbol, Shares: shares})
		}
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings, nil
}

func (s *Store) Transactions(_ context.Context, accountID int64) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.Transaction
	for _, t := range s.transactions {
		if t.AccountID == accountID {
			records = append(records, t)
		}
	}
	return records, nil
}
