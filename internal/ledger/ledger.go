// Package ledger is the core of the simulator: it owns the cash balance and
// the append-only transaction history, and exposes the buy, sell, and
// valuation operations with their consistency guarantees.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/waihong/stocksim-be/internal/auth"
	"github.com/waihong/stocksim-be/internal/models"
	"github.com/waihong/stocksim-be/internal/quote"
	"github.com/waihong/stocksim-be/internal/storage"
)

// Receipt summarizes a committed buy or sell.
type Receipt struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Total  decimal.Decimal `json:"total"`
	Cash   decimal.Decimal `json:"cash"`
}

// Service implements the ledger engine. Mutating operations on one account
// are serialized by a keyed mutex; the quote fetch happens before the lock is
// taken, and balance and position are re-validated under it, so the external
// call never holds up other accounts and never races a commit.
type Service struct {
	store        storage.Store
	quotes       quote.Provider
	startingCash decimal.Decimal

	mu    sync.Mutex
	locks map[int64]*accountLock
}

// NewService wires the ledger to its store and quote provider. startingCash
// seeds every newly registered account.
func NewService(store storage.Store, quotes quote.Provider, startingCash decimal.Decimal) *Service {
	return &Service{
		store:        store,
		quotes:       quotes,
		startingCash: startingCash,
		locks:        make(map[int64]*accountLock),
	}
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

// lockAccount acquires the account's mutex and returns the matching unlock.
// Entries are reference counted and deleted when the last holder releases, so
// the map tracks only accounts with an operation in flight rather than every
// account ever touched.
func (s *Service) lockAccount(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &accountLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Register creates an account seeded with the starting cash balance.
// Username uniqueness is enforced by the store's constraint, not a pre-check.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || confirmation == "" {
		return models.Account{}, ErrMissingField
	}
	if password != confirmation {
		return models.Account{}, ErrConfirmationMismatch
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.store.CreateAccount(ctx, username, hash, s.startingCash)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Account{}, ErrUsernameTaken
		}
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// Authenticate resolves credentials to an account. Unknown username and
// wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Account{}, ErrMissingField
	}

	account, err := s.store.AccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Account{}, ErrInvalidCredentials
		}
		return models.Account{}, fmt.Errorf("find account: %w", err)
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return models.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// ChangePassword replaces the stored credential after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, oldPassword, newPassword, confirmation string) error {
	if oldPassword == "" || newPassword == "" || confirmation == "" {
		return ErrMissingField
	}
	if newPassword != confirmation {
		return ErrConfirmationMismatch
	}

	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if !auth.CheckPassword(account.PasswordHash, oldPassword) {
		return ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePasswordHash(ctx, accountID, hash)
}

// Account returns the current state of an account.
func (s *Service) Account(ctx context.Context, accountID int64) (models.Account, error) {
	return s.store.AccountByID(ctx, accountID)
}

// Quote fetches a fresh price for symbol. Prices are never cached: they can
// change between calls, and trades settle at the quoted price.
func (s *Service) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	symbol = quote.Normalize(symbol)
	if symbol == "" {
		return quote.Quote{}, ErrMissingField
	}
	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quote.ErrSymbolNotFound) {
			return quote.Quote{}, ErrSymbolNotFound
		}
		return quote.Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	return q, nil
}

// ParseShareCount interprets the raw share-count input. Whole numbers in
// float form ("10.0") are accepted; anything fractional, zero, negative, or
// non-numeric is rejected.
func ParseShareCount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidShareCount
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 1 {
			return 0, ErrInvalidShareCount
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, ErrInvalidShareCount
	}
	return int64(f), nil
}

// Buy purchases shares at the current quoted price. The cash debit and the
// ledger row commit atomically; a failed buy leaves both untouched.
func (s *Service) Buy(ctx context.Context, accountID int64, symbol string, shares int64) (Receipt, error) {
	if shares < 1 {
		return Receipt{}, ErrInvalidShareCount
	}
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return Receipt{}, err
	}
	cost := q.Price.Mul(decimal.NewFromInt(shares))

	unlock := s.lockAccount(accountID)
	defer unlock()

	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		return Receipt{}, fmt.Errorf("find account: %w", err)
	}
	if cost.GreaterThan(account.Cash) {
		return Receipt{}, ErrInsufficientFunds
	}

	record, err := s.store.ExecuteTrade(ctx, accountID, q.Symbol, q.Price, shares)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientCash) {
			return Receipt{}, ErrInsufficientFunds
		}
		return Receipt{}, fmt.Errorf("commit buy: %w", err)
	}

	return Receipt{
		Symbol: record.Symbol,
		Name:   q.Name,
		Shares: shares,
		Price:  record.Price,
		Total:  cost,
		Cash:   account.Cash.Sub(cost),
	}, nil
}

// Sell disposes of shares at the current quoted price. The position is
// re-checked under the account lock so concurrent sells cannot both drain
// the same shares.
func (s *Service) Sell(ctx context.Context, accountID int64, symbol string, shares int64) (Receipt, error) {
	if shares < 1 {
		return Receipt{}, ErrInvalidShareCount
	}
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return Receipt{}, err
	}

	unlock := s.lockAccount(accountID)
	defer unlock()

	position, err := s.store.Position(ctx, accountID, q.Symbol)
	if err != nil {
		return Receipt{}, fmt.Errorf("sum position: %w", err)
	}
	if position == 0 {
		return Receipt{}, ErrNoHolding
	}
	if shares > position {
		return Receipt{}, ErrInsufficientShares
	}

	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		return Receipt{}, fmt.Errorf("find account: %w", err)
	}

	record, err := s.store.ExecuteTrade(ctx, accountID, q.Symbol, q.Price, -shares)
	if err != nil {
		return Receipt{}, fmt.Errorf("commit sell: %w", err)
	}

	proceeds := q.Price.Mul(decimal.NewFromInt(shares))
	return Receipt{
		Symbol: record.Symbol,
		Name:   q.Name,
		Shares: shares,
		Price:  record.Price,
		Total:  proceeds,
		Cash:   account.Cash.Add(proceeds),
	}, nil
}

// Portfolio values every non-zero position at a freshly quoted price. If any
// held symbol cannot be priced the whole valuation fails; a partial or stale
// valuation is worse than none.
func (s *Service) Portfolio(ctx context.Context, accountID int64) (models.Portfolio, error) {
	account, holdings, err := s.snapshot(ctx, accountID)
	if err != nil {
		return models.Portfolio{}, err
	}

	portfolio := models.Portfolio{
		Entries: make([]models.PortfolioEntry, 0, len(holdings)),
		Cash:    account.Cash,
		Total:   account.Cash,
	}
	for _, h := range holdings {
		q, err := s.quotes.Lookup(ctx, h.Symbol)
		if err != nil {
			return models.Portfolio{}, fmt.Errorf("%w: %s: %v", ErrPricingUnavailable, h.Symbol, err)
		}
		value := q.Price.Mul(decimal.NewFromInt(h.Shares))
		portfolio.Entries = append(portfolio.Entries, models.PortfolioEntry{
			Symbol: h.Symbol,
			Name:   q.Name,
			Shares: h.Shares,
			Price:  q.Price,
			Value:  value,
		})
		portfolio.Total = portfolio.Total.Add(value)
	}
	return portfolio, nil
}

// snapshot reads cash and holdings under the account lock so a trade cannot
// commit between the two reads. Without it a buy landing in the gap would show
// the new position without its cash debit, a state no serial ordering of
// trades produces.
func (s *Service) snapshot(ctx context.Context, accountID int64) (models.Account, []models.Holding, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		return models.Account{}, nil, fmt.Errorf("find account: %w", err)
	}
	holdings, err := s.store.Holdings(ctx, accountID)
	if err != nil {
		return models.Account{}, nil, fmt.Errorf("list holdings: %w", err)
	}
	return account, holdings, nil
}

// History returns the account's full audit trail in commit order.
func (s *Service) History(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	return s.store.Transactions(ctx, accountID)
}

// SymbolsHeld lists the symbols with a non-zero position, for populating the
// sell form.
func (s *Service) SymbolsHeld(ctx context.Context, accountID int64) ([]string, error) {
	holdings, err := s.store.Holdings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	return symbols, nil
}
