package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/waihong/stocksim-be/internal/models"
	"github.com/waihong/stocksim-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for accounts and the
// transaction ledger.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a pool and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			cash NUMERIC(24,2) NOT NULL CHECK (cash >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			symbol TEXT NOT NULL,
			price NUMERIC(24,2) NOT NULL CHECK (price > 0),
			shares BIGINT NOT NULL CHECK (shares <> 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_account_symbol_idx
			ON transactions (account_id, symbol);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateAccount inserts a new account row. The username uniqueness race is
// closed by the database constraint, not a pre-check.
func (s *Store) CreateAccount(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (models.Account, error) {
	const query = `
		INSERT INTO accounts (username, password_hash, cash)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, cash, created_at;`
	row := s.pool.QueryRow(ctx, query, username, passwordHash, cash)
	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Account{}, storage.ErrAlreadyExists
		}
		return models.Account{}, err
	}
	return account, nil
}

// AccountByID fetches an account by id.
func (s *Store) AccountByID(ctx context.Context, id int64) (models.Account, error) {
	const query = `
		SELECT id, username, password_hash, cash, created_at
		FROM accounts WHERE id = $1;`
	return scanAccount(s.pool.QueryRow(ctx, query, id))
}

// AccountByUsername fetches an account by username.
func (s *Store) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	const query = `
		SELECT id, username, password_hash, cash, created_at
		FROM accounts WHERE username = $1;`
	return scanAccount(s.pool.QueryRow(ctx, query, username))
}

// UpdatePasswordHash replaces the stored credential.
func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $1 WHERE id = $2;`, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ExecuteTrade commits a buy (positive shares) or sell (negative shares) in a
// single transaction: the conditional balance update and the history insert
// succeed or fail together.
func (s *Store) ExecuteTrade(ctx context.Context, accountID int64, symbol string, price decimal.Decimal, shares int64) (models.Transaction, error) {
	delta := price.Mul(decimal.NewFromInt(shares)).Neg()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET cash = cash + $1 WHERE id = $2 AND cash + $1 >= 0;`,
		delta, accountID)
	if err != nil {
		return models.Transaction{}, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1);`, accountID).Scan(&exists); err != nil {
			return models.Transaction{}, err
		}
		if !exists {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, storage.ErrInsufficientCash
	}

	record := models.Transaction{
		AccountID: accountID,
		Symbol:    symbol,
		Price:     price,
		Shares:    shares,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (account_id, symbol, price, shares)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at;`,
		accountID, symbol, price, shares).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return models.Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Transaction{}, err
	}
	return record, nil
}

// Position returns the net shares of symbol held by the account.
func (s *Store) Position(ctx context.Context, accountID int64, symbol string) (int64, error) {
	var position int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(shares), 0) FROM transactions
		 WHERE account_id = $1 AND symbol = $2;`,
		accountID, symbol).Scan(&position)
	if err != nil {
		return 0, err
	}
	return position, nil
}

// Holdings groups the ledger by symbol, keeping only non-zero net positions.
func (s *Store) Holdings(ctx context.Context, accountID int64) ([]models.Holding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT symbol, SUM(shares) AS net FROM transactions
		 WHERE account_id = $1
		 GROUP BY symbol HAVING SUM(shares) <> 0
		 ORDER BY symbol;`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.Symbol, &h.Shares); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Transactions returns the full audit trail in commit order.
func (s *Store) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, symbol, price, shares, created_at
		 FROM transactions WHERE account_id = $1 ORDER BY id;`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &t.Price, &t.Shares, &t.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, t)
	}
	return records, rows.Err()
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Cash, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
