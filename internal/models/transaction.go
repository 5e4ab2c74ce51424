package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one committed ledger row. Shares are signed: positive for a
// buy, negative for a sell. Rows are immutable once written; the insertion id
// is the ordering key.
type Transaction struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Shares    int64           `json:"shares"`
	CreatedAt time.Time       `json:"created_at"`
}

// Holding is the net position for one symbol, derived by summing signed
// transaction shares. Symbols whose net is zero are not holdings.
type Holding struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

// PortfolioEntry is a holding priced at the current quote.
type PortfolioEntry struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// Portfolio is the full valuation of an account: every non-zero position at
// its current price, plus cash.
type Portfolio struct {
	Entries []PortfolioEntry `json:"entries"`
	Cash    decimal.Decimal  `json:"cash"`
	Total   decimal.Decimal  `json:"total"`
}
