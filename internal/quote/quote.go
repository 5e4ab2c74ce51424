// Package quote looks up current stock prices from an external, unreliable
// source. Lookups are never cached: a price fetched for one operation must
// not be reused by the next, since trades settle at the quoted price.
package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrSymbolNotFound means the provider has no data for the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnavailable covers transport failures, timeouts, and rate limits.
	ErrUnavailable = errors.New("quote provider unavailable")
)

// Quote is a point-in-time price for a ticker symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Provider fetches the current quote for a symbol.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

// Normalize canonicalizes the user-supplied ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
