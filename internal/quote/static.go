package quote

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// StaticProvider serves quotes from a fixed in-memory table. It backs local
// development and tests, where hitting a live market feed is pointless.
type StaticProvider struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewStaticProvider seeds the table with a handful of well-known symbols.
func NewStaticProvider() *StaticProvider {
	p := &StaticProvider{quotes: make(map[string]Quote)}
	p.Set(Quote{Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.NewFromFloat(190.50)})
	p.Set(Quote{Symbol: "MSFT", Name: "Microsoft Corporation", Price: decimal.NewFromFloat(410.20)})
	p.Set(Quote{Symbol: "NFLX", Name: "Netflix, Inc.", Price: decimal.NewFromFloat(605.88)})
	return p
}

// Set adds or replaces a quote.
func (p *StaticProvider) Set(q Quote) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q.Symbol = Normalize(q.Symbol)
	p.quotes[q.Symbol] = q
}

// Remove deletes a symbol so later lookups fail with ErrSymbolNotFound.
func (p *StaticProvider) Remove(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.quotes, Normalize(symbol))
}

// Lookup returns the stored quote for symbol.
func (p *StaticProvider) Lookup(_ context.Context, symbol string) (Quote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.quotes[Normalize(symbol)]
	if !ok {
		return Quote{}, ErrSymbolNotFound
	}
	return q, nil
}
