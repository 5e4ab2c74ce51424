package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const defaultYahooBaseURL = "https://query2.finance.yahoo.com"

// YahooProvider fetches quotes from the Yahoo Finance v8 chart endpoint.
type YahooProvider struct {
	baseURL string
	cli     *http.Client
}

// NewYahooProvider builds a provider with a bounded request timeout. An empty
// baseURL selects the public Yahoo endpoint.
func NewYahooProvider(baseURL string, timeout time.Duration) *YahooProvider {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &YahooProvider{
		baseURL: baseURL,
		cli:     &http.Client{Timeout: timeout},
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Lookup fetches the current price and canonical name for symbol.
func (p *YahooProvider) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return Quote{}, ErrSymbolNotFound
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", p.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", "stocksim-be/1.0")

	resp, err := p.cli.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// Yahoo answers 404 for symbols it does not know.
	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}

	var raw yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(raw.Chart.Result) == 0 {
		return Quote{}, ErrSymbolNotFound
	}

	r := raw.Chart.Result[0]
	price := r.Meta.RegularMarketPrice

	// Fall back to the last non-zero close if meta is missing the price.
	if price <= 0 && len(r.Timestamp) > 0 && len(r.Indicators.Quote) > 0 &&
		len(r.Indicators.Quote[0].Close) == len(r.Timestamp) {
		for i := len(r.Timestamp) - 1; i >= 0; i-- {
			if c := r.Indicators.Quote[0].Close[i]; c > 0 {
				price = c
				break
			}
		}
	}
	if price <= 0 {
		return Quote{}, ErrSymbolNotFound
	}

	name := r.Meta.LongName
	if name == "" {
		name = r.Meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	return Quote{
		Symbol: symbol,
		Name:   name,
		Price:  decimal.NewFromFloat(price).Round(2),
	}, nil
}
