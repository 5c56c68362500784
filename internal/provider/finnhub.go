package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubProvider reads shares outstanding from the Finnhub company profile
type FinnhubProvider struct {
	apiKey    string
	baseURL   string
	fetch     *fetcher
	rateLimit int
}

// NewFinnhubProvider creates a new Finnhub provider
func NewFinnhubProvider(apiKey string, rateLimitPerMin int, opts HTTPOptions) *FinnhubProvider {
	return &FinnhubProvider{
		apiKey:    apiKey,
		baseURL:   finnhubBaseURL,
		fetch:     newFetcher("finnhub", rateLimitPerMin, opts),
		rateLimit: rateLimitPerMin,
	}
}

// WithBaseURL points the provider at another host (used by tests)
func (p *FinnhubProvider) WithBaseURL(base string) *FinnhubProvider {
	p.baseURL = base
	return p
}

// Name returns the provider name
func (p *FinnhubProvider) Name() string {
	return "finnhub"
}

// IsAvailable checks if the provider has an API key
func (p *FinnhubProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *FinnhubProvider) RateLimit() int {
	return p.rateLimit
}

// finnhubProfile is the subset of /stock/profile2 we use.
// ShareOutstanding is reported in millions.
type finnhubProfile struct {
	Ticker           string  `json:"ticker"`
	ShareOutstanding float64 `json:"shareOutstanding"`
}

// SharesOutstanding fetches the company profile for symbol
func (p *FinnhubProvider) SharesOutstanding(ctx context.Context, symbol string) (float64, error) {
	symbol = normalize(symbol)
	endpoint := fmt.Sprintf("%s/stock/profile2?symbol=%s&token=%s",
		p.baseURL, url.QueryEscape(symbol), url.QueryEscape(p.apiKey))

	body, err := p.fetch.get(ctx, symbol, endpoint)
	if err != nil {
		return 0, err
	}

	var profile finnhubProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return 0, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if profile.Ticker == "" && profile.ShareOutstanding == 0 {
		return 0, newError(p.Name(), symbol, false, "no profile available")
	}
	if profile.ShareOutstanding <= 0 {
		return 0, newError(p.Name(), symbol, false, "shares outstanding %v is not positive", profile.ShareOutstanding)
	}

	return profile.ShareOutstanding * 1e6, nil
}
