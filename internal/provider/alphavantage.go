package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider reads shares outstanding from the OVERVIEW function
type AlphaVantageProvider struct {
	apiKey    string
	baseURL   string
	fetch     *fetcher
	rateLimit int
}

// NewAlphaVantageProvider creates a new Alpha Vantage provider
func NewAlphaVantageProvider(apiKey string, rateLimitPerMin int, opts HTTPOptions) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey:    apiKey,
		baseURL:   alphaVantageBaseURL,
		fetch:     newFetcher("alphavantage", rateLimitPerMin, opts),
		rateLimit: rateLimitPerMin,
	}
}

// WithBaseURL points the provider at another host (used by tests)
func (p *AlphaVantageProvider) WithBaseURL(base string) *AlphaVantageProvider {
	p.baseURL = base
	return p
}

// Name returns the provider name
func (p *AlphaVantageProvider) Name() string {
	return "alphavantage"
}

// IsAvailable checks if the provider has an API key
func (p *AlphaVantageProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *AlphaVantageProvider) RateLimit() int {
	return p.rateLimit
}

// alphaVantageOverview represents the OVERVIEW response; all values are strings
type alphaVantageOverview struct {
	Symbol            string `json:"Symbol"`
	SharesOutstanding string `json:"SharesOutstanding"`
	Note              string `json:"Note"`        // Rate limit message
	Information       string `json:"Information"` // Daily quota message
	Error             string `json:"Error Message"`
}

// SharesOutstanding fetches the company overview for symbol
func (p *AlphaVantageProvider) SharesOutstanding(ctx context.Context, symbol string) (float64, error) {
	symbol = normalize(symbol)
	endpoint := fmt.Sprintf("%s?function=OVERVIEW&symbol=%s&apikey=%s",
		p.baseURL, url.QueryEscape(symbol), url.QueryEscape(p.apiKey))

	body, err := p.fetch.get(ctx, symbol, endpoint)
	if err != nil {
		return 0, err
	}

	var data alphaVantageOverview
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if data.Note != "" || data.Information != "" {
		p.fetch.limiter.SignalRateLimited()
		return 0, newError(p.Name(), symbol, true, "rate limited: %s", strings.TrimSpace(data.Note+" "+data.Information))
	}
	if data.Error != "" {
		return 0, newError(p.Name(), symbol, false, "%s", data.Error)
	}
	if data.Symbol == "" {
		return 0, newError(p.Name(), symbol, false, "no overview available")
	}

	shares, err := strconv.ParseFloat(strings.TrimSpace(data.SharesOutstanding), 64)
	if err != nil {
		return 0, newError(p.Name(), symbol, false, "shares outstanding %q: %v", data.SharesOutstanding, err)
	}
	if shares <= 0 {
		return 0, newError(p.Name(), symbol, false, "shares outstanding %q is not positive", data.SharesOutstanding)
	}
	return shares, nil
}
