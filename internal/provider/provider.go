package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrProvider marks a failed shares-outstanding lookup. Every error a
// Provider returns for a symbol wraps it.
var ErrProvider = errors.New("shares outstanding lookup failed")

// Provider defines the interface for shares-outstanding sources
type Provider interface {
	// Name returns the provider name
	Name() string

	// SharesOutstanding returns the number of shares outstanding for symbol.
	// The value is always positive when err is nil.
	SharesOutstanding(ctx context.Context, symbol string) (float64, error)

	// IsAvailable checks if the provider can be used (e.g. has an API key)
	IsAvailable() bool

	// RateLimit returns the rate limit per minute, 0 when unlimited
	RateLimit() int
}

// ProviderError represents a provider-specific lookup failure
type ProviderError struct {
	Provider  string
	Symbol    string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Symbol == "" {
		return e.Provider + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Symbol + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

func newError(provider, symbol string, retryable bool, format string, args ...any) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Symbol:    symbol,
		Err:       fmt.Errorf(format, args...),
		Retryable: retryable,
	}
}

// normalize upper-cases and trims a ticker symbol
func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil && p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// SharesOutstanding tries each provider in order until one succeeds
func (f *FallbackProvider) SharesOutstanding(ctx context.Context, symbol string) (float64, error) {
	if len(f.providers) == 0 {
		return 0, newError(f.Name(), symbol, false, "no providers available")
	}

	var lastErr error
	for _, p := range f.providers {
		shares, err := p.SharesOutstanding(ctx, symbol)
		if err == nil {
			return shares, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if !errors.Is(lastErr, ErrProvider) {
		lastErr = &ProviderError{Provider: f.Name(), Symbol: symbol, Err: lastErr}
	}
	return 0, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		maxRate = max(maxRate, p.RateLimit())
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}
