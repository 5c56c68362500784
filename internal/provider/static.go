package provider

import "context"

// StaticProvider serves shares outstanding from a fixed table, typically
// the `shares` section of the config file
type StaticProvider struct {
	shares map[string]float64
}

// NewStaticProvider creates a provider from symbol -> shares pairs.
// Symbols are matched case-insensitively.
func NewStaticProvider(shares map[string]float64) *StaticProvider {
	table := make(map[string]float64, len(shares))
	for sym, n := range shares {
		table[normalize(sym)] = n
	}
	return &StaticProvider{shares: table}
}

func (p *StaticProvider) Name() string      { return "static" }
func (p *StaticProvider) IsAvailable() bool { return len(p.shares) > 0 }
func (p *StaticProvider) RateLimit() int    { return 0 }

// SharesOutstanding looks symbol up in the table
func (p *StaticProvider) SharesOutstanding(_ context.Context, symbol string) (float64, error) {
	n, ok := p.shares[normalize(symbol)]
	if !ok {
		return 0, newError(p.Name(), symbol, false, "symbol not configured")
	}
	if !(n > 0) {
		return 0, newError(p.Name(), symbol, false, "shares outstanding %v is not positive", n)
	}
	return n, nil
}
