package main

import (
	"voldecomp/internal/config"
	"voldecomp/internal/provider"
)

func createProviders(cfg *config.Config) []provider.Provider {
	var providers []provider.Provider

	opts := provider.HTTPOptions{
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
	}

	// Static table (offline, consulted first)
	if len(cfg.Shares) > 0 {
		providers = append(providers, provider.NewStaticProvider(cfg.Shares))
	}

	// Finnhub (keyed, higher rate limit)
	if cfg.API.Finnhub.Enabled && cfg.API.Finnhub.Key != "" {
		providers = append(providers, provider.NewFinnhubProvider(cfg.API.Finnhub.Key, cfg.API.Finnhub.RateLimit, opts))
	}

	// Alpha Vantage (keyed)
	if cfg.API.AlphaVantage.Enabled && cfg.API.AlphaVantage.Key != "" {
		providers = append(providers, provider.NewAlphaVantageProvider(cfg.API.AlphaVantage.Key, cfg.API.AlphaVantage.RateLimit, opts))
	}

	// Finviz quote page (fallback - no key needed)
	if cfg.API.Finviz.Enabled {
		providers = append(providers, provider.NewFinvizProvider(cfg.API.Finviz.RateLimit, opts))
	}

	return providers
}
