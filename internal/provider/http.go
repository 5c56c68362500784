package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"voldecomp/internal/ratelimit"
	"voldecomp/internal/retry"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxBodyBytes = 4 << 20
)

// HTTPOptions tunes the transport shared by the HTTP-backed providers
type HTTPOptions struct {
	Client     *http.Client
	Timeout    time.Duration
	MaxRetries uint
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	return o
}

// fetcher issues rate-limited, retried GET requests on behalf of a provider
type fetcher struct {
	name    string
	client  *http.Client
	limiter *ratelimit.Limiter
	retryer *retry.Retryer
}

func newFetcher(name string, rateLimitPerMin int, opts HTTPOptions) *fetcher {
	opts = opts.withDefaults()
	return &fetcher{
		name:    name,
		client:  opts.Client,
		limiter: ratelimit.NewLimiter(name, rateLimitPerMin),
		retryer: retry.NewRetryer(opts.MaxRetries, opts.BaseDelay, opts.MaxDelay),
	}
}

// get returns the body of a 200 response for url. Transport errors, 429
// and 5xx responses are retried.
func (f *fetcher) get(ctx context.Context, symbol, url string) ([]byte, error) {
	var body []byte

	err := f.retryer.Do(ctx, func() (bool, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return false, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, &ProviderError{Provider: f.name, Symbol: symbol, Err: fmt.Errorf("creating request: %w", err)}
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return true, &ProviderError{Provider: f.name, Symbol: symbol, Err: err, Retryable: true}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			f.limiter.SignalRateLimited()
			return true, newError(f.name, symbol, true, "rate limited")
		case resp.StatusCode >= http.StatusInternalServerError:
			return true, newError(f.name, symbol, true, "status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return false, newError(f.name, symbol, false, "status %d", resp.StatusCode)
		}

		f.limiter.ResetBackoff()

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return true, &ProviderError{Provider: f.name, Symbol: symbol, Err: fmt.Errorf("reading body: %w", err), Retryable: true}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
