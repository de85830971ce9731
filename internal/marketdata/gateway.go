// Package marketdata fetches live quotes for valuation. The Gateway enforces the
// contract every caller relies on: a returned quote always has a strictly positive
// price, and every failure surfaces as *apperrors.QuoteUnavailableError.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
)

// Provider is a raw quote source. Implementations need not validate the price.
type Provider interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}

// errNoPriceData marks a quote that arrived but carries no usable price.
// It is not retried: the provider answered, there is simply no data.
var errNoPriceData = errors.New("no price data available")

const (
	defaultRetryBackoff = 200 * time.Millisecond
	// maxRetryDelay caps the exponential delay between two attempts.
	maxRetryDelay = 10 * time.Second
)

// Gateway wraps a Provider with per-fetch timeouts, optional caching and optional retries.
type Gateway struct {
	provider   Provider
	cache      *QuoteCache
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout bounds each individual provider call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithCache serves repeated lookups from c until its TTL expires.
func WithCache(c *QuoteCache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithRetry retries transient provider failures up to maxRetries times,
// doubling backoff between attempts up to a fixed cap. A non-positive backoff
// uses the default of 200ms.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(g *Gateway) {
		if backoff <= 0 {
			backoff = defaultRetryBackoff
		}
		g.maxRetries = max(maxRetries, 0)
		g.backoff = backoff
	}
}

// NewGateway creates a Gateway over provider. Without options it applies a 5s
// timeout, no cache and no retries.
func NewGateway(provider Provider, log zerolog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		timeout:  5 * time.Second,
		backoff:  defaultRetryBackoff,
		log:      log.With().Str("component", "marketdata").Str("provider", provider.Name()).Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchQuote returns a live quote for symbol with a strictly positive price.
// Every failure, including a zero or negative price, is reported as
// *apperrors.QuoteUnavailableError.
func (g *Gateway) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if g.cache != nil {
		if quote, ok := g.cache.Get(symbol); ok {
			return quote, nil
		}
	}

	attempt := 0
	quote, err := retry.DoValue(ctx, g.newBackoff(), func(ctx context.Context) (model.Quote, error) {
		attempt++
		quote, err := g.fetchOnce(ctx, symbol)
		if err == nil || errors.Is(err, errNoPriceData) || ctx.Err() != nil {
			return quote, err
		}
		g.log.Debug().Err(err).Str("symbol", symbol).Int("attempt", attempt).Msg("quote fetch failed")
		return quote, retry.RetryableError(err)
	})
	if err != nil {
		g.log.Warn().Err(err).Str("symbol", symbol).Int("attempts", attempt).Msg("quote unavailable")
		return model.Quote{}, apperrors.NewQuoteUnavailable(symbol, err)
	}

	if g.cache != nil {
		g.cache.Set(quote)
	}
	return quote, nil
}

// newBackoff returns a fresh schedule for one FetchQuote call. Backoffs are stateful.
func (g *Gateway) newBackoff() retry.Backoff {
	return retry.WithMaxRetries(uint64(g.maxRetries),
		retry.WithCappedDuration(maxRetryDelay, retry.NewExponential(g.backoff)))
}

func (g *Gateway) fetchOnce(ctx context.Context, symbol string) (model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return model.Quote{}, err
	}

	fetchCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	quote, err := g.provider.Quote(fetchCtx, symbol)
	if err != nil {
		return model.Quote{}, err
	}

	// Negated comparison also rejects NaN.
	if !(quote.CurrentPrice > 0) {
		return model.Quote{}, fmt.Errorf("%w: price %v", errNoPriceData, quote.CurrentPrice)
	}

	quote.Symbol = symbol
	if quote.FetchedAt.IsZero() {
		quote.FetchedAt = time.Now().UTC()
	}
	return quote, nil
}
