package marketdata

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/finsight-ai/finsight-backend/internal/model"
)

// QuoteCache is a short-lived in-memory quote cache keyed by symbol.
type QuoteCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewQuoteCache creates a cache whose entries expire after ttl.
func NewQuoteCache(ttl time.Duration) (*QuoteCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("quote cache ttl must be positive, got %s", ttl)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 12,
		BufferItems: 64,
		// Cost is one per symbol; do not count ristretto's own bookkeeping.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quote cache: %w", err)
	}

	return &QuoteCache{cache: cache, ttl: ttl}, nil
}

// Get returns the cached quote for symbol, if still fresh.
func (c *QuoteCache) Get(symbol string) (model.Quote, bool) {
	v, ok := c.cache.Get(symbol)
	if !ok {
		return model.Quote{}, false
	}
	quote, ok := v.(model.Quote)
	return quote, ok
}

// Set stores quote under its symbol. Writes are flushed before returning so a
// subsequent Get observes them.
func (c *QuoteCache) Set(quote model.Quote) {
	c.cache.SetWithTTL(quote.Symbol, quote, 1, c.ttl)
	c.cache.Wait()
}

// Close releases the cache's background goroutines.
func (c *QuoteCache) Close() {
	c.cache.Close()
}
