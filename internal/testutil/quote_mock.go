package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finsight-ai/finsight-backend/internal/model"
)

// MockQuoteProvider is a marketdata.Provider returning canned quotes.
// It is safe for concurrent use and records how it was called, so tests can
// assert on fetch counts and on cancellation of slow fetches.
type MockQuoteProvider struct {
	mu        sync.Mutex
	quotes    map[string]model.Quote
	errs      map[string]error
	delays    map[string]time.Duration
	calls     map[string]int
	cancelled map[string]bool
}

// NewMockQuoteProvider creates an empty provider; unknown symbols fail.
func NewMockQuoteProvider() *MockQuoteProvider {
	return &MockQuoteProvider{
		quotes:    make(map[string]model.Quote),
		errs:      make(map[string]error),
		delays:    make(map[string]time.Duration),
		calls:     make(map[string]int),
		cancelled: make(map[string]bool),
	}
}

// WithQuote configures the price and daily change returned for symbol.
func (m *MockQuoteProvider) WithQuote(symbol string, price, change float64) *MockQuoteProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[symbol] = model.Quote{Symbol: symbol, CurrentPrice: price, DailyChange: change}
	delete(m.errs, symbol)
	return m
}

// WithError configures symbol to fail with err.
func (m *MockQuoteProvider) WithError(symbol string, err error) *MockQuoteProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
	return m
}

// WithDelay makes fetches of symbol wait d, or until the context is done.
func (m *MockQuoteProvider) WithDelay(symbol string, d time.Duration) *MockQuoteProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[symbol] = d
	return m
}

// Name identifies the provider in logs.
func (m *MockQuoteProvider) Name() string { return "mock" }

// Quote returns the configured quote or error for symbol.
func (m *MockQuoteProvider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	m.mu.Lock()
	m.calls[symbol]++
	delay := m.delays[symbol]
	quote, ok := m.quotes[symbol]
	err := m.errs[symbol]
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			m.mu.Lock()
			m.cancelled[symbol] = true
			m.mu.Unlock()
			return model.Quote{}, ctx.Err()
		}
	}

	if err != nil {
		return model.Quote{}, err
	}
	if !ok {
		return model.Quote{}, fmt.Errorf("no quote configured for %s", symbol)
	}
	return quote, nil
}

// Calls returns how many times symbol was fetched.
func (m *MockQuoteProvider) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// Cancelled reports whether a delayed fetch of symbol was cut short by its context.
func (m *MockQuoteProvider) Cancelled(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled[symbol]
}
