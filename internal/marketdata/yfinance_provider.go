package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/finsight-ai/finsight-backend/internal/model"
)

// YFinanceProvider reads quotes through the go-yfinance ticker API.
// The library has no context support, so each lookup runs in its own goroutine
// and is abandoned when ctx is done.
type YFinanceProvider struct{}

// NewYFinanceProvider creates a go-yfinance backed provider.
func NewYFinanceProvider() *YFinanceProvider {
	return &YFinanceProvider{}
}

// Name identifies the provider in logs.
func (p *YFinanceProvider) Name() string { return "yfinance" }

type yfinanceResult struct {
	quote model.Quote
	err   error
}

// Quote fetches the current price and previous close for symbol.
func (p *YFinanceProvider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	// Buffered so the goroutine can exit after ctx is abandoned.
	ch := make(chan yfinanceResult, 1)

	go func() {
		ch <- fetchYFinance(symbol)
	}()

	select {
	case <-ctx.Done():
		return model.Quote{}, ctx.Err()
	case res := <-ch:
		return res.quote, res.err
	}
}

func fetchYFinance(symbol string) yfinanceResult {
	t, err := ticker.New(symbol)
	if err != nil {
		return yfinanceResult{err: fmt.Errorf("failed to create ticker: %w", err)}
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return yfinanceResult{err: fmt.Errorf("failed to fetch ticker info: %w", err)}
	}
	if info == nil {
		return yfinanceResult{err: fmt.Errorf("no ticker info for %s", symbol)}
	}

	var change float64
	if info.RegularMarketPreviousClose > 0 && info.CurrentPrice > 0 {
		change = info.CurrentPrice - info.RegularMarketPreviousClose
	}

	return yfinanceResult{quote: model.Quote{
		Symbol:       symbol,
		CurrentPrice: info.CurrentPrice,
		DailyChange:  change,
		FetchedAt:    time.Now().UTC(),
	}}
}
