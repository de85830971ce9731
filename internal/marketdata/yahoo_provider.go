package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/yahoo"
)

// YahooProvider reads quotes from the Yahoo Finance chart endpoint.
type YahooProvider struct {
	client yahoo.Client
}

// NewYahooProvider creates a provider backed by client.
func NewYahooProvider(client yahoo.Client) *YahooProvider {
	return &YahooProvider{client: client}
}

// Name identifies the provider in logs.
func (p *YahooProvider) Name() string { return "yahoo" }

// Quote fetches and parses the live chart metadata for symbol.
func (p *YahooProvider) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	raw, err := p.client.QueryQuote(ctx, symbol)
	if err != nil {
		return model.Quote{}, fmt.Errorf("failed to query yahoo: %w", err)
	}

	q, err := p.client.ParseQuote(raw)
	if err != nil {
		return model.Quote{}, fmt.Errorf("failed to parse yahoo quote: %w", err)
	}

	return model.Quote{
		Symbol:       symbol,
		CurrentPrice: q.RegularMarketPrice,
		DailyChange:  q.Change,
		FetchedAt:    time.Now().UTC(),
	}, nil
}
