package marketdata

import (
	"context"
	"fmt"

	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/yahoo"
)

// YahooNews adapts the Yahoo search endpoint to a headline source.
type YahooNews struct {
	client yahoo.Client
}

// NewYahooNews creates a headline source backed by client.
func NewYahooNews(client yahoo.Client) *YahooNews {
	return &YahooNews{client: client}
}

// SearchNews returns up to count recent headlines for symbol.
// Items without a title are dropped since there is nothing to classify.
func (n *YahooNews) SearchNews(ctx context.Context, symbol string, count int) ([]model.NewsArticle, error) {
	items, err := n.client.SearchNews(ctx, symbol, count)
	if err != nil {
		return nil, fmt.Errorf("failed to search news for %s: %w", symbol, err)
	}

	articles := make([]model.NewsArticle, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		articles = append(articles, model.NewsArticle{
			Title:     item.Title,
			Publisher: item.Publisher,
			Link:      item.Link,
		})
	}
	return articles, nil
}
