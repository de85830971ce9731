package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/sentiment"
)

// HeldInstrumentLister lists the distinct instruments a user holds.
type HeldInstrumentLister interface {
	ListInstrumentsForUser(ctx context.Context, userID string) ([]model.Instrument, error)
}

// NewsSource returns recent headlines for a symbol.
type NewsSource interface {
	SearchNews(ctx context.Context, symbol string, count int) ([]model.NewsArticle, error)
}

// SentimentService classifies recent news for every instrument a user holds.
type SentimentService struct {
	holdings   HeldInstrumentLister
	news       NewsSource
	classifier sentiment.Classifier
	newsCount  int
	log        zerolog.Logger
}

// NewSentimentService creates a SentimentService. A nil classifier makes every
// analysis fail with apperrors.ErrSentimentUnavailable.
func NewSentimentService(
	holdings HeldInstrumentLister,
	news NewsSource,
	classifier sentiment.Classifier,
	newsCount int,
	log zerolog.Logger,
) *SentimentService {
	return &SentimentService{
		holdings:   holdings,
		news:       news,
		classifier: classifier,
		newsCount:  newsCount,
		log:        log.With().Str("component", "sentiment").Logger(),
	}
}

// AnalyzeUser classifies recent headlines for each instrument the user holds.
//
// Instruments whose news cannot be fetched, that have no news, or whose headlines
// fail classification are skipped and logged; they contribute nothing to the
// overall counts. Missing publisher and link default to "Unknown" and "#".
func (s *SentimentService) AnalyzeUser(ctx context.Context, userID string) (*model.NewsSentimentResult, error) {
	if s.classifier == nil {
		return nil, apperrors.ErrSentimentUnavailable
	}

	instruments, err := s.holdings.ListInstrumentsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	result := &model.NewsSentimentResult{
		OverallSentimentSummary: model.NewSentimentSummary(),
		HoldingsSentiment:       []model.StockSentiment{},
	}

	for _, inst := range instruments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stock, err := s.analyzeInstrument(ctx, inst)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("skipping sentiment for instrument")
			continue
		}
		if stock == nil {
			continue
		}

		for label, count := range stock.SentimentSummary {
			result.OverallSentimentSummary[label] += count
		}
		result.HoldingsSentiment = append(result.HoldingsSentiment, *stock)
	}

	return result, nil
}

// analyzeInstrument returns nil without error when the instrument has no news.
func (s *SentimentService) analyzeInstrument(ctx context.Context, inst model.Instrument) (*model.StockSentiment, error) {
	articles, err := s.news.SearchNews(ctx, inst.Symbol, s.newsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	if len(articles) == 0 {
		return nil, nil
	}

	stock := &model.StockSentiment{
		Symbol:           inst.Symbol,
		Name:             inst.Name,
		SentimentSummary: model.NewSentimentSummary(),
		RelatedArticles:  make([]model.ArticleSentiment, 0, len(articles)),
	}

	for _, article := range articles {
		prediction, err := s.classifier.Classify(ctx, article.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to classify headline: %w", err)
		}

		stock.SentimentSummary[prediction.Label]++
		stock.RelatedArticles = append(stock.RelatedArticles, model.ArticleSentiment{
			Title:      article.Title,
			Publisher:  orDefault(article.Publisher, "Unknown"),
			Link:       orDefault(article.Link, "#"),
			Sentiment:  prediction.Label,
			Confidence: roundTo(prediction.Score, 4),
		})
	}

	return stock, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
