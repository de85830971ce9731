package model

// Sentiment labels produced by the news classifier.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// NewsArticle is a headline returned by the news search.
type NewsArticle struct {
	Title     string
	Publisher string
	Link      string
}

// ArticleSentiment is a classified headline.
type ArticleSentiment struct {
	Title      string  `json:"title"`
	Publisher  string  `json:"publisher"`
	Link       string  `json:"link"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// StockSentiment groups the classified headlines for one held instrument.
type StockSentiment struct {
	Symbol           string             `json:"stock_symbol"`
	Name             string             `json:"stock_name"`
	SentimentSummary map[string]int     `json:"sentiment_summary"`
	RelatedArticles  []ArticleSentiment `json:"related_articles"`
}

// NewsSentimentResult is the sentiment overview across every held instrument.
type NewsSentimentResult struct {
	OverallSentimentSummary map[string]int   `json:"overall_sentiment_summary"`
	HoldingsSentiment       []StockSentiment `json:"holdings_sentiment"`
}

// NewSentimentSummary returns a counter map with every label present at zero.
func NewSentimentSummary() map[string]int {
	return map[string]int{
		SentimentPositive: 0,
		SentimentNegative: 0,
		SentimentNeutral:  0,
	}
}
