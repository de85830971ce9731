package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
// Only the metadata block is decoded: it carries the live price and previous close
// needed for a quote, so the OHLCV arrays are skipped.
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level chart envelope.
type Chart struct {
	Result []Result  `json:"result"`
	Error  *APIError `json:"error"`
}

// Result is one chart result; Yahoo returns a single element per symbol.
type Result struct {
	Meta Meta `json:"meta"`
}

// Meta holds symbol metadata and the current market state.
type Meta struct {
	Currency           string  `json:"currency"`
	Symbol             string  `json:"symbol"`
	ExchangeName       string  `json:"exchangeName"`
	FullExchangeName   string  `json:"fullExchangeName"`
	LongName           string  `json:"longName"`
	ShortName          string  `json:"shortName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	PreviousClose      float64 `json:"previousClose"`
}

// APIError is the error object Yahoo embeds in chart responses.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Quote is the parsed live quote for one symbol.
// Change is the per-share move since the previous close, zero when no close is known.
type Quote struct {
	Symbol             string
	Currency           string
	LongName           string
	RegularMarketPrice float64
	PreviousClose      float64
	Change             float64
	MarketTime         time.Time
}

// SearchResponse is the subset of the Yahoo search API used for news.
type SearchResponse struct {
	News []NewsItem `json:"news"`
}

// NewsItem is one headline from the search API.
type NewsItem struct {
	UUID                string `json:"uuid"`
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
}
