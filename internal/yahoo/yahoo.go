package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
)

// Client is the subset of FinanceClient used by the market data gateway and
// the sentiment service. It exists so tests can substitute canned responses.
type Client interface {
	QueryQuote(ctx context.Context, symbol string) (Response, error)
	ParseQuote(yahooResult Response) (Quote, error)
	SearchNews(ctx context.Context, symbol string, count int) ([]NewsItem, error)
}

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
// It wraps an HTTP client and provides convenient methods for querying live quotes
// and related news headlines.
type FinanceClient struct {
	httpClient *http.Client
	chartURL   string
	searchURL  string
}

// NewFinanceClient creates a new Yahoo Finance client with default HTTP settings.
// Request deadlines come from the caller's context.
func NewFinanceClient() *FinanceClient {
	return NewFinanceClientWithURLs(defaultChartURL, defaultSearchURL)
}

// NewFinanceClientWithURLs creates a client against alternative chart and search
// endpoints, typically an httptest server.
func NewFinanceClientWithURLs(chartURL, searchURL string) *FinanceClient {
	return &FinanceClient{
		httpClient: &http.Client{},
		chartURL:   chartURL,
		searchURL:  searchURL,
	}
}

// QueryQuote fetches the current trading day's chart metadata for a symbol.
//
// Returns:
//   - Response: Raw API response containing the market metadata
//   - error: If the HTTP request fails, the API returns an error, or no results are found
func (c *FinanceClient) QueryQuote(ctx context.Context, symbol string) (Response, error) {
	endpoint := fmt.Sprintf("%s/%s?interval=1d&range=1d", c.chartURL, url.PathEscape(symbol))

	var response Response
	status, err := c.getJSON(ctx, endpoint, &response)
	if err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if status != http.StatusOK {
		return Response{}, fmt.Errorf("yahoo returned status %d for %s", status, symbol)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	return response, nil
}

// ParseQuote converts a raw chart response into a Quote.
// The previous close prefers the explicit previousClose field and falls back to
// chartPreviousClose, which for a one-day range is the prior session's close.
func (c *FinanceClient) ParseQuote(yahooResult Response) (Quote, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no chart result to parse")
	}
	meta := yahooResult.Chart.Result[0].Meta

	previousClose := meta.PreviousClose
	if previousClose <= 0 {
		previousClose = meta.ChartPreviousClose
	}

	var change float64
	if previousClose > 0 && meta.RegularMarketPrice > 0 {
		change = meta.RegularMarketPrice - previousClose
	}

	var marketTime time.Time
	if meta.RegularMarketTime > 0 {
		marketTime = time.Unix(meta.RegularMarketTime, 0).UTC()
	}

	return Quote{
		Symbol:             meta.Symbol,
		Currency:           meta.Currency,
		LongName:           meta.LongName,
		RegularMarketPrice: meta.RegularMarketPrice,
		PreviousClose:      previousClose,
		Change:             change,
		MarketTime:         marketTime,
	}, nil
}

// SearchNews returns up to count recent headlines mentioning symbol.
func (c *FinanceClient) SearchNews(ctx context.Context, symbol string, count int) ([]NewsItem, error) {
	params := url.Values{}
	params.Set("q", symbol)
	params.Set("newsCount", fmt.Sprint(count))
	params.Set("quotesCount", "0")

	var response SearchResponse
	status, err := c.getJSON(ctx, c.searchURL+"?"+params.Encode(), &response)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo search returned status %d for %s", status, symbol)
	}

	if len(response.News) > count {
		response.News = response.News[:count]
	}
	return response.News, nil
}

// getJSON executes a GET request against Yahoo and decodes the body into out.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
//
// The HTTP status is returned alongside so callers can inspect Yahoo's
// JSON error payloads, which arrive with non-200 codes.
func (c *FinanceClient) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("failed to decode yahoo response: %w", err)
	}

	return resp.StatusCode, nil
}
