package marketdata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/marketdata"
	"github.com/finsight-ai/finsight-backend/internal/testutil"
	"github.com/finsight-ai/finsight-backend/internal/yahoo"
)

func newYahooServer(t *testing.T, chart, search string) *yahoo.FinanceClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chart/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chart))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(search))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return yahoo.NewFinanceClientWithURLs(srv.URL+"/chart", srv.URL+"/search")
}

func TestYahooProvider_Quote(t *testing.T) {
	t.Run("price and change come from chart metadata", func(t *testing.T) {
		// Setup
		client := newYahooServer(t, `{"chart":{"result":[{"meta":{"symbol":"ACME","regularMarketPrice":60,"chartPreviousClose":58.5}}],"error":null}}`, `{}`)
		gw := testutil.NewTestGateway(marketdata.NewYahooProvider(client))

		// Execute
		quote, err := gw.FetchQuote(context.Background(), "ACME")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 60.0, quote.CurrentPrice)
		assert.InDelta(t, 1.5, quote.DailyChange, 1e-9)
	})

	t.Run("missing price surfaces as unavailable", func(t *testing.T) {
		client := newYahooServer(t, `{"chart":{"result":[{"meta":{"symbol":"ACME"}}],"error":null}}`, `{}`)
		gw := testutil.NewTestGateway(marketdata.NewYahooProvider(client))

		_, err := gw.FetchQuote(context.Background(), "ACME")

		assert.ErrorIs(t, err, apperrors.ErrQuoteUnavailable)
	})
}

func TestYahooNews_SearchNews(t *testing.T) {
	// Setup
	client := newYahooServer(t, `{}`, `{"news":[
		{"title":"Acme soars","publisher":"Reuters","link":"https://example.com/a"},
		{"title":""},
		{"title":"Acme slips"}
	]}`)
	news := marketdata.NewYahooNews(client)

	// Execute
	articles, err := news.SearchNews(context.Background(), "ACME", 5)

	// Assert
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Acme soars", articles[0].Title)
	assert.Equal(t, "Reuters", articles[0].Publisher)
	assert.Equal(t, "Acme slips", articles[1].Title)
	assert.Empty(t, articles[1].Publisher)
}
