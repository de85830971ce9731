package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/service"
	"github.com/finsight-ai/finsight-backend/internal/testutil"
)

// TestPortfolioService_ComputePortfolio_AcmeExample walks the reference valuation:
// two lots of one instrument merged with a single live quote.
//
// WHY: this is the contract the dashboard renders. Every derived field must match
// the hand-computed figures to the cent.
func TestPortfolioService_ComputePortfolio_AcmeExample(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	provider := testutil.NewMockQuoteProvider().WithQuote("ACME", 60, 1.5)
	svc := testutil.NewTestPortfolioService(t, db, provider)

	user := testutil.CreateUser(t, db)
	testutil.CreateInstrument(t, db, "ACME", "Acme Corp")
	lot1 := testutil.NewHolding(user.ID, "ACME").
		WithShares(10).
		WithPurchaseCost(500).
		WithPurchaseDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)).
		Build(t, db)
	lot2 := testutil.NewHolding(user.ID, "ACME").
		WithShares(5).
		WithPurchaseCost(260).
		WithPurchaseDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)).
		Build(t, db)

	// Execute
	result, err := svc.ComputePortfolio(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Holdings, 1)

	pos := result.Holdings[0]
	assert.Equal(t, "ACME", pos.Symbol)
	assert.Equal(t, "Acme Corp", pos.Name)
	assert.Equal(t, 15.0, pos.TotalShares)
	assert.Equal(t, 760.0, pos.TotalCost)
	assert.Equal(t, 60.0, pos.CurrentPrice)
	assert.Equal(t, 900.0, pos.MarketValue)
	assert.Equal(t, 140.0, pos.TotalProfitLoss)
	assert.Equal(t, 18.42, pos.TotalProfitLossPercentage)
	assert.Equal(t, 22.5, pos.DailyProfitLoss)
	assert.Equal(t, 2.96, pos.DailyProfitLossPercentage)

	require.Len(t, pos.Purchases, 2)
	assert.Equal(t, model.PurchaseBreakdown{HoldingID: lot1.ID, PurchaseCost: 500, Shares: 10, PurchaseDate: "2024-01-02"}, pos.Purchases[0])
	assert.Equal(t, model.PurchaseBreakdown{HoldingID: lot2.ID, PurchaseCost: 260, Shares: 5, PurchaseDate: "2024-03-15"}, pos.Purchases[1])

	assert.Equal(t, model.PortfolioSummary{
		TotalCost:                 760,
		TotalValue:                900,
		TotalProfitLoss:           140,
		TotalProfitLossPercentage: 18.42,
	}, result.Summary)

	assert.Equal(t, 1, provider.Calls("ACME"), "one quote per instrument, not per lot")
}

// WHY: a new user must see an empty dashboard, not an error, and the JSON
// must carry [] rather than null for the holdings list.
func TestPortfolioService_ComputePortfolio_EmptyPortfolio(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	provider := testutil.NewMockQuoteProvider()
	svc := testutil.NewTestPortfolioService(t, db, provider)
	user := testutil.CreateUser(t, db)

	// Execute
	result, err := svc.ComputePortfolio(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, model.PortfolioSummary{}, result.Summary)
	assert.NotNil(t, result.Holdings)
	assert.Empty(t, result.Holdings)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"holdings":[]`)
}

func TestPortfolioService_ComputePortfolio_MultiInstrument(t *testing.T) {
	t.Run("summary equals sum of positions and groups keep first-seen order", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockQuoteProvider().
			WithQuote("AAPL", 200, -2).
			WithQuote("ACME", 60, 1.5)
		svc := testutil.NewTestPortfolioService(t, db, provider)

		user := testutil.CreateUser(t, db)
		testutil.CreateInstrument(t, db, "ACME", "Acme Corp")
		first := testutil.CreateHolding(t, db, user.ID, "AAPL", 2, 300)
		testutil.CreateHolding(t, db, user.ID, "ACME", 10, 500)
		last := testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 180)

		// Execute
		result, err := svc.ComputePortfolio(context.Background(), user.ID)

		// Assert
		require.NoError(t, err)
		require.Len(t, result.Holdings, 2)
		assert.Equal(t, "AAPL", result.Holdings[0].Symbol)
		assert.Equal(t, "ACME", result.Holdings[1].Symbol)

		aapl := result.Holdings[0]
		require.Len(t, aapl.Purchases, 2)
		assert.Equal(t, first.ID, aapl.Purchases[0].HoldingID)
		assert.Equal(t, last.ID, aapl.Purchases[1].HoldingID)
		assert.Equal(t, 600.0, aapl.MarketValue)
		assert.Equal(t, -6.0, aapl.DailyProfitLoss)

		var cost, value float64
		for _, p := range result.Holdings {
			cost += p.TotalCost
			value += p.MarketValue
		}
		assert.InDelta(t, cost, result.Summary.TotalCost, 1e-9)
		assert.InDelta(t, value, result.Summary.TotalValue, 1e-9)
		assert.Equal(t, 1200.0, result.Summary.TotalValue)
		assert.Equal(t, 980.0, result.Summary.TotalCost)
		assert.Equal(t, 220.0, result.Summary.TotalProfitLoss)
		assert.Equal(t, 22.45, result.Summary.TotalProfitLossPercentage)
	})

	// WHY: no lot may be dropped or double counted while grouping.
	t.Run("total shares and cost equal the sum over input lots", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockQuoteProvider().
			WithQuote("AAPL", 10, 0).
			WithQuote("MSFT", 20, 0).
			WithQuote("KO", 30, 0)
		svc := testutil.NewTestPortfolioService(t, db, provider)
		user := testutil.CreateUser(t, db)

		symbols := []string{"AAPL", "MSFT", "KO", "MSFT", "AAPL", "KO", "KO", "AAPL"}
		var wantShares, wantCost float64
		for i, sym := range symbols {
			shares := float64(i+1) * 1.25
			cost := float64(i+1) * 100.5
			testutil.CreateHolding(t, db, user.ID, sym, shares, cost)
			wantShares += shares
			wantCost += cost
		}

		// Execute
		result, err := svc.ComputePortfolio(context.Background(), user.ID)

		// Assert
		require.NoError(t, err)
		require.Len(t, result.Holdings, 3)

		var gotShares, gotCost float64
		lots := 0
		for _, p := range result.Holdings {
			gotShares += p.TotalShares
			gotCost += p.TotalCost
			lots += len(p.Purchases)
		}
		assert.Equal(t, len(symbols), lots)
		assert.InDelta(t, wantShares, gotShares, 1e-9)
		assert.InDelta(t, wantCost, gotCost, 1e-9)
		assert.InDelta(t, wantCost, result.Summary.TotalCost, 1e-9)
	})

	t.Run("only the requesting user's lots are valued", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockQuoteProvider().WithQuote("AAPL", 10, 0).WithQuote("MSFT", 10, 0)
		svc := testutil.NewTestPortfolioService(t, db, provider)

		alice := testutil.CreateUser(t, db)
		bob := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, alice.ID, "AAPL", 1, 5)
		testutil.CreateHolding(t, db, bob.ID, "MSFT", 1, 5)

		// Execute
		result, err := svc.ComputePortfolio(context.Background(), alice.ID)

		// Assert
		require.NoError(t, err)
		require.Len(t, result.Holdings, 1)
		assert.Equal(t, "AAPL", result.Holdings[0].Symbol)
		assert.Zero(t, provider.Calls("MSFT"))
	})
}

// WHY: gifted or zero-cost lots are legal; percentages must be 0, never NaN or Inf.
func TestPortfolioService_ComputePortfolio_ZeroCost(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	provider := testutil.NewMockQuoteProvider().WithQuote("AAPL", 5, 1)
	svc := testutil.NewTestPortfolioService(t, db, provider)
	user := testutil.CreateUser(t, db)
	testutil.CreateHolding(t, db, user.ID, "AAPL", 10, 0)

	// Execute
	result, err := svc.ComputePortfolio(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	pos := result.Holdings[0]
	assert.Equal(t, 50.0, pos.TotalProfitLoss)
	assert.Equal(t, 10.0, pos.DailyProfitLoss)
	assert.Zero(t, pos.TotalProfitLossPercentage)
	assert.Zero(t, pos.DailyProfitLossPercentage)
	assert.Zero(t, result.Summary.TotalProfitLossPercentage)

	_, err = json.Marshal(result)
	assert.NoError(t, err, "NaN or Inf would fail JSON encoding")
}

// WHY: rounding each position and then summing the rounded values drifts;
// totals must come from unrounded values and be rounded once.
func TestPortfolioService_ComputePortfolio_RoundsOnlyOnOutput(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	provider := testutil.NewMockQuoteProvider().
		WithQuote("AAPL", 0.004, 0).
		WithQuote("MSFT", 0.004, 0)
	svc := testutil.NewTestPortfolioService(t, db, provider)
	user := testutil.CreateUser(t, db)
	testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 0.004)
	testutil.CreateHolding(t, db, user.ID, "MSFT", 1, 0.004)

	// Execute
	result, err := svc.ComputePortfolio(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	for _, p := range result.Holdings {
		assert.Zero(t, p.TotalCost, "each position rounds 0.004 down")
		assert.Zero(t, p.MarketValue)
	}
	assert.Equal(t, 0.01, result.Summary.TotalCost, "summary rounds the unrounded 0.008")
	assert.Equal(t, 0.01, result.Summary.TotalValue)
}

func TestPortfolioService_ComputePortfolio_RoundingOfFractionalLot(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	provider := testutil.NewMockQuoteProvider().WithQuote("AAPL", 30, 0.333)
	svc := testutil.NewTestPortfolioService(t, db, provider)
	user := testutil.CreateUser(t, db)
	testutil.CreateHolding(t, db, user.ID, "AAPL", 3.333, 100.005)

	// Execute
	result, err := svc.ComputePortfolio(context.Background(), user.ID)

	// Assert
	require.NoError(t, err)
	pos := result.Holdings[0]
	// 100.005 is stored just below the tie.
	assert.Equal(t, 100.0, pos.TotalCost)
	assert.Equal(t, 3.33, pos.TotalShares)
	assert.Equal(t, 99.99, pos.MarketValue)
	// Derived from the unrounded 99.99 - 100.005, just above -0.015.
	assert.Equal(t, -0.01, pos.TotalProfitLoss)
	assert.Equal(t, -0.01, pos.TotalProfitLossPercentage)
	assert.Equal(t, 1.11, pos.DailyProfitLoss)
	assert.Equal(t, 100.0, pos.Purchases[0].PurchaseCost)
	assert.Equal(t, 3.33, pos.Purchases[0].Shares)
}

func TestPortfolioService_ComputePortfolio_QuoteFailures(t *testing.T) {
	// WHY: a valuation with a missing price is unusable; the whole call must fail
	// and slow sibling fetches must be cancelled rather than waited out.
	t.Run("one failing quote aborts and cancels siblings", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockQuoteProvider().
			WithQuote("AAPL", 100, 1).
			WithDelay("AAPL", 10*time.Second).
			WithError("MSFT", errors.New("upstream 502"))
		svc := testutil.NewTestPortfolioService(t, db, provider)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)
		testutil.CreateHolding(t, db, user.ID, "MSFT", 1, 100)

		// Execute
		start := time.Now()
		result, err := svc.ComputePortfolio(context.Background(), user.ID)
		elapsed := time.Since(start)

		// Assert
		require.Error(t, err)
		assert.Nil(t, result, "no partial result")
		assert.ErrorIs(t, err, apperrors.ErrQuoteUnavailable)

		var qe *apperrors.QuoteUnavailableError
		require.True(t, errors.As(err, &qe))
		assert.Equal(t, "MSFT", qe.Symbol)

		assert.Less(t, elapsed, testutil.TestQuoteTimeout, "must not wait for the slow fetch")
		assert.True(t, provider.Cancelled("AAPL"))
	})

	t.Run("non-positive price is unavailable", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockQuoteProvider().WithQuote("AAPL", 0, 0)
		svc := testutil.NewTestPortfolioService(t, db, provider)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

		// Execute
		_, err := svc.ComputePortfolio(context.Background(), user.ID)

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrQuoteUnavailable)
	})

	t.Run("slow provider hits the per-fetch timeout", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		provider := testutil.NewMockQuoteProvider().
			WithQuote("AAPL", 100, 1).
			WithDelay("AAPL", time.Minute)
		svc := testutil.NewTestPortfolioService(t, db, provider)
		user := testutil.CreateUser(t, db)
		testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

		// Execute
		_, err := svc.ComputePortfolio(context.Background(), user.ID)

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrQuoteUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("plain fetcher errors are wrapped with the symbol", func(t *testing.T) {
		// Setup
		svc := service.NewPortfolioService(
			fakeLots{lots: []model.Lot{{ID: "l1", Symbol: "ACME", Shares: 1, PurchaseCost: 1}}},
			fakeInstruments{"ACME": {Symbol: "ACME", Name: "Acme"}},
			fakeFetcher{err: errors.New("boom")},
			1,
			testutil.NewTestLogger(),
		)

		// Execute
		_, err := svc.ComputePortfolio(context.Background(), "u1")

		// Assert
		var qe *apperrors.QuoteUnavailableError
		require.True(t, errors.As(err, &qe))
		assert.Equal(t, "ACME", qe.Symbol)
	})
}

func TestPortfolioService_ComputePortfolio_StoreFailures(t *testing.T) {
	t.Run("unreadable lot store is StoreUnavailable", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockQuoteProvider())
		db.Close()

		// Execute
		_, err := svc.ComputePortfolio(context.Background(), testutil.MakeID())

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})

	// WHY: silently skipping a lot with an unknown instrument would break the
	// sum-of-lots invariant, so it must fail the request.
	t.Run("lot referencing unknown instrument is a data inconsistency", func(t *testing.T) {
		// Setup
		fetcher := &countingFetcher{}
		svc := service.NewPortfolioService(
			fakeLots{lots: []model.Lot{
				{ID: "l1", Symbol: "ACME", Shares: 1, PurchaseCost: 1},
				{ID: "l2", Symbol: "GHOST", Shares: 1, PurchaseCost: 1},
			}},
			fakeInstruments{"ACME": {Symbol: "ACME", Name: "Acme"}},
			fetcher,
			1,
			testutil.NewTestLogger(),
		)

		// Execute
		result, err := svc.ComputePortfolio(context.Background(), "u1")

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrDataInconsistency)
		assert.ErrorIs(t, err, apperrors.ErrInstrumentNotFound)
		assert.Zero(t, fetcher.calls, "no quotes fetched for an inconsistent portfolio")
	})

	t.Run("instrument lookup failure is StoreUnavailable", func(t *testing.T) {
		svc := service.NewPortfolioService(
			fakeLots{lots: []model.Lot{{ID: "l1", Symbol: "ACME"}}},
			failingInstruments{},
			&countingFetcher{},
			1,
			testutil.NewTestLogger(),
		)

		_, err := svc.ComputePortfolio(context.Background(), "u1")
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})
}

func TestPortfolioService_ComputePortfolio_CancelledContext(t *testing.T) {
	svc := service.NewPortfolioService(
		fakeLots{lots: []model.Lot{{ID: "l1", Symbol: "ACME", Shares: 1, PurchaseCost: 1}}},
		fakeInstruments{"ACME": {Symbol: "ACME"}},
		&countingFetcher{},
		1,
		testutil.NewTestLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.ComputePortfolio(ctx, "u1")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeLots struct {
	lots []model.Lot
	err  error
}

func (f fakeLots) ListLotsForUser(_ context.Context, _ string) ([]model.Lot, error) {
	return f.lots, f.err
}

type fakeInstruments map[string]model.Instrument

func (f fakeInstruments) GetInstrumentBySymbol(_ context.Context, symbol string) (model.Instrument, error) {
	inst, ok := f[symbol]
	if !ok {
		return model.Instrument{}, apperrors.ErrInstrumentNotFound
	}
	return inst, nil
}

type failingInstruments struct{}

func (failingInstruments) GetInstrumentBySymbol(_ context.Context, _ string) (model.Instrument, error) {
	return model.Instrument{}, errors.New("database is locked")
}

type fakeFetcher struct {
	err error
}

func (f fakeFetcher) FetchQuote(_ context.Context, symbol string) (model.Quote, error) {
	if f.err != nil {
		return model.Quote{}, f.err
	}
	return model.Quote{Symbol: symbol, CurrentPrice: 1}, nil
}

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return model.Quote{}, err
	}
	return model.Quote{Symbol: symbol, CurrentPrice: 1}, nil
}
