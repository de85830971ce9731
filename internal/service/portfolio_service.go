package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
)

// LotStore reads a user's purchase lots in a stable order.
type LotStore interface {
	ListLotsForUser(ctx context.Context, userID string) ([]model.Lot, error)
}

// InstrumentLookup resolves a symbol to its catalogue entry.
// It returns apperrors.ErrInstrumentNotFound for unknown symbols.
type InstrumentLookup interface {
	GetInstrumentBySymbol(ctx context.Context, symbol string) (model.Instrument, error)
}

// QuoteFetcher returns a live quote with a strictly positive price.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
}

// PortfolioService values a user's holdings against live quotes.
// It holds no per-request state and is safe for concurrent use.
type PortfolioService struct {
	lots        LotStore
	instruments InstrumentLookup
	quotes      QuoteFetcher
	concurrency int
	log         zerolog.Logger
}

// NewPortfolioService creates a PortfolioService. concurrency bounds the number of
// quote fetches in flight for one valuation; values below 1 mean unbounded.
func NewPortfolioService(
	lots LotStore,
	instruments InstrumentLookup,
	quotes QuoteFetcher,
	concurrency int,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		lots:        lots,
		instruments: instruments,
		quotes:      quotes,
		concurrency: concurrency,
		log:         log.With().Str("component", "portfolio").Logger(),
	}
}

// lotGroup accumulates the unrounded totals of one instrument's lots.
type lotGroup struct {
	symbol      string
	lots        []model.Lot
	totalShares float64
	totalCost   float64
}

// groupLots groups lots by symbol. Groups appear in order of their first lot and
// lots keep their input order within a group.
func groupLots(lots []model.Lot) []*lotGroup {
	groups := make([]*lotGroup, 0)
	bySymbol := make(map[string]*lotGroup)

	for _, lot := range lots {
		g, ok := bySymbol[lot.Symbol]
		if !ok {
			g = &lotGroup{symbol: lot.Symbol}
			bySymbol[lot.Symbol] = g
			groups = append(groups, g)
		}
		g.lots = append(g.lots, lot)
		g.totalShares += lot.Shares
		g.totalCost += lot.PurchaseCost
	}
	return groups
}

// ComputePortfolio values every lot owned by userID at the current market price.
//
// Lots are grouped per instrument and each group is joined with its catalogue entry
// and a live quote. Quotes for distinct instruments are fetched concurrently; the
// first failure cancels the outstanding fetches and the whole call fails. There is
// no partial result: either every position is valued or none is returned.
//
// All arithmetic uses unrounded values. Only the emitted fields are rounded to two
// decimals, so the summary may differ from the sum of the rounded positions by a cent.
//
// Errors:
//   - *apperrors.QuoteUnavailableError (matches apperrors.ErrQuoteUnavailable) when any quote fails
//   - apperrors.ErrStoreUnavailable when lots or instruments cannot be read
//   - apperrors.ErrDataInconsistency when a lot references an unknown instrument
func (s *PortfolioService) ComputePortfolio(ctx context.Context, userID string) (*model.PortfolioResult, error) {
	lots, err := s.lots.ListLotsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	groups := groupLots(lots)

	instruments, err := s.resolveInstruments(ctx, userID, groups)
	if err != nil {
		return nil, err
	}

	quotes, err := s.fetchQuotes(ctx, groups)
	if err != nil {
		return nil, err
	}

	result := &model.PortfolioResult{
		Holdings: make([]model.InstrumentPosition, 0, len(groups)),
	}

	var portfolioCost, portfolioValue float64
	for i, g := range groups {
		position, marketValue := buildPosition(g, instruments[i], quotes[i])
		result.Holdings = append(result.Holdings, position)

		portfolioCost += g.totalCost
		portfolioValue += marketValue
	}

	portfolioProfitLoss := portfolioValue - portfolioCost
	result.Summary = model.PortfolioSummary{
		TotalCost:                 round(portfolioCost),
		TotalValue:                round(portfolioValue),
		TotalProfitLoss:           round(portfolioProfitLoss),
		TotalProfitLossPercentage: round(percentage(portfolioProfitLoss, portfolioCost)),
	}

	s.log.Debug().
		Str("user_id", userID).
		Int("lots", len(lots)).
		Int("positions", len(groups)).
		Msg("portfolio valued")

	return result, nil
}

func (s *PortfolioService) resolveInstruments(ctx context.Context, userID string, groups []*lotGroup) ([]model.Instrument, error) {
	instruments := make([]model.Instrument, len(groups))

	for i, g := range groups {
		inst, err := s.instruments.GetInstrumentBySymbol(ctx, g.symbol)
		if errors.Is(err, apperrors.ErrInstrumentNotFound) {
			s.log.Error().
				Str("user_id", userID).
				Str("symbol", g.symbol).
				Int("lots", len(g.lots)).
				Msg("holding references unknown instrument")
			return nil, fmt.Errorf("%w: symbol %s: %w", apperrors.ErrDataInconsistency, g.symbol, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
		}
		instruments[i] = inst
	}
	return instruments, nil
}

// fetchQuotes returns one quote per group, index-aligned with groups.
func (s *PortfolioService) fetchQuotes(ctx context.Context, groups []*lotGroup) ([]model.Quote, error) {
	quotes := make([]model.Quote, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, group := range groups {
		// Go blocks once the limit is reached; stop launching after a failure.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			quote, err := s.quotes.FetchQuote(gctx, group.symbol)
			if err != nil {
				var qe *apperrors.QuoteUnavailableError
				if !errors.As(err, &qe) {
					err = apperrors.NewQuoteUnavailable(group.symbol, err)
				}
				return err
			}
			quotes[i] = quote
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Int("instruments", len(groups)).Msg("portfolio valuation aborted")
		return nil, err
	}
	// The loop may have stopped early on a cancelled parent without any fetch failing.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("portfolio valuation cancelled: %w", err)
	}
	return quotes, nil
}

// buildPosition derives the rounded position for one group and returns it together
// with the unrounded market value for portfolio accumulation.
func buildPosition(g *lotGroup, inst model.Instrument, quote model.Quote) (model.InstrumentPosition, float64) {
	marketValue := quote.CurrentPrice * g.totalShares
	totalProfitLoss := marketValue - g.totalCost
	dailyProfitLoss := quote.DailyChange * g.totalShares

	purchases := make([]model.PurchaseBreakdown, 0, len(g.lots))
	for _, lot := range g.lots {
		purchases = append(purchases, model.PurchaseBreakdown{
			HoldingID:    lot.ID,
			PurchaseCost: round(lot.PurchaseCost),
			Shares:       round(lot.Shares),
			PurchaseDate: lot.PurchaseDate.Format("2006-01-02"),
		})
	}

	return model.InstrumentPosition{
		Symbol:                    g.symbol,
		Name:                      inst.Name,
		Sector:                    inst.Sector,
		TotalCost:                 round(g.totalCost),
		TotalShares:               round(g.totalShares),
		CurrentPrice:              round(quote.CurrentPrice),
		MarketValue:               round(marketValue),
		TotalProfitLoss:           round(totalProfitLoss),
		TotalProfitLossPercentage: round(percentage(totalProfitLoss, g.totalCost)),
		DailyProfitLoss:           round(dailyProfitLoss),
		DailyProfitLossPercentage: round(percentage(dailyProfitLoss, g.totalCost)),
		Purchases:                 purchases,
	}, marketValue
}
