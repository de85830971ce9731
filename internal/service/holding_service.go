package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-ai/finsight-backend/internal/api/request"
	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/repository"
)

// HoldingService handles lot CRUD for authenticated users.
type HoldingService struct {
	holdingRepo    *repository.HoldingRepository
	instrumentRepo *repository.InstrumentRepository
}

// NewHoldingService creates a new HoldingService.
func NewHoldingService(
	holdingRepo *repository.HoldingRepository,
	instrumentRepo *repository.InstrumentRepository,
) *HoldingService {
	return &HoldingService{
		holdingRepo:    holdingRepo,
		instrumentRepo: instrumentRepo,
	}
}

// AddHolding records a new lot for userID. The symbol is upper-cased and must
// exist in the instrument catalogue, otherwise apperrors.ErrInstrumentNotFound is returned.
func (s *HoldingService) AddHolding(ctx context.Context, userID string, req request.CreateHoldingRequest) (*model.Lot, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.StockSymbol))

	if _, err := s.instrumentRepo.GetInstrumentBySymbol(ctx, symbol); err != nil {
		return nil, err
	}

	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase date: %w", err)
	}

	lot := &model.Lot{
		ID:           uuid.New().String(),
		UserID:       userID,
		Symbol:       symbol,
		Shares:       req.Shares,
		PurchaseCost: req.PurchaseCost,
		PurchaseDate: purchaseDate,
	}

	if err := s.holdingRepo.InsertLot(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// GetHoldingsBySymbol returns the user's lots for one instrument.
// Returns apperrors.ErrHoldingNotFound when the user holds none.
func (s *HoldingService) GetHoldingsBySymbol(ctx context.Context, userID, symbol string) ([]model.Lot, error) {
	lots, err := s.holdingRepo.ListLotsForUserAndSymbol(ctx, userID, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return nil, apperrors.ErrHoldingNotFound
	}
	return lots, nil
}

// UpdateHolding applies a partial update to one of the user's lots.
// The write is a single statement; a concurrent valuation sees either the old or the new lot.
func (s *HoldingService) UpdateHolding(ctx context.Context, userID, id string, req request.UpdateHoldingRequest) (*model.Lot, error) {
	lot, err := s.holdingRepo.GetLot(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Shares != nil {
		lot.Shares = *req.Shares
	}
	if req.PurchaseCost != nil {
		lot.PurchaseCost = *req.PurchaseCost
	}
	if req.PurchaseDate != nil {
		lot.PurchaseDate, err = time.Parse("2006-01-02", *req.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("invalid purchase date: %w", err)
		}
	}

	if err := s.holdingRepo.UpdateLot(ctx, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}

// DeleteHolding removes one of the user's lots.
func (s *HoldingService) DeleteHolding(ctx context.Context, userID, id string) error {
	return s.holdingRepo.DeleteLot(ctx, id, userID)
}

// ListSymbols returns every symbol a lot may reference.
func (s *HoldingService) ListSymbols(ctx context.Context) ([]string, error) {
	return s.instrumentRepo.ListSymbols(ctx)
}
