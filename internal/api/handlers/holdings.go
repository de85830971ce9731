package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finsight-ai/finsight-backend/internal/api/request"
	"github.com/finsight-ai/finsight-backend/internal/api/response"
	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/service"
	"github.com/finsight-ai/finsight-backend/internal/validation"
)

// HoldingHandler handles HTTP requests for the authenticated user's lots,
// their valuation and the news sentiment for held instruments.
type HoldingHandler struct {
	holdingService   *service.HoldingService
	portfolioService *service.PortfolioService
	sentimentService *service.SentimentService
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(
	holdingService *service.HoldingService,
	portfolioService *service.PortfolioService,
	sentimentService *service.SentimentService,
) *HoldingHandler {
	return &HoldingHandler{
		holdingService:   holdingService,
		portfolioService: portfolioService,
		sentimentService: sentimentService,
	}
}

// HoldingResponse is one purchase lot as returned by the API.
type HoldingResponse struct {
	ID           string  `json:"id"`
	StockSymbol  string  `json:"stock_symbol"`
	Shares       float64 `json:"shares"`
	PurchaseCost float64 `json:"purchase_cost"`
	PurchaseDate string  `json:"purchase_date"`
}

func toHoldingResponse(lot model.Lot) HoldingResponse {
	return HoldingResponse{
		ID:           lot.ID,
		StockSymbol:  lot.Symbol,
		Shares:       lot.Shares,
		PurchaseCost: lot.PurchaseCost,
		PurchaseDate: lot.PurchaseDate.Format("2006-01-02"),
	}
}

// AddHolding records a new lot.
//
// Endpoint: POST /api/holdings
// Request Body: CreateHoldingRequest (stock_symbol, shares, purchase_cost, purchase_date)
// Response: 201 Created with HoldingResponse
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the symbol is not in the catalogue
func (h *HoldingHandler) AddHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.CreateHoldingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateHolding(req); err != nil {
		respondServiceError(w, r, err, "failed to add holding")
		return
	}

	lot, err := h.holdingService.AddHolding(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, r, err, "failed to add holding")
		return
	}

	response.RespondJSON(w, http.StatusCreated, toHoldingResponse(*lot))
}

// HoldingsBySymbol lists the user's lots for one instrument.
//
// Endpoint: GET /api/holdings/by-symbol?stock_symbol=AAPL
// Error: 400 Bad Request if stock_symbol is missing
// Error: 404 Not Found if the user holds no lots of the symbol
func (h *HoldingHandler) HoldingsBySymbol(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	symbol := strings.TrimSpace(r.URL.Query().Get("stock_symbol"))
	if symbol == "" {
		response.RespondError(w, http.StatusBadRequest, "stock_symbol is required", nil)
		return
	}

	lots, err := h.holdingService.GetHoldingsBySymbol(r.Context(), userID, symbol)
	if err != nil {
		respondServiceError(w, r, err, "failed to retrieve holdings")
		return
	}

	out := make([]HoldingResponse, len(lots))
	for i, lot := range lots {
		out[i] = toHoldingResponse(lot)
	}
	response.RespondJSON(w, http.StatusOK, out)
}

// UpdateHolding applies a partial update to one lot.
//
// Endpoint: PUT /api/holdings/{uuid}
// Request Body: UpdateHoldingRequest (all fields optional)
// Response: 200 OK with HoldingResponse
// Error: 400 Bad Request if the id is invalid (validated by middleware) or validation fails
// Error: 404 Not Found if the lot does not exist or belongs to someone else
func (h *HoldingHandler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	holdingID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateHoldingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateHolding(req); err != nil {
		respondServiceError(w, r, err, "failed to update holding")
		return
	}

	lot, err := h.holdingService.UpdateHolding(r.Context(), userID, holdingID, req)
	if err != nil {
		respondServiceError(w, r, err, "failed to update holding")
		return
	}

	response.RespondJSON(w, http.StatusOK, toHoldingResponse(*lot))
}

// DeleteHolding removes one lot.
//
// Endpoint: DELETE /api/holdings/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the lot does not exist or belongs to someone else
func (h *HoldingHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.holdingService.DeleteHolding(r.Context(), userID, chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, r, err, "failed to delete holding")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// Symbols lists every symbol a lot may reference.
//
// Endpoint: GET /api/holdings/stocks/symbols
func (h *HoldingHandler) Symbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.holdingService.ListSymbols(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "failed to retrieve symbols")
		return
	}
	response.RespondJSON(w, http.StatusOK, symbols)
}

// ProfitLoss values the user's portfolio at current market prices.
//
// Endpoint: GET /api/holdings/profit-loss
// Response: 200 OK with PortfolioResult
// Error: 503 Service Unavailable if any quote cannot be fetched
// Error: 500 Internal Server Error if holdings cannot be read
func (h *HoldingHandler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.portfolioService.ComputePortfolio(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "failed to calculate portfolio")
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}

// NewsSentiment classifies recent headlines for every held instrument.
//
// Endpoint: GET /api/holdings/news-sentiment
// Error: 503 Service Unavailable if no classifier is configured
func (h *HoldingHandler) NewsSentiment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.sentimentService.AnalyzeUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "failed to analyze news sentiment")
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}
