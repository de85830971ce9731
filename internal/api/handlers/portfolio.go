package handlers

import (
	"net/http"
	"time"

	"github.com/finsight-ai/finsight-backend/internal/api/response"
	"github.com/finsight-ai/finsight-backend/internal/service"
	"github.com/finsight-ai/finsight-backend/internal/validation"
)

// PortfolioHandler serves stored portfolio snapshots.
type PortfolioHandler struct {
	snapshotService *service.SnapshotService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(snapshotService *service.SnapshotService) *PortfolioHandler {
	return &PortfolioHandler{
		snapshotService: snapshotService,
	}
}

// CaptureSnapshot values the user's portfolio now and stores it as today's snapshot.
//
// Endpoint: POST /api/portfolio/snapshot
// Response: 201 Created with PortfolioSnapshot
// Error: 503 Service Unavailable if any quote cannot be fetched
func (h *PortfolioHandler) CaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	snap, err := h.snapshotService.CaptureForUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "failed to capture snapshot")
		return
	}
	response.RespondJSON(w, http.StatusCreated, snap)
}

// History returns the user's snapshots in date order. A missing start_date
// defaults to 1970-01-01 and a missing end_date to today; at least one is required.
//
// Endpoint: GET /api/portfolio/history?start_date=2024-01-01&end_date=2024-12-31
// Error: 400 Bad Request if both dates are missing, malformed or out of order
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	startStr := r.URL.Query().Get("start_date")
	endStr := r.URL.Query().Get("end_date")
	if startStr == "" && endStr == "" {
		response.RespondError(w, http.StatusBadRequest, "start_date and/or end_date are required", nil)
		return
	}

	startDate := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Now().UTC()

	var err error
	if startStr != "" {
		if startDate, err = validation.ParseTime(startStr); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid start_date", err.Error())
			return
		}
	}
	if endStr != "" {
		if endDate, err = validation.ParseTime(endStr); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid end_date", err.Error())
			return
		}
	}

	if err := validation.ValidateDateRange(startDate, endDate); err != nil {
		respondServiceError(w, r, err, "failed to retrieve history")
		return
	}

	history, err := h.snapshotService.GetHistory(r.Context(), userID, startDate, endDate)
	if err != nil {
		respondServiceError(w, r, err, "failed to retrieve history")
		return
	}
	response.RespondJSON(w, http.StatusOK, history)
}
