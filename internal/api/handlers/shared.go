package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/finsight-ai/finsight-backend/internal/api/response"
	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/auth"
	"github.com/finsight-ai/finsight-backend/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into a T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request body: %w", err)
	}
	return req, nil
}

// currentUser returns the user id placed in the context by the auth middleware.
// Routes reaching a handler without one are a wiring error and answer 401.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.RespondError(w, http.StatusUnauthorized, "Not authenticated", nil)
	}
	return userID, ok
}

// respondServiceError maps a service error to its HTTP status.
// fallback is the message used for unexpected failures.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrQuoteUnavailable):
		response.RespondError(w, http.StatusServiceUnavailable, "market data unavailable, try again later", err.Error())
	case errors.Is(err, apperrors.ErrSentimentUnavailable):
		response.RespondError(w, http.StatusServiceUnavailable, "sentiment analysis is not configured", nil)
	case errors.Is(err, apperrors.ErrDataInconsistency):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("data inconsistency")
		response.RespondError(w, http.StatusInternalServerError, fallback, nil)
	case errors.Is(err, apperrors.ErrInstrumentNotFound):
		response.RespondError(w, http.StatusNotFound, "Stock not found", nil)
	case errors.Is(err, apperrors.ErrHoldingNotFound):
		response.RespondError(w, http.StatusNotFound, "Holding not found", nil)
	case errors.Is(err, apperrors.ErrUserNotFound):
		response.RespondError(w, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, apperrors.ErrEmailTaken):
		response.RespondError(w, http.StatusBadRequest, "Email already registered", nil)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		response.RespondError(w, http.StatusBadRequest, "Incorrect email or password", nil)
	case errors.Is(err, apperrors.ErrInvalidDateRange), errors.Is(err, validation.ErrInvalidDateRange):
		response.RespondError(w, http.StatusBadRequest, "invalid date range", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		response.RespondError(w, http.StatusInternalServerError, fallback, nil)
	}
}
