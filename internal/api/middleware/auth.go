package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/finsight-ai/finsight-backend/internal/api/response"
	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/auth"
	"github.com/finsight-ai/finsight-backend/internal/model"
)

// UserLookup resolves the user a verified token names.
// It returns apperrors.ErrUserNotFound for deleted or unknown users.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// RequireUser authenticates requests carrying "Authorization: Bearer <token>"
// and stores the user id in the request context for handlers to read with
// auth.UserIDFromContext. The token must name an existing user. Anything else
// is answered with 401.
//
// Example usage in router:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(middleware.RequireUser(tokens, userService))
//	    r.Get("/me", userHandler.Me)
//	})
func RequireUser(tokens *auth.TokenManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "Not authenticated")
				return
			}

			userID, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, apperrors.ErrTokenExpired) {
					unauthorized(w, "Token has expired")
					return
				}
				unauthorized(w, "Could not validate credentials")
				return
			}

			if _, err := users.GetUser(r.Context(), userID); err != nil {
				if errors.Is(err, apperrors.ErrUserNotFound) {
					unauthorized(w, "Could not validate credentials")
					return
				}
				log.Error().Err(err).Str("user_id", userID).Msg("failed to load authenticated user")
				response.RespondError(w, http.StatusInternalServerError, "failed to authenticate", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	response.RespondError(w, http.StatusUnauthorized, message, nil)
}
