package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// NewCORS returns the CORS handler for the API. Browsers authenticate with a bearer
// header, so credentials are only allowed when no wildcard origin is configured.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	})
}
