package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/finsight-ai/finsight-backend/internal/api/handlers"
	custommiddleware "github.com/finsight-ai/finsight-backend/internal/api/middleware"
	"github.com/finsight-ai/finsight-backend/internal/auth"
	"github.com/finsight-ai/finsight-backend/internal/config"
	"github.com/finsight-ai/finsight-backend/internal/service"
)

// Services bundles everything the HTTP layer delegates to.
type Services struct {
	System    *service.SystemService
	Users     *service.UserService
	Holdings  *service.HoldingService
	Portfolio *service.PortfolioService
	Snapshots *service.SnapshotService
	Sentiment *service.SentimentService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, tokens *auth.TokenManager, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	r.Use(custommiddleware.NewCORS(cfg.CORS.AllowedOrigins))

	systemHandler := handlers.NewSystemHandler(svc.System)
	userHandler := handlers.NewUserHandler(svc.Users)
	holdingHandler := handlers.NewHoldingHandler(svc.Holdings, svc.Portfolio, svc.Sentiment)
	portfolioHandler := handlers.NewPortfolioHandler(svc.Snapshots)
	requireUser := custommiddleware.RequireUser(tokens, svc.Users)

	r.Get("/", handlers.Root)
	r.Get("/health", systemHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Get("/stats", systemHandler.Stats)
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/signup", userHandler.Signup)
			r.Post("/login", userHandler.Login)
			r.With(requireUser).Get("/me", userHandler.Me)
		})

		r.Route("/holdings", func(r chi.Router) {
			r.Get("/stocks/symbols", holdingHandler.Symbols)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/", holdingHandler.AddHolding)
				r.Get("/by-symbol", holdingHandler.HoldingsBySymbol)
				r.Get("/profit-loss", holdingHandler.ProfitLoss)
				r.Get("/news-sentiment", holdingHandler.NewsSentiment)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Put("/", holdingHandler.UpdateHolding)
					r.Delete("/", holdingHandler.DeleteHolding)
				})
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/snapshot", portfolioHandler.CaptureSnapshot)
			r.Get("/history", portfolioHandler.History)
		})
	})

	return r
}
