package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/finsight-ai/finsight-backend/internal/api"
	"github.com/finsight-ai/finsight-backend/internal/auth"
	"github.com/finsight-ai/finsight-backend/internal/config"
	"github.com/finsight-ai/finsight-backend/internal/database"
	"github.com/finsight-ai/finsight-backend/internal/logging"
	"github.com/finsight-ai/finsight-backend/internal/marketdata"
	"github.com/finsight-ai/finsight-backend/internal/repository"
	"github.com/finsight-ai/finsight-backend/internal/scheduler"
	"github.com/finsight-ai/finsight-backend/internal/sentiment"
	"github.com/finsight-ai/finsight-backend/internal/service"
	"github.com/finsight-ai/finsight-backend/internal/version"
	"github.com/finsight-ai/finsight-backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logging.SetGlobalLogger(log)

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Create repositories
	userRepo := repository.NewUserRepository(db)
	instrumentRepo := repository.NewInstrumentRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	// Market data
	yahooClient := yahoo.NewFinanceClient()
	gateway, closeCache := newGateway(cfg.Quotes, yahooClient, log)
	defer closeCache()

	tokens := newTokenManager(cfg.Auth, log)

	var classifier sentiment.Classifier
	if cfg.Sentiment.Endpoint != "" {
		classifier = sentiment.NewHTTPClassifier(cfg.Sentiment.Endpoint, cfg.Sentiment.APIToken, cfg.Sentiment.Timeout)
	} else {
		log.Warn().Msg("SENTIMENT_ENDPOINT not set, news sentiment disabled")
	}

	// Create services
	portfolioService := service.NewPortfolioService(holdingRepo, instrumentRepo, gateway, cfg.Quotes.Concurrency, log)
	snapshotService := service.NewSnapshotService(snapshotRepo, userRepo, portfolioService, log)
	services := api.Services{
		System: service.NewSystemService(db, map[string]bool{
			"sentiment":   classifier != nil,
			"snapshots":   cfg.Snapshot.Schedule != "",
			"quote_cache": cfg.Quotes.CacheTTL > 0,
		}),
		Users:     service.NewUserService(userRepo, tokens, bcrypt.DefaultCost, log),
		Holdings:  service.NewHoldingService(holdingRepo, instrumentRepo),
		Portfolio: portfolioService,
		Snapshots: snapshotService,
		Sentiment: service.NewSentimentService(
			holdingRepo,
			marketdata.NewYahooNews(yahooClient),
			classifier,
			cfg.Sentiment.NewsCount,
			log,
		),
	}

	if cfg.Snapshot.Schedule != "" {
		sched := scheduler.New(log)
		if err := sched.AddJob(cfg.Snapshot.Schedule, snapshotService); err != nil {
			log.Fatal().Err(err).Msg("failed to schedule snapshot job")
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Snapshot.OnStart {
			go func() {
				// Errors are logged by the scheduler.
				_ = sched.RunNow(snapshotService)
			}()
		}
	}

	// Create router
	router := api.NewRouter(services, tokens, cfg, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("version", version.Version).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}

// newGateway builds the quote gateway for the configured provider. The returned
// func releases the quote cache, if one was created.
func newGateway(cfg config.QuoteConfig, client yahoo.Client, log zerolog.Logger) (*marketdata.Gateway, func()) {
	var provider marketdata.Provider
	switch cfg.Provider {
	case "yfinance":
		provider = marketdata.NewYFinanceProvider()
	default:
		provider = marketdata.NewYahooProvider(client)
	}

	opts := []marketdata.Option{
		marketdata.WithTimeout(cfg.Timeout),
		marketdata.WithRetry(cfg.MaxRetries, cfg.RetryBackoff),
	}

	closeCache := func() {}
	if cfg.CacheTTL > 0 {
		cache, err := marketdata.NewQuoteCache(cfg.CacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create quote cache")
		}
		opts = append(opts, marketdata.WithCache(cache))
		closeCache = cache.Close
	}

	return marketdata.NewGateway(provider, log, opts...), closeCache
}

func newTokenManager(cfg config.AuthConfig, log zerolog.Logger) *auth.TokenManager {
	key := cfg.FernetKey
	if key == "" {
		generated, err := auth.GenerateKey()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to generate token key")
		}
		key = generated
		log.Warn().Msg("AUTH_FERNET_KEY not set, using an ephemeral key; tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenManager(key, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token configuration")
	}
	return tokens
}
