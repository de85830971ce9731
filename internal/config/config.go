package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	Quotes    QuoteConfig
	Auth      AuthConfig
	Sentiment SentimentConfig
	Snapshot  SnapshotConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"5001"`
	Host string `env:"SERVER_HOST" envDefault:"localhost"`
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string `env:"DB_PATH" envDefault:"./data/finsight.db"`
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// QuoteConfig controls how live quotes are fetched.
//
// A CacheTTL of zero disables quote caching and MaxRetries of zero disables
// retries, so every valuation reflects a fresh fetch by default.
type QuoteConfig struct {
	Provider     string        `env:"QUOTE_PROVIDER" envDefault:"yahoo"`
	Timeout      time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`
	Concurrency  int           `env:"QUOTE_CONCURRENCY" envDefault:"4"`
	CacheTTL     time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"0s"`
	MaxRetries   int           `env:"QUOTE_MAX_RETRIES" envDefault:"0"`
	RetryBackoff time.Duration `env:"QUOTE_RETRY_BACKOFF" envDefault:"200ms"`
}

// AuthConfig holds the bearer token settings.
// An empty FernetKey makes the server generate an ephemeral key at startup.
type AuthConfig struct {
	FernetKey string        `env:"AUTH_FERNET_KEY"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"30m"`
}

// SentimentConfig points at the text classification endpoint used for news sentiment.
type SentimentConfig struct {
	Endpoint  string        `env:"SENTIMENT_ENDPOINT"`
	APIToken  string        `env:"SENTIMENT_API_TOKEN"`
	NewsCount int           `env:"SENTIMENT_NEWS_COUNT" envDefault:"5"`
	Timeout   time.Duration `env:"SENTIMENT_TIMEOUT" envDefault:"10s"`
}

// SnapshotConfig holds the cron schedule for daily portfolio snapshots.
// An empty schedule disables the background job.
// OnStart captures every user's snapshot once at startup, in the background.
type SnapshotConfig struct {
	Schedule string `env:"SNAPSHOT_SCHEDULE" envDefault:"0 22 * * 1-5"`
	OnStart  bool   `env:"SNAPSHOT_ON_START" envDefault:"false"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

const maxQuoteRetries = 10

func (c *Config) validate() error {
	switch c.Quotes.Provider {
	case "yahoo", "yfinance":
	default:
		return fmt.Errorf("unsupported QUOTE_PROVIDER %q", c.Quotes.Provider)
	}
	if c.Quotes.Concurrency < 1 {
		return fmt.Errorf("QUOTE_CONCURRENCY must be at least 1, got %d", c.Quotes.Concurrency)
	}
	if c.Quotes.Timeout <= 0 {
		return fmt.Errorf("QUOTE_TIMEOUT must be positive, got %s", c.Quotes.Timeout)
	}
	if c.Quotes.MaxRetries < 0 || c.Quotes.MaxRetries > maxQuoteRetries {
		return fmt.Errorf("QUOTE_MAX_RETRIES must be between 0 and %d, got %d", maxQuoteRetries, c.Quotes.MaxRetries)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	return nil
}
