package testutil

import (
	"database/sql"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/finsight-ai/finsight-backend/internal/auth"
	"github.com/finsight-ai/finsight-backend/internal/marketdata"
	"github.com/finsight-ai/finsight-backend/internal/repository"
	"github.com/finsight-ai/finsight-backend/internal/service"
)

// TestQuoteTimeout bounds each quote fetch in services built by this package.
const TestQuoteTimeout = 2 * time.Second

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() zerolog.Logger {
	return zerolog.Nop()
}

// NewTestGateway wraps provider in a gateway with a short timeout and no cache.
func NewTestGateway(provider marketdata.Provider) *marketdata.Gateway {
	return marketdata.NewGateway(provider, NewTestLogger(), marketdata.WithTimeout(TestQuoteTimeout))
}

// NewTestPortfolioService creates a PortfolioService over db whose quotes come from provider.
func NewTestPortfolioService(t *testing.T, db *sql.DB, provider marketdata.Provider) *service.PortfolioService {
	t.Helper()
	return service.NewPortfolioService(
		repository.NewHoldingRepository(db),
		repository.NewInstrumentRepository(db),
		NewTestGateway(provider),
		4,
		NewTestLogger(),
	)
}

// NewTestHoldingService creates a HoldingService over db.
func NewTestHoldingService(t *testing.T, db *sql.DB) *service.HoldingService {
	t.Helper()
	return service.NewHoldingService(
		repository.NewHoldingRepository(db),
		repository.NewInstrumentRepository(db),
	)
}

// NewTestTokenManager creates a TokenManager with a fresh random key.
func NewTestTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	key, err := auth.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate token key: %v", err)
	}
	tokens, err := auth.NewTokenManager(key, 30*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}
	return tokens
}

// NewTestUserService creates a UserService over db using the given token manager.
func NewTestUserService(t *testing.T, db *sql.DB, tokens *auth.TokenManager) *service.UserService {
	t.Helper()
	return service.NewUserService(repository.NewUserRepository(db), tokens, bcrypt.MinCost, NewTestLogger())
}

// NewTestSnapshotService creates a SnapshotService over db whose quotes come from provider.
func NewTestSnapshotService(t *testing.T, db *sql.DB, provider marketdata.Provider) *service.SnapshotService {
	t.Helper()
	return service.NewSnapshotService(
		repository.NewSnapshotRepository(db),
		repository.NewUserRepository(db),
		NewTestPortfolioService(t, db, provider),
		NewTestLogger(),
	)
}

// NewTestSystemService creates a SystemService over db.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db, map[string]bool{"sentiment": false})
}

// MakeID generates a random UUID string.
func MakeID() string {
	return uuid.New().String()
}

// MakeEmail generates a unique lower-case email address for testing.
//
// Example usage:
//
//	email := testutil.MakeEmail("jane")
//	// Returns: "jane-1a2b3c4d@example.com"
func MakeEmail(prefix string) string {
	return prefix + "-" + strings.ToLower(randomAlphanumeric(8)) + "@example.com"
}

// MakeSymbol generates a unique ticker symbol for testing. The result is at
// most 10 characters: the first four of base plus five random characters.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("ACME")
//	// Returns: "ACME1A2B3"
func MakeSymbol(base string) string {
	if len(base) > 4 {
		base = base[:4]
	}
	return strings.ToUpper(base) + randomAlphanumeric(5)
}

func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
