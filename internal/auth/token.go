// Package auth issues and verifies the bearer tokens that identify a user.
// Tokens are Fernet-encrypted JSON claims, so they are opaque to clients and
// tamper-evident.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/finsight-ai/finsight-backend/internal/apperrors"
)

// expiredGrace keeps recently expired tokens decryptable so they can be reported
// as expired rather than invalid.
const expiredGrace = 24 * time.Hour

type claims struct {
	UserID    string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// TokenManager issues and verifies bearer tokens.
type TokenManager struct {
	keys []*fernet.Key
	ttl  time.Duration
	now  func() time.Time
}

// NewTokenManager creates a manager from a base64 encoded 32-byte Fernet key.
func NewTokenManager(encodedKey string, ttl time.Duration) (*TokenManager, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fernet key: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	return &TokenManager{
		keys: []*fernet.Key{key},
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

// GenerateKey returns a fresh base64 encoded Fernet key.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate fernet key: %w", err)
	}
	return key.Encode(), nil
}

// TTL reports how long issued tokens stay valid.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a token identifying userID.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := m.now().UTC()
	payload, err := json.Marshal(claims{
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token claims: %w", err)
	}

	token, err := fernet.EncryptAndSign(payload, m.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(token), nil
}

// Verify returns the user ID carried by token.
// It returns apperrors.ErrTokenExpired for a genuine but expired token and
// apperrors.ErrInvalidToken for anything else that fails verification.
func (m *TokenManager) Verify(token string) (string, error) {
	payload := fernet.VerifyAndDecrypt([]byte(token), m.ttl+expiredGrace, m.keys)
	if payload == nil {
		return "", apperrors.ErrInvalidToken
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil || c.UserID == "" {
		return "", apperrors.ErrInvalidToken
	}

	if m.now().UTC().Unix() >= c.ExpiresAt {
		return "", apperrors.ErrTokenExpired
	}
	return c.UserID, nil
}

type contextKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the authenticated user ID stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKey{}).(string)
	return userID, ok && userID != ""
}
