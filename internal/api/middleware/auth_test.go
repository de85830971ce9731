package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/finsight-backend/internal/api/middleware"
	"github.com/finsight-ai/finsight-backend/internal/api/response"
	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/auth"
	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/testutil"
)

// userSet knows the users whose ids map to true.
type userSet map[string]bool

func (s userSet) GetUser(_ context.Context, id string) (*model.User, error) {
	if !s[id] {
		return nil, apperrors.ErrUserNotFound
	}
	return &model.User{ID: id}, nil
}

type failingUsers struct{}

func (failingUsers) GetUser(context.Context, string) (*model.User, error) {
	return nil, errors.New("database is locked")
}

func TestRequireUser(t *testing.T) {
	tokens := testutil.NewTestTokenManager(t)
	users := userSet{"u1": true}

	serveWith := func(t *testing.T, tokens *auth.TokenManager, lookup middleware.UserLookup, header string) (*httptest.ResponseRecorder, string) {
		t.Helper()
		var seen string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = auth.UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		middleware.RequireUser(tokens, lookup)(next).ServeHTTP(w, req)
		return w, seen
	}
	serve := func(t *testing.T, tokens *auth.TokenManager, header string) (*httptest.ResponseRecorder, string) {
		t.Helper()
		return serveWith(t, tokens, users, header)
	}

	errorMessage := func(t *testing.T, w *httptest.ResponseRecorder) string {
		t.Helper()
		var body response.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		return body.Error
	}

	t.Run("valid bearer token reaches the handler with the user id", func(t *testing.T) {
		// Setup
		userID := testutil.MakeID()
		users[userID] = true
		token, err := tokens.Issue(userID)
		require.NoError(t, err)

		// Execute
		w, seen := serve(t, tokens, "Bearer "+token)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID, seen)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		token, err := tokens.Issue("u1")
		require.NoError(t, err)

		w, seen := serve(t, tokens, "bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", seen)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		w, seen := serve(t, tokens, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		assert.Empty(t, seen)
	})

	t.Run("non-bearer scheme is 401", func(t *testing.T) {
		w, _ := serve(t, tokens, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token from another key is invalid", func(t *testing.T) {
		// Setup
		other := testutil.NewTestTokenManager(t)
		token, err := other.Issue("u1")
		require.NoError(t, err)

		// Execute
		w, _ := serve(t, tokens, "Bearer "+token)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Could not validate credentials", errorMessage(t, w))
	})

	// WHY: clients refresh on expiry but should re-login on invalid tokens,
	// so the two cases carry different messages.
	t.Run("expired token says so", func(t *testing.T) {
		// Setup
		key, err := auth.GenerateKey()
		require.NoError(t, err)
		shortLived, err := auth.NewTokenManager(key, time.Second)
		require.NoError(t, err)
		token, err := shortLived.Issue("u1")
		require.NoError(t, err)
		time.Sleep(1100 * time.Millisecond)

		// Execute
		w, _ := serve(t, shortLived, "Bearer "+token)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Token has expired", errorMessage(t, w))
	})

	// WHY: a token outlives its account; a deleted user must not pass as authenticated.
	t.Run("token for unknown user is 401", func(t *testing.T) {
		// Setup
		token, err := tokens.Issue("deleted-user")
		require.NoError(t, err)

		// Execute
		w, seen := serve(t, tokens, "Bearer "+token)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Could not validate credentials", errorMessage(t, w))
		assert.Empty(t, seen)
	})

	t.Run("user lookup failure is 500", func(t *testing.T) {
		token, err := tokens.Issue("u1")
		require.NoError(t, err)

		w, seen := serveWith(t, tokens, failingUsers{}, "Bearer "+token)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, seen)
	})
}
