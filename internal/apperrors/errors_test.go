package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteUnavailableError(t *testing.T) {
	t.Run("matches sentinel and exposes symbol", func(t *testing.T) {
		err := fmt.Errorf("valuation failed: %w", NewQuoteUnavailable("ACME", context.DeadlineExceeded))

		assert.ErrorIs(t, err, ErrQuoteUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		var qe *QuoteUnavailableError
		assert.True(t, errors.As(err, &qe))
		assert.Equal(t, "ACME", qe.Symbol)
	})

	t.Run("message without cause", func(t *testing.T) {
		err := NewQuoteUnavailable("ACME", nil)
		assert.Equal(t, "quote unavailable for ACME", err.Error())
	})

	t.Run("does not match unrelated sentinels", func(t *testing.T) {
		err := NewQuoteUnavailable("ACME", nil)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	})
}
