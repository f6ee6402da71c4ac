package errorutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq/backend/common/pricing"
)

func TestFromQuoteError(t *testing.T) {
	_, err := pricing.ComputeQuote(nil, pricing.ServicePriority, "", "", "781001", 1)
	var qe *pricing.QuoteError
	require.True(t, errors.As(err, &qe))

	e := FromQuoteError(qe)
	assert.Equal(t, 503, e.Code)
	assert.True(t, e.Retryable)
	assert.Equal(t, "RATE_TABLE_UNAVAILABLE", e.Kind)

	_, err = pricing.ComputeQuote(&pricing.RateTable{PriorityPricing: &pricing.PriorityPricing{}}, pricing.ServicePriority, "", "", "7810", 1)
	require.True(t, errors.As(err, &qe))
	e = FromQuoteError(qe)
	assert.Equal(t, 400, e.Code)
	assert.False(t, e.Retryable)
	assert.Nil(t, FromQuoteError(nil))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	retriable := Retriable("lmstfy down")
	assert.Same(t, retriable, Wrap(fmt.Errorf("publish: %w", retriable)))
	assert.True(t, IsRetryable(fmt.Errorf("publish: %w", retriable)))

	plain := Wrap(errors.New("boom"))
	assert.Equal(t, 500, plain.Code)
	assert.False(t, plain.Retryable)
	assert.False(t, IsRetryable(errors.New("boom")))

	_, err := pricing.ParseMode("sea")
	wrapped := Wrap(fmt.Errorf("item 0: %w", err))
	assert.Equal(t, 400, wrapped.Code)
	assert.Equal(t, "MODE_UNAVAILABLE", wrapped.Kind)

	withDetails := NonRetriableWithDetails("bad payload", "items is empty")
	assert.Equal(t, "items is empty", withDetails.DevDetails)
	assert.Equal(t, 400, withDetails.Code)
}
