package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipgate/clipgate/pkg/constants"
)

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	err := ErrRateLimited(3 * time.Second)

	assert.Equal(t, constants.ErrCodeRateLimited, err.Code())
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus())
	assert.Equal(t, 3*time.Second, err.RetryAfter())
}

func TestIsCodeWalksTheChain(t *testing.T) {
	inner := ErrSizeExceeded(100, 50)
	outer := ErrNoViableFormat(inner)

	assert.True(t, IsCode(outer, constants.ErrCodeNoViableFormat))
	assert.True(t, IsCode(outer, constants.ErrCodeSizeExceeded))
	assert.False(t, IsCode(outer, constants.ErrCodeRateLimited))
	assert.False(t, IsCode(nil, constants.ErrCodeRateLimited))
}

func TestIsCodeThroughStdWrapping(t *testing.T) {
	core := ErrTimeout(time.Minute)
	wrapped := fmt.Errorf("acquire failed: %w", core)

	assert.True(t, IsCode(wrapped, constants.ErrCodeTimeout))
	assert.Equal(t, constants.ErrCodeTimeout, CodeOf(wrapped))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, constants.ErrCodeInternal, CodeOf(fmt.Errorf("boom")))
}

func TestHTTPStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatusOf(ErrQueueOverflow(2)))
	assert.Equal(t, http.StatusConflict, HTTPStatusOf(ErrDuplicateInFlight("key")))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatusOf(ErrTimeout(time.Minute)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusOf(fmt.Errorf("boom")))
}

func TestIsBackpressure(t *testing.T) {
	assert.True(t, IsBackpressure(ErrRateLimited(time.Second)))
	assert.True(t, IsBackpressure(ErrQueueOverflow(2)))
	assert.True(t, IsBackpressure(ErrDuplicateInFlight("key")))
	assert.False(t, IsBackpressure(ErrNoViableFormat(nil)))
	assert.False(t, IsBackpressure(ErrInternal("boom")))
}

func TestWithCauseAppearsInMessage(t *testing.T) {
	cause := fmt.Errorf("connect refused")
	err := ErrProviderUnavailable("extractor failed").WithCause(cause)

	assert.Contains(t, err.Error(), "extractor failed")
	assert.Contains(t, err.Error(), "connect refused")
	require.ErrorIs(t, err, cause)
}

func TestMetadata(t *testing.T) {
	err := ErrQueueOverflow(2)
	assert.Equal(t, 2, err.Metadata()["queue_depth"])

	err = err.WithMetadata("user_id", int64(7))
	assert.Equal(t, int64(7), err.Metadata()["user_id"])
}
