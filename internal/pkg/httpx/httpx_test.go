package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type statusErr int

func (s statusErr) Error() string { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(statusErr(503)))
	assert.True(t, IsRetryableError(fmt.Errorf("wrapped: %w", statusErr(429))))
	assert.False(t, IsRetryableError(statusErr(401)))
	assert.False(t, IsRetryableError(statusErr(404)))
	assert.False(t, IsRetryableError(errors.New("decode failed")))
}

func TestIsIdempotent(t *testing.T) {
	assert.True(t, IsIdempotent(http.MethodGet))
	assert.True(t, IsIdempotent("get"))
	assert.False(t, IsIdempotent(http.MethodPost))
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
	assert.Equal(t, 3*time.Second, RetryAfterDuration(resp, time.Second, 0))
	assert.Equal(t, 2*time.Second, RetryAfterDuration(resp, time.Second, 2*time.Second))
	assert.Equal(t, time.Second, RetryAfterDuration(nil, time.Second, 0))
}

func TestSleepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
