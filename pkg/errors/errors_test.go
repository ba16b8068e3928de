package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   Kind
	}{
		{"rate limited", 429, KindRateLimited},
		{"internal server error", 500, KindTransient},
		{"bad gateway", 502, KindTransient},
		{"service unavailable", 503, KindTransient},
		{"forbidden", 403, KindFatal},
		{"not found", 404, KindFatal},
		{"unauthorized", 401, KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.status, "boom")
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(FromStatus(429, "")))
	assert.True(t, IsRetryable(FromStatus(500, "")))
	assert.False(t, IsRetryable(FromStatus(403, "")))
	assert.False(t, IsRetryable(New(KindMalformed, "bad json")))
	assert.False(t, IsRetryable(fmt.Errorf("disk full")))
}

func TestIsRetryableWrapped(t *testing.T) {
	err := fmt.Errorf("fetch page 3: %w", FromStatus(503, "unavailable"))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestRetryAfter(t *testing.T) {
	rl := &Error{Kind: KindRateLimited, Status: 429, RetryAfter: 30 * time.Second}
	assert.Equal(t, 30*time.Second, RetryAfter(rl))
	assert.Equal(t, 30*time.Second, RetryAfter(fmt.Errorf("wrapped: %w", rl)))
	assert.Zero(t, RetryAfter(FromStatus(500, "")))
	assert.Zero(t, RetryAfter(nil))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "fatal error (status 403): forbidden", FromStatus(403, "forbidden").Error())
	assert.Equal(t, "malformed error: truncated body", New(KindMalformed, "truncated body").Error())
}
