package camunda

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{errors.New("rpc error: code = Unavailable desc = connection refused"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("permission denied"), false},
		{errors.New("NOT_FOUND: no such job"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryableZeebeError(tt.err))
		})
	}
}

func TestBackoffDelay_CapsAtMax(t *testing.T) {
	retry := &RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, backoffDelay(retry, 0))
	assert.Equal(t, 2*time.Second, backoffDelay(retry, 1))
	assert.Equal(t, 4*time.Second, backoffDelay(retry, 2))
	assert.Equal(t, 5*time.Second, backoffDelay(retry, 3))
}
