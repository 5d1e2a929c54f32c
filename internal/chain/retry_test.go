package chain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopfi/loopchain/internal/chain"
	looperr "github.com/loopfi/loopchain/pkg/errors"
)

var errNonRetryable = errors.New("non-retryable error")

func fastRetry(attempts int) chain.RetryConfig {
	return chain.RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}
}

func TestDefaultRetryConfig_SingleAttempt(t *testing.T) {
	t.Parallel()

	cfg := chain.DefaultRetryConfig()
	assert.Equal(t, 1, cfg.MaxAttempts)

	attempts := 0
	_, err := chain.RetryWithConfig(context.Background(), cfg, func() (string, error) {
		attempts++
		return "", looperr.ErrNetworkUnreachable
	})

	require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, looperr.ExitNetwork, looperr.ExitCode(err))
}

func TestRetry_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	result, err := chain.RetryWithConfig(context.Background(), fastRetry(3), func() (string, error) {
		attempts++
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, attempts)
}

func TestRetry_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	attempts := 0
	result, err := chain.RetryWithConfig(context.Background(), fastRetry(4), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", looperr.WithCause(looperr.ErrNetworkUnreachable, errNonRetryable)
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryableError(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := chain.RetryWithConfig(context.Background(), fastRetry(4), func() (string, error) {
		attempts++
		return "", looperr.ErrRPC
	})

	require.ErrorIs(t, err, looperr.ErrRPC)
	assert.Equal(t, 1, attempts)
}

func TestRetry_MaxAttempts(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := chain.RetryWithConfig(context.Background(), fastRetry(3), func() (int, error) {
		attempts++
		return 0, looperr.ErrNetworkUnreachable
	})

	require.ErrorIs(t, err, looperr.ErrNetworkUnreachable)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetry_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := chain.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}

	attempts := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := chain.RetryWithConfig(ctx, cfg, func() (string, error) {
		attempts++
		return "", looperr.ErrNetworkUnreachable
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"network unreachable", looperr.ErrNetworkUnreachable, true},
		{"wrapped network unreachable", fmt.Errorf("balance: %w", looperr.WithCause(looperr.ErrNetworkUnreachable, errNonRetryable)), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"rpc error", looperr.ErrRPC, false},
		{"invalid address", looperr.ErrInvalidAddress, false},
		{"plain", errNonRetryable, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, chain.IsRetryable(tc.err))
		})
	}
}
