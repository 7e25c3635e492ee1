package db

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{Attempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var calls int
	err := Retry(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("dial: %w", syscall.ECONNREFUSED)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	var calls int
	err := Retry(context.Background(), fastRetry(5), func(context.Context) error {
		calls++
		return errors.New("password authentication failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := Retry(context.Background(), fastRetry(2), func(context.Context) error {
		calls++
		return errors.New("read: connection reset by peer")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Retry(ctx, RetryOptions{Attempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return syscall.ECONNREFUSED
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", syscall.ECONNREFUSED, true},
		{"wrapped reset", eris.Wrap(syscall.ECONNRESET, "db: ping"), true},
		{"dns", errors.New("dial tcp: lookup db: Temporary failure in name resolution"), true},
		{"starting up", errors.New("FATAL: the database system is starting up (SQLSTATE 57P03)"), true},
		{"auth", errors.New("password authentication failed for user"), false},
		{"missing table", errors.New(`relation "hospitals" does not exist`), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestBackoff(t *testing.T) {
	opts := RetryOptions{Attempts: 5, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	first := backoff(0, opts)
	assert.GreaterOrEqual(t, first, 75*time.Millisecond)
	assert.LessOrEqual(t, first, 125*time.Millisecond)

	capped := backoff(10, opts)
	assert.LessOrEqual(t, capped, 1250*time.Millisecond)
	assert.GreaterOrEqual(t, capped, 750*time.Millisecond)
}

func TestRetryOptions_Defaults(t *testing.T) {
	assert.Equal(t, DefaultRetryOptions(), RetryOptions{}.withDefaults())
}
