package db

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// RetryOptions controls retries of transient connection failures.
type RetryOptions struct {
	// Attempts is the total number of tries, including the first. Default: 3.
	Attempts int
	// InitialBackoff is the delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between tries. Default: 10s.
	MaxBackoff time.Duration
}

// DefaultRetryOptions returns the retry policy used by Connect.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		Attempts:       3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
	}
}

func (o RetryOptions) withDefaults() RetryOptions {
	d := DefaultRetryOptions()
	if o.Attempts <= 0 {
		o.Attempts = d.Attempts
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = d.InitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = d.MaxBackoff
	}
	return o
}

// Retry calls fn until it succeeds, returns a non-transient error, ctx ends or
// the attempts run out. The last error is returned.
func Retry(ctx context.Context, opts RetryOptions, fn func(ctx context.Context) error) error {
	opts = opts.withDefaults()

	var err error
	for attempt := 0; attempt < opts.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt == opts.Attempts-1 {
			return err
		}

		delay := backoff(attempt, opts)
		zap.L().Warn("db: retrying connection",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// backoff doubles the initial delay per attempt, caps it at MaxBackoff and
// adds up to 25% jitter either way.
func backoff(attempt int, opts RetryOptions) time.Duration {
	delay := float64(opts.InitialBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(opts.MaxBackoff) {
		delay = float64(opts.MaxBackoff)
	}
	delay += (rand.Float64()*2 - 1) * delay * 0.25
	return time.Duration(delay)
}

// IsTransient reports whether err looks like a network failure that may
// succeed on retry: timeouts, refused or reset connections and DNS errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset by peer",
		"temporary failure in name resolution",
		"i/o timeout",
		"the database system is starting up",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
