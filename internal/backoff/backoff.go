// Package backoff provides a generic exponential backoff retry utility.
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Config bounds a retry loop.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 4
	MaxAttempts int

	// BaseDelay is the cap for the first retry's sleep.
	// Default: 50ms
	BaseDelay time.Duration

	// MaxDelay caps the sleep between any two attempts.
	// Default: 2s
	MaxDelay time.Duration
}

// Validate applies defaults to unset values.
func (c *Config) Validate() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 4
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 50 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 2 * time.Second
	}
}

// Retry runs op until it succeeds, fails with a non-retryable error, the
// attempt budget is spent, or ctx is done. Sleeps use full jitter: a
// random delay up to an exponentially growing cap.
func Retry(ctx context.Context, cfg Config, op func(context.Context) error, retryable func(error) bool) error {
	cfg.Validate()

	var err error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if sleepErr := sleep(ctx, delayFor(cfg, attempt)); sleepErr != nil {
				return sleepErr
			}
		}
		if err = op(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	return err
}

func delayFor(cfg Config, attempt int) time.Duration {
	cap := cfg.BaseDelay << (attempt - 1)
	if cap > cfg.MaxDelay || cap <= 0 {
		cap = cfg.MaxDelay
	}
	return time.Duration(rand.Int63n(int64(cap) + 1))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
