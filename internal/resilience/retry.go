// Package resilience provides the bounded-retry and circuit-breaking
// primitives used by the Wire Transport and the connectivity probes.
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/labeltagctl/internal/obslog"
)

// maxBackoffShift caps the backoff exponent so the computed delay can
// never overflow time.Duration.
const maxBackoffShift = 30

// Policy is the transport's bounded-retry schedule: after failed
// attempt n (1-based), sleep Base << (n-1) before the next attempt, up
// to MaxRetries retries (MaxRetries+1 attempts in total).
type Policy struct {
	MaxRetries int
	Base       time.Duration
}

// delay returns the sleep that follows failed attempt n.
func (p Policy) delay(attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return p.Base << shift
}

// Do runs op until it succeeds or the schedule is exhausted, retrying
// on any error. Each failed attempt is logged through logger (if
// wired) before the backoff sleep. The sleep is cancellation-aware: a
// cancelled ctx ends the loop immediately with ctx.Err(). Exhaustion
// returns the last error wrapped with the attempt count and label.
func (p Policy) Do(ctx context.Context, logger *obslog.Logger, label string, op func() error) error {
	attempts := p.MaxRetries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = op(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := p.delay(attempt)
		if logger != nil {
			logger.Logger.Warn("attempt failed, backing off",
				"target", label,
				"attempt", attempt,
				"maxAttempts", attempts,
				"retryIn", wait.String(),
				"error", err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s: %d attempts exhausted: %w", label, attempts, err)
}
