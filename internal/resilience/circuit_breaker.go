package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wms-platform/labeltagctl/internal/obslog"
)

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns defaults suited to a printer or database
// endpoint guarded within a single job.
func DefaultBreakerConfig(name string) *BreakerConfig {
	return &BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         0,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// CircuitBreaker wraps gobreaker so a printer or DB endpoint that is
// failing repeatedly within a job stops being retried on every task.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *obslog.Logger
}

// NewCircuitBreaker builds a breaker from cfg.
func NewCircuitBreaker(cfg *BreakerConfig, logger *obslog.Logger) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			}
		},
	}
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings), name: cfg.Name, logger: logger}
}

// Execute runs fn through the breaker.
func (c *CircuitBreaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	result, err := c.cb.Execute(func() (any, error) { return fn() })
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, fmt.Errorf("%s: circuit open, endpoint unavailable: %w", c.name, err)
	}
	return result, err
}

// State returns the current breaker state.
func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}

// Registry holds one CircuitBreaker per named endpoint (printer id or
// db endpoint), created lazily and kept for the lifetime of one job.
type Registry struct {
	breakers map[string]*CircuitBreaker
	logger   *obslog.Logger
}

// NewRegistry builds an empty Registry.
func NewRegistry(logger *obslog.Logger) *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker), logger: logger}
}

// Get returns the breaker for name, creating it with default settings
// on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(DefaultBreakerConfig(name), r.logger)
	r.breakers[name] = cb
	return cb
}
