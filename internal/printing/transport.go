package printing

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/obslog"
	"github.com/wms-platform/labeltagctl/internal/resilience"
)

// TransportConfig controls connection/IO deadlines and the retry
// ladder for Send.
type TransportConfig struct {
	ConnectTimeout time.Duration
	IOTimeout      time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// DefaultTransportConfig returns the transport defaults: 5s connect
// deadline, 10s read/write deadline, 3 retries (4 attempts total), 1s
// base delay doubling per attempt.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ConnectTimeout: 5 * time.Second,
		IOTimeout:      10 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 1 * time.Second,
	}
}

// Transport streams rendered label payloads to a printer endpoint over
// a short-lived TCP connection, with bounded retry and a per-printer
// circuit breaker.
type Transport struct {
	cfg      TransportConfig
	breakers *resilience.Registry
	logger   *obslog.Logger
}

// NewTransport builds a Transport. breakers may be nil, in which case
// a fresh per-transport registry is created.
func NewTransport(cfg TransportConfig, breakers *resilience.Registry, logger *obslog.Logger) *Transport {
	if breakers == nil {
		breakers = resilience.NewRegistry(logger)
	}
	return &Transport{cfg: cfg, breakers: breakers, logger: logger}
}

// Send transmits payload to printer over TCP, retrying up to
// MaxRetries retries (MaxRetries+1 total attempts), delay
// base*2^(attempt-1) capped at a shift of 30. Retry on any transport
// failure. Exhausting retries raises a PrintError carrying the printer
// id, endpoint, and last cause. A cancelled context during the retry
// sleep is reported as a terminal PrintError.
func (t *Transport) Send(ctx context.Context, printer *domain.PrinterConfig, payload []byte) error {
	endpoint := fmt.Sprintf("%s:%d", printer.Host, printer.Port)
	breaker := t.breakers.Get(printer.ID)
	policy := resilience.Policy{MaxRetries: t.cfg.MaxRetries, Base: t.cfg.RetryBaseDelay}

	err := policy.Do(ctx, t.logger, printer.ID, func() error {
		_, err := breaker.Execute(ctx, func() (any, error) {
			return nil, t.sendOnce(ctx, endpoint, payload)
		})
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return apperr.PrintError("print retry sleep interrupted for printer " + printer.ID + " at " + endpoint).Wrap(ctx.Err())
		}
		return apperr.PrintError("printer " + printer.ID + " at " + endpoint + " failed after retry exhaustion").Wrap(err)
	}
	return nil
}

// sendOnce opens one TCP connection, applies the configured deadlines,
// streams payload, and closes.
func (t *Transport) sendOnce(ctx context.Context, endpoint string, payload []byte) error {
	dialer := net.Dialer{Timeout: t.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(t.cfg.IOTimeout)); err != nil {
		return fmt.Errorf("set deadline on %s: %w", endpoint, err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write to %s: %w", endpoint, err)
	}
	return nil
}

// TestConnectivity performs a single TCP connect attempt against
// printer's endpoint using the connection deadline. It never returns
// an error: connectivity failures surface as a false result.
func (t *Transport) TestConnectivity(ctx context.Context, printer *domain.PrinterConfig) bool {
	endpoint := fmt.Sprintf("%s:%d", printer.Host, printer.Port)
	dialer := net.Dialer{Timeout: t.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
