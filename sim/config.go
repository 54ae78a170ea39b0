package sim

import (
	"fmt"

	"github.com/portsim/portsim/sim/trace"
)

// DefaultRetryDelay is the number of minutes an unservable inbound ship
// waits before the port tries to find it a quay again.
const DefaultRetryDelay = 1

// PortConfig groups the port's movement-processing policy.
type PortConfig struct {
	RetryDelay int64             // minutes before an unservable movement is retried (must be > 0)
	MaxRetries int               // retries before an unservable movement is abandoned (0 = retry forever)
	Trace      trace.TraceConfig // decision trace collection (zero value disables it)
}

// DefaultPortConfig retries unservable ships every minute, forever, without tracing.
func DefaultPortConfig() PortConfig {
	return PortConfig{
		RetryDelay: DefaultRetryDelay,
		Trace:      trace.TraceConfig{Level: trace.TraceLevelNone},
	}
}

// Validate checks parameter ranges.
func (c PortConfig) Validate() error {
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive, got %d: %w", c.RetryDelay, ErrInvalidArgument)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d: %w", c.MaxRetries, ErrInvalidArgument)
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q: %w", c.Trace.Level, ErrInvalidArgument)
	}
	return nil
}
