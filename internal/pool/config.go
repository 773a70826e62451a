package pool

import (
	"time"

	"github.com/orakit-io/orakit/internal/database"
)

const (
	defaultStaleAfter          = 5 * time.Minute
	defaultHealthCheckInterval = 30 * time.Second
	defaultProbeTimeout        = 5 * time.Second
	defaultShutdownTimeout     = 30 * time.Second
)

// Config tunes the pool. Derive it from a database.Config with
// FromDatabase, then override individual knobs if needed.
type Config struct {
	Min       int // connections created eagerly by Initialize
	Max       int // hard upper bound on live connections
	Increment int // connections added per background top-up batch

	// AcquireTimeout bounds both Initialize and a single Acquire wait.
	AcquireTimeout time.Duration

	// StaleAfter forces a re-probe of an idle connection that has not
	// been validated within this window before it is handed out.
	StaleAfter time.Duration

	// HealthCheckInterval is the period of the background sweep over
	// idle connections. Zero disables the sweep.
	HealthCheckInterval time.Duration

	// ProbeTimeout bounds one validation round trip.
	ProbeTimeout time.Duration

	// ShutdownTimeout bounds the drain phase before in-use connections
	// are force-closed.
	ShutdownTimeout time.Duration
}

// FromDatabase derives pool tuning from a validated database config.
func FromDatabase(cfg *database.Config) Config {
	c := Config{
		Min:                 cfg.PoolMin,
		Max:                 cfg.PoolMax,
		Increment:           cfg.PoolIncrement,
		AcquireTimeout:      cfg.Timeout,
		HealthCheckInterval: defaultHealthCheckInterval,
	}
	c.normalize()
	return c
}

func (c *Config) normalize() {
	if c.Max < 1 {
		c.Max = 1
	}
	if c.Min < 0 {
		c.Min = 0
	}
	if c.Min > c.Max {
		c.Min = c.Max
	}
	if c.Increment < 1 {
		c.Increment = 1
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = defaultStaleAfter
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.HealthCheckInterval < 0 {
		c.HealthCheckInterval = 0
	}
}

// State is the pool lifecycle phase. Transitions are one-way:
// Uninitialized → Initializing → Ready → Draining → Closed, except that a
// failed Initialize rolls back to Uninitialized so a caller may retry.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Stats is a snapshot of pool occupancy. Size == Active + Idle always
// holds; Size never exceeds Max.
type Stats struct {
	Size         int
	Active       int
	Idle         int
	TotalCreated int
}
