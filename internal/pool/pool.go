// Package pool implements the bounded connection pool that owns every
// backend session orakit uses.
//
// The pool lends sessions to callers as Leases and reclaims them on
// Release. Its state transitions (create, lend, reclaim, evict) are
// serialized by one mutex; no network round trip ever happens while that
// mutex is held. A background sweep probes idle sessions and replaces the
// ones that died underneath the pool.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/orakit-io/orakit/internal/database"
	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/logger"
	"github.com/orakit-io/orakit/internal/retry"
)

// waiter is one caller blocked in Acquire at max capacity. The channel is
// buffered so a releasing goroutine never blocks on the handoff.
type waiter struct {
	ch chan *pooledConn
}

// Pool owns a bounded set of live backend sessions.
type Pool struct {
	connector database.Connector
	retry     retry.Policy
	cfg       Config
	log       *logger.Logger

	mu      sync.Mutex
	cond    *sync.Cond // broadcast whenever occupancy drops
	state   State
	idle    []*pooledConn // LIFO: most recently used first
	active  map[uuid.UUID]*pooledConn
	pending int // dial slots reserved but not yet connected
	probing int // idle conns temporarily held by the health sweep
	created int
	waiters []*waiter

	healthCancel context.CancelFunc
	healthDone   chan struct{}
}

// New wires a pool from its collaborators. Nothing is dialed until
// Initialize.
func New(connector database.Connector, policy retry.Policy, cfg Config, log *logger.Logger) *Pool {
	cfg.normalize()
	if log == nil {
		log = logger.Nop()
	}
	p := &Pool{
		connector: connector,
		retry:     policy,
		cfg:       cfg,
		log:       log.With().Str("component", "pool").Logger(),
		active:    make(map[uuid.UUID]*pooledConn),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// size is the number of live-or-reserved connections. Callers hold p.mu.
func (p *Pool) size() int {
	return len(p.idle) + len(p.active) + p.pending + p.probing
}

// Initialize eagerly establishes Min connections, validating each with a
// probe round trip. If fewer than Min can be established within the
// acquire timeout the pool is torn back down and a resource error is
// returned; a later Initialize may try again.
func (p *Pool) Initialize(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Uninitialized {
		p.mu.Unlock()
		return errs.New(errs.Unknown, fmt.Sprintf("initialize called in state %s", p.state))
	}
	p.state = Initializing
	p.mu.Unlock()

	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	warmed := make([]*pooledConn, 0, p.cfg.Min)
	for i := 0; i < p.cfg.Min; i++ {
		pc, err := p.dial(ctx)
		if err != nil {
			for _, c := range warmed {
				_ = c.conn.Close()
			}
			p.mu.Lock()
			p.state = Uninitialized
			p.mu.Unlock()
			return errs.Wrap(errs.Resource,
				fmt.Sprintf("warmed %d of %d connections", len(warmed), p.cfg.Min), err)
		}
		warmed = append(warmed, pc)
	}

	p.mu.Lock()
	p.idle = append(p.idle, warmed...)
	p.created += len(warmed)
	p.state = Ready
	p.mu.Unlock()

	p.startHealthLoop()
	p.log.Infof("pool ready with %d connections (max %d)", len(warmed), p.cfg.Max)
	return nil
}

// dial establishes one new session, retrying transient failures per the
// retry policy. Authentication and permission failures are returned on
// the first attempt; retrying cannot change them.
func (p *Pool) dial(ctx context.Context) (*pooledConn, error) {
	conn, attempts, err := retry.DoValue(ctx, p.retry, func(ctx context.Context) (database.Conn, error) {
		return p.connector.Connect(ctx)
	})
	if err != nil {
		p.log.ErrorWith("connection establishment failed", err, map[string]any{
			"attempts": attempts,
		})
		return nil, err
	}
	if attempts > 1 {
		p.log.Warnf("connection established after %d attempts", attempts)
	}
	return newPooledConn(conn), nil
}

// Acquire returns a leased connection, blocking up to the acquire timeout
// when the pool is at capacity. The lease is always marked active before
// it is handed out.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	for {
		p.mu.Lock()
		switch p.state {
		case Ready:
		case Draining, Closed:
			state := p.state
			p.mu.Unlock()
			return nil, errs.New(errs.Resource, fmt.Sprintf("pool is %s", state))
		default:
			state := p.state
			p.mu.Unlock()
			return nil, errs.New(errs.Unknown, fmt.Sprintf("acquire called in state %s", state))
		}

		// Reuse the most recently returned idle connection.
		if n := len(p.idle); n > 0 {
			pc := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.active[pc.id] = pc
			stale := time.Since(pc.lastValidated) > p.cfg.StaleAfter
			p.mu.Unlock()

			if stale && !p.revalidate(ctx, pc) {
				p.destroyActive(pc)
				continue
			}
			return &Lease{pc: pc, pool: p}, nil
		}

		// Room to grow: reserve a slot and dial outside the lock.
		if p.size() < p.cfg.Max {
			p.pending++
			p.mu.Unlock()

			pc, err := p.dial(ctx)

			p.mu.Lock()
			p.pending--
			if err != nil {
				p.cond.Broadcast()
				p.mu.Unlock()
				return nil, err
			}
			if p.state != Ready {
				p.cond.Broadcast()
				p.mu.Unlock()
				_ = pc.conn.Close()
				return nil, errs.New(errs.Resource, "pool is draining")
			}
			p.created++
			p.active[pc.id] = pc
			p.mu.Unlock()
			return &Lease{pc: pc, pool: p}, nil
		}

		// At capacity: wait for a release or the timeout.
		w := &waiter{ch: make(chan *pooledConn, 1)}
		p.waiters = append(p.waiters, w)
		p.mu.Unlock()

		select {
		case pc := <-w.ch:
			if pc == nil {
				// Woken by shutdown.
				return nil, errs.New(errs.Resource, "pool is draining")
			}
			return &Lease{pc: pc, pool: p}, nil
		case <-ctx.Done():
			p.abandonWait(w)
			return nil, errs.Wrap(errs.Resource, "pool exhausted: timed out waiting for a connection", ctx.Err())
		}
	}
}

// abandonWait removes w from the waiter list after a cancelled wait. If a
// connection was handed over in the same instant the wait expired, it is
// reclaimed and given to the next waiter (or parked idle) so the
// cancellation leaves no phantom active entry behind. A reclaim while the
// pool is draining closes the connection instead: Shutdown has already
// emptied the idle list, so re-parking there would leak the session past
// Closed.
func (p *Pool) abandonWait(w *waiter) {
	p.mu.Lock()

	for i, candidate := range p.waiters {
		if candidate == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			p.mu.Unlock()
			return
		}
	}
	// Not in the list: the handoff already happened under the pool lock,
	// so the conn is sitting in the buffered channel marked active.
	var reclaimed *pooledConn
	select {
	case pc := <-w.ch:
		reclaimed = pc
	default:
	}
	if reclaimed == nil {
		p.mu.Unlock()
		return
	}

	delete(p.active, reclaimed.id)
	if p.state != Ready {
		p.cond.Broadcast()
		p.mu.Unlock()
		_ = reclaimed.conn.Close()
		return
	}
	p.handBack(reclaimed)
	p.cond.Broadcast()
	p.mu.Unlock()
}

// revalidate probes a stale idle connection before lending it out.
func (p *Pool) revalidate(ctx context.Context, pc *pooledConn) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	if err := pc.conn.Ping(probeCtx); err != nil {
		p.log.WarnErr("stale connection failed revalidation, discarding", err)
		return false
	}
	p.mu.Lock()
	pc.lastValidated = time.Now()
	p.mu.Unlock()
	return true
}

// destroyActive removes a connection that is currently in the active set
// and closes it, then tops the pool back up toward Min.
func (p *Pool) destroyActive(pc *pooledConn) {
	p.mu.Lock()
	delete(p.active, pc.id)
	p.cond.Broadcast()
	p.mu.Unlock()

	_ = pc.conn.Close()
	go p.topUp()
}

// Release hands a leased connection back. Releasing the same lease twice
// is a caller bug and is reported as an error rather than ignored; it
// means some other code path still believes it owns the connection.
func (p *Pool) Release(l *Lease) error {
	if l == nil {
		return errs.New(errs.Unknown, "release of nil lease")
	}
	if !l.released.CompareAndSwap(false, true) {
		return errs.New(errs.Unknown, fmt.Sprintf("connection %s released twice", l.ID()))
	}

	pc := l.pc

	p.mu.Lock()
	if _, ok := p.active[pc.id]; !ok {
		// Reclaimed by a force-close during shutdown.
		p.mu.Unlock()
		return nil
	}
	delete(p.active, pc.id)

	if l.unhealthy.Load() || pc.unhealthy || p.state != Ready {
		ready := p.state == Ready
		p.cond.Broadcast()
		p.mu.Unlock()

		_ = pc.conn.Close()
		if ready {
			go p.topUp()
		}
		return nil
	}

	p.handBack(pc)
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

// handBack gives a usable connection to the longest-waiting acquirer, or
// parks it on the idle stack. Callers hold p.mu.
func (p *Pool) handBack(pc *pooledConn) {
	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		// Stays active: ownership moves straight to the waiter.
		p.active[pc.id] = pc
		w.ch <- pc
		return
	}
	p.idle = append(p.idle, pc)
}

// dialContext bounds one background dial with the acquire timeout. A
// zero timeout means unbounded, the same meaning it has in Initialize
// and Acquire.
func (p *Pool) dialContext() (context.Context, context.CancelFunc) {
	if p.cfg.AcquireTimeout > 0 {
		return context.WithTimeout(context.Background(), p.cfg.AcquireTimeout)
	}
	return context.WithCancel(context.Background())
}

// topUp restores the pool toward Min after evictions, dialing at most
// Increment connections per batch. Failures are logged, not fatal: the
// next release or sweep will try again.
func (p *Pool) topUp() {
	for {
		p.mu.Lock()
		if p.state != Ready || p.size() >= p.cfg.Min {
			p.mu.Unlock()
			return
		}
		batch := p.cfg.Min - p.size()
		if batch > p.cfg.Increment {
			batch = p.cfg.Increment
		}
		p.pending += batch
		p.mu.Unlock()

		dialed := make([]*pooledConn, 0, batch)
		var dialErr error
		for i := 0; i < batch; i++ {
			ctx, cancel := p.dialContext()
			pc, err := p.dial(ctx)
			cancel()
			if err != nil {
				dialErr = err
				break
			}
			dialed = append(dialed, pc)
		}

		p.mu.Lock()
		p.pending -= batch
		if p.state != Ready {
			p.mu.Unlock()
			for _, pc := range dialed {
				_ = pc.conn.Close()
			}
			return
		}
		p.created += len(dialed)
		for _, pc := range dialed {
			p.handBack(pc)
		}
		p.cond.Broadcast()
		p.mu.Unlock()

		if dialErr != nil {
			p.log.WarnErr("pool top-up incomplete", dialErr)
			return
		}
	}
}

// Shutdown drains the pool: new acquires are rejected immediately, idle
// connections are closed, and active ones get a bounded grace period to
// be released before they are force-closed. The transition to Closed is
// terminal.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case Closed:
		p.mu.Unlock()
		return nil
	case Uninitialized:
		p.state = Closed
		p.mu.Unlock()
		return nil
	}
	p.state = Draining

	idle := p.idle
	p.idle = nil
	for _, w := range p.waiters {
		w.ch <- nil
	}
	p.waiters = nil
	p.mu.Unlock()

	p.stopHealthLoop()

	var result *multierror.Error
	for _, pc := range idle {
		if err := pc.conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	// Bounded wait for in-flight leases to come home.
	deadline := time.Now().Add(p.cfg.ShutdownTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	wake := time.AfterFunc(time.Until(deadline), func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer wake.Stop()

	p.mu.Lock()
	for len(p.active)+p.pending > 0 && time.Now().Before(deadline) {
		p.cond.Wait()
	}
	forced := make([]*pooledConn, 0, len(p.active))
	for _, pc := range p.active {
		forced = append(forced, pc)
	}
	p.active = make(map[uuid.UUID]*pooledConn)
	p.state = Closed
	p.mu.Unlock()

	if len(forced) > 0 {
		p.log.Warnf("force-closing %d connections still leased at shutdown", len(forced))
	}
	for _, pc := range forced {
		if err := pc.conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	p.log.Info("pool closed")
	return result.ErrorOrNil()
}

// Stats returns a point-in-time snapshot of pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:         p.size(),
		Active:       len(p.active) + p.pending,
		Idle:         len(p.idle) + p.probing,
		TotalCreated: p.created,
	}
}

// State returns the current lifecycle phase.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
