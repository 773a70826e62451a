package pool

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/orakit-io/orakit/internal/database"
)

// pooledConn wraps one live backend session with the bookkeeping the pool
// needs. All fields except the handle itself are guarded by the pool
// mutex; the session is used by at most one goroutine at a time.
type pooledConn struct {
	id            uuid.UUID
	conn          database.Conn
	createdAt     time.Time
	lastValidated time.Time
	unhealthy     bool
}

func newPooledConn(conn database.Conn) *pooledConn {
	now := time.Now()
	return &pooledConn{
		id:            uuid.New(),
		conn:          conn,
		createdAt:     now,
		lastValidated: now,
	}
}

// Lease is a borrowed reference to one pooled connection. The pool keeps
// ownership: callers must hand the lease back with Pool.Release exactly
// once, even when an operation on it failed.
type Lease struct {
	pc        *pooledConn
	pool      *Pool
	released  atomic.Bool
	unhealthy atomic.Bool
}

// Conn returns the leased session. Never retain it past Release.
func (l *Lease) Conn() database.Conn {
	return l.pc.conn
}

// ID returns the pooled connection's unique identifier.
func (l *Lease) ID() string {
	return l.pc.id.String()
}

// MarkUnhealthy flags the underlying session as unusable. The pool
// destroys it on Release instead of returning it to the idle set.
func (l *Lease) MarkUnhealthy() {
	l.unhealthy.Store(true)
}
