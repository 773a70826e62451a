// Package query executes parameterized statements over leased pool
// connections and materializes results into the canonical QueryResult
// shape.
//
// Every execution follows the same discipline: validate binds before
// dispatch, acquire, execute, release. The release happens even when
// the statement fails. Connection-category failures flag the lease
// unhealthy so the pool evicts the session instead of recycling it.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/orakit-io/orakit/internal/database"
	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/logger"
	"github.com/orakit-io/orakit/internal/pool"
)

// ConnPool is the slice of the pool the executor needs.
type ConnPool interface {
	Acquire(ctx context.Context) (*pool.Lease, error)
	Release(l *pool.Lease) error
}

// Executor runs statements against pooled connections.
type Executor struct {
	pool ConnPool
	log  *logger.Logger
}

// New builds an Executor over the given pool.
func New(p ConnPool, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{
		pool: p,
		log:  log.With().Str("component", "executor").Logger(),
	}
}

// Query executes a statement that returns rows and materializes them.
func (e *Executor) Query(ctx context.Context, stmt string, args ...any) (*database.QueryResult, error) {
	if err := validateBinds(stmt, args); err != nil {
		return nil, err
	}

	var result *database.QueryResult
	start := time.Now()
	err := e.withConn(ctx, stmt, func(conn database.Conn) error {
		rows, err := conn.Query(ctx, stmt, args...)
		if err != nil {
			return err
		}
		result, err = database.Collect(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	e.log.Debugf("query returned %d rows in %s", result.Count, result.Elapsed)
	return result, nil
}

// QueryOne executes a statement expected to return one row. Zero rows is
// a data-category error; extra rows beyond the first are discarded.
func (e *Executor) QueryOne(ctx context.Context, stmt string, args ...any) (map[string]any, error) {
	result, err := e.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	if result.Count == 0 {
		return nil, errs.New(errs.Data, "no rows returned").WithStmt(stmt)
	}
	return result.Rows[0], nil
}

// Exec executes a statement that returns no rows and reports the number
// of rows affected.
func (e *Executor) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	if err := validateBinds(stmt, args); err != nil {
		return 0, err
	}

	var affected int64
	err := e.withConn(ctx, stmt, func(conn database.Conn) error {
		var execErr error
		affected, execErr = conn.Exec(ctx, stmt, args...)
		return execErr
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ExecMany executes one statement for each bind batch on a SINGLE leased
// connection, respecting per-connection statement serialization. It
// stops at the first failure and reports the rows affected so far.
func (e *Executor) ExecMany(ctx context.Context, stmt string, batches [][]any) (int64, error) {
	for _, batch := range batches {
		if err := validateBinds(stmt, batch); err != nil {
			return 0, err
		}
	}

	var affected int64
	err := e.withConn(ctx, stmt, func(conn database.Conn) error {
		for _, batch := range batches {
			n, execErr := conn.Exec(ctx, stmt, batch...)
			if execErr != nil {
				return execErr
			}
			affected += n
		}
		return nil
	})
	return affected, err
}

// ExecDDL executes a structural (DDL) statement. No binds, no rows.
func (e *Executor) ExecDDL(ctx context.Context, stmt string) error {
	return e.withConn(ctx, stmt, func(conn database.Conn) error {
		_, execErr := conn.Exec(ctx, stmt)
		return execErr
	})
}

// withConn runs fn on a leased connection with guaranteed release. Any
// failure is re-wrapped at this boundary so the surfaced error always
// carries its category and the offending statement text; a
// connection-category failure additionally marks the lease unhealthy so
// the pool destroys the session on release.
func (e *Executor) withConn(ctx context.Context, stmt string, fn func(conn database.Conn) error) error {
	lease, err := e.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := e.pool.Release(lease); relErr != nil {
			e.log.WarnErr("lease release failed", relErr)
		}
	}()

	if err := fn(lease.Conn()); err != nil {
		category := errs.Classify(err)
		if category == errs.Connection {
			lease.MarkUnhealthy()
		}
		return classified(category, err).WithStmt(stmt)
	}
	return nil
}

// classified normalizes an execution failure into *errs.Error without
// double-wrapping driver errors that already carry their category.
func classified(category errs.Category, err error) *errs.Error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	return errs.Wrap(category, "statement execution failed", err)
}
