// Package database defines the backend-neutral contracts the rest of
// orakit is built on: the connection and connector interfaces the pool
// manages, the row-iteration interfaces drivers implement, the canonical
// query result shape, and the connector registry.
//
// All layers above this package talk only to these contracts; they never
// import a driver package directly.
package database

import "context"

// Conn is one dedicated backend session. Instances are created by a
// Connector, owned by the pool, and lent to at most one caller at a time;
// a single Conn never carries two statements concurrently.
type Conn interface {
	// Ping performs a lightweight round trip to verify the session is
	// still usable.
	Ping(ctx context.Context) error

	// Query executes a statement that returns rows.
	// Callers must always close the returned Rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Exec executes a statement that returns no rows and reports the
	// number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Close tears down the backend session.
	Close() error
}

// Connector establishes new backend sessions. Each Connect call returns
// one fresh, dedicated Conn; pooling is the caller's concern.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set, in select order.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
