// Package oracle implements database.Connector for Oracle backends on top
// of the pure-Go go-ora driver.
//
// Each Connect call opens one dedicated session: the pool above this
// package owns connection reuse, so the database/sql handle backing a
// session is pinned to exactly one underlying connection.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	go_ora "github.com/sijms/go-ora/v2" // also registers "oracle" with database/sql

	"github.com/orakit-io/orakit/internal/database"
	"github.com/orakit-io/orakit/internal/errs"
)

func init() {
	database.Register("oracle", func(cfg *database.Config) (database.Connector, error) {
		return NewConnector(cfg), nil
	})
}

// probeQuery is the lightweight round trip used to validate a session.
const probeQuery = "SELECT 1 FROM dual"

// Connector dials new Oracle sessions from a validated config.
type Connector struct {
	cfg *database.Config
	url string
}

// NewConnector builds a Connector. The config must already be validated.
func NewConnector(cfg *database.Config) *Connector {
	return &Connector{cfg: cfg, url: buildURL(cfg)}
}

// Connect establishes one new dedicated session and verifies it with a
// probe round trip before handing it out.
func (c *Connector) Connect(ctx context.Context) (database.Conn, error) {
	db, err := sql.Open("oracle", c.url)
	if err != nil {
		return nil, mapError(err, "invalid connection URL")
	}

	// One pooled conn per handle: session affinity is managed by the
	// orakit pool, not database/sql.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn := &sqlConn{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

// buildURL renders the go-ora connection URL from the config.
func buildURL(cfg *database.Config) string {
	opts := map[string]string{
		"TIMEOUT": strconv.Itoa(int(cfg.Timeout.Seconds())),
	}
	if cfg.SID != "" {
		opts["SID"] = cfg.SID
	}
	if cfg.Charset != "" {
		opts["CHARSET"] = cfg.Charset
	}
	if cfg.Protocol == "tcps" {
		opts["SSL"] = "TRUE"
		opts["SSL VERIFY"] = strconv.FormatBool(cfg.VerifyServerIdentity)
		// go-ora consumes certificate material from a wallet directory.
		if cfg.TLSCAPath != "" {
			opts["WALLET"] = cfg.TLSCAPath
		}
	}
	return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Service, cfg.User, cfg.Password, opts)
}

// --- database.Conn implementation ---

// sqlConn is one Oracle session behind a pinned database/sql handle.
type sqlConn struct {
	db *sql.DB
}

func (c *sqlConn) Ping(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, probeQuery).Scan(&one); err != nil {
		return mapError(err, "probe failed")
	}
	return nil
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &oraRows{rows: rows}, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, "rows affected unavailable")
	}
	return affected, nil
}

func (c *sqlConn) Close() error {
	if err := c.db.Close(); err != nil {
		return mapError(err, "close failed")
	}
	return nil
}

// --- sql.DB type wrappers ---

type oraRows struct {
	rows *sql.Rows
}

func (r *oraRows) Next() bool                 { return r.rows.Next() }
func (r *oraRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *oraRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *oraRows) Close()                     { _ = r.rows.Close() }
func (r *oraRows) Err() error                 { return r.rows.Err() }

// mapError translates driver-native errors into *errs.Error using the
// shared classifier. The message keeps caller context; the cause keeps
// the raw driver error for logs.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	category := errs.Classify(err)
	if category == errs.Unknown {
		return errs.Wrap(errs.Unknown, fmt.Sprintf("%s: unclassified driver error", msg), err)
	}
	return errs.Wrap(category, msg, err)
}
