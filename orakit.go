// Package orakit is a client library for Oracle-class databases. It
// manages a connection pool, executes queries with bind validation,
// introspects the data dictionary and regenerates DDL from the
// resulting descriptors.
//
// Usage:
//
//	cfg := database.DefaultConfig("db.example.com", "ORCLPDB1", "app", "secret")
//	client, err := orakit.New(cfg)
//	if err != nil { ... }
//
//	if err := client.Connect(ctx); err != nil { ... }
//	defer client.Close(ctx)
//
//	res, err := client.Query(ctx, "SELECT ename FROM emp WHERE deptno = :deptno",
//	    sql.Named("deptno", 10))
package orakit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orakit-io/orakit/internal/database"
	_ "github.com/orakit-io/orakit/internal/database/oracle" // registers the "oracle" connector
	"github.com/orakit-io/orakit/internal/ddl"
	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/logger"
	"github.com/orakit-io/orakit/internal/pool"
	"github.com/orakit-io/orakit/internal/query"
	"github.com/orakit-io/orakit/internal/retry"
	"github.com/orakit-io/orakit/internal/schema"
	"github.com/orakit-io/orakit/internal/snapshot"
)

// Client is the top-level entry point. Construct with New, then call
// Connect before issuing queries. Safe for concurrent use once
// connected.
type Client struct {
	cfg       *database.Config
	log       *logger.Logger
	retry     retry.Policy
	connector database.Connector

	pool *pool.Pool
	exec *query.Executor
	meta *schema.Service
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithLogger routes client, pool and executor logging through log.
// The default discards all output; a library stays quiet unless asked.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRetryPolicy overrides the connection retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithConnector bypasses the driver registry with an explicit
// connector. Intended for tests and alternate backends.
func WithConnector(conn database.Connector) Option {
	return func(c *Client) { c.connector = conn }
}

// New validates cfg and builds an unconnected Client.
func New(cfg *database.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errs.New(errs.Unknown, "nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:   cfg,
		log:   logger.Nop(),
		retry: retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect resolves the configured driver, warms the pool to its
// minimum size and wires the executor and metadata service.
func (c *Client) Connect(ctx context.Context) error {
	if c.pool != nil {
		return errs.New(errs.Resource, "client is already connected")
	}

	connector := c.connector
	if connector == nil {
		var err error
		if connector, err = database.Open(c.cfg); err != nil {
			return err
		}
	}

	p := pool.New(connector, c.retry, pool.FromDatabase(c.cfg), c.log)
	if err := p.Initialize(ctx); err != nil {
		return err
	}

	c.pool = p
	c.exec = query.New(p, c.log)
	c.meta = schema.New(c.exec, c.log)
	c.log.With().Str("host", c.cfg.Host).Logger().Info("connected")
	return nil
}

// Close drains and shuts down the pool. Safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Shutdown(ctx)
}

// PoolStats reports pool counters, all zero before Connect.
func (c *Client) PoolStats() pool.Stats {
	if c.pool == nil {
		return pool.Stats{}
	}
	return c.pool.Stats()
}

// Query runs a SELECT and materializes every row.
func (c *Client) Query(ctx context.Context, stmt string, args ...any) (*database.QueryResult, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	return c.exec.Query(ctx, stmt, args...)
}

// QueryOne runs a SELECT expected to yield at least one row and
// returns the first.
func (c *Client) QueryOne(ctx context.Context, stmt string, args ...any) (map[string]any, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	return c.exec.QueryOne(ctx, stmt, args...)
}

// Exec runs a DML statement and returns the affected row count.
func (c *Client) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	if err := c.connected(); err != nil {
		return 0, err
	}
	return c.exec.Exec(ctx, stmt, args...)
}

// ExecMany runs stmt once per batch on a single pooled connection.
func (c *Client) ExecMany(ctx context.Context, stmt string, batches [][]any) (int64, error) {
	if err := c.connected(); err != nil {
		return 0, err
	}
	return c.exec.ExecMany(ctx, stmt, batches)
}

// ExecDDL runs a DDL statement.
func (c *Client) ExecDDL(ctx context.Context, stmt string) error {
	if err := c.connected(); err != nil {
		return err
	}
	return c.exec.ExecDDL(ctx, stmt)
}

// Schemas lists the visible schema names.
func (c *Client) Schemas(ctx context.Context) ([]string, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	return c.meta.ListSchemas(ctx)
}

// Tables lists the table names owned by owner. An empty owner falls
// back to the configured default schema.
func (c *Client) Tables(ctx context.Context, owner string) ([]string, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	return c.meta.ListTables(ctx, c.owner(owner))
}

// Columns returns one table's columns in declared order.
func (c *Client) Columns(ctx context.Context, owner, table string) ([]schema.Column, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	return c.meta.GetColumns(ctx, c.owner(owner), table)
}

// TableMetadata returns the full descriptor for one table.
func (c *Client) TableMetadata(ctx context.Context, owner, table string) (*schema.Table, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	return c.meta.GetTable(ctx, c.owner(owner), table)
}

// Schema introspects every object owned by owner.
func (c *Client) Schema(ctx context.Context, owner string) (*schema.Schema, error) {
	if err := c.connected(); err != nil {
		return nil, err
	}
	return c.meta.GetSchema(ctx, c.owner(owner))
}

// owner substitutes the configured default schema, falling back to the
// connecting user the way the backend resolves unqualified names.
func (c *Client) owner(owner string) string {
	if owner != "" {
		return owner
	}
	if c.cfg.DefaultSchema != "" {
		return c.cfg.DefaultSchema
	}
	return c.cfg.User
}

// GenerateTableDDL introspects one table and renders its CREATE TABLE
// statement.
func (c *Client) GenerateTableDDL(ctx context.Context, owner, table string) (string, error) {
	t, err := c.TableMetadata(ctx, owner, table)
	if err != nil {
		return "", err
	}
	return ddl.GenerateCreateTable(t), nil
}

// GenerateSchemaDDL introspects owner's schema and renders the full
// creation script, tables ordered by foreign key dependency.
func (c *Client) GenerateSchemaDDL(ctx context.Context, owner string) (string, error) {
	sc, err := c.Schema(ctx, owner)
	if err != nil {
		return "", err
	}
	return ddl.GenerateSchemaScript(sc)
}

// ExportSchemaDDL generates owner's schema script and archives it in
// the snapshot store under a timestamped key.
func (c *Client) ExportSchemaDDL(ctx context.Context, store snapshot.Store, bucket, owner string) (*snapshot.PutInfo, error) {
	script, err := c.GenerateSchemaDDL(ctx, owner)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.sql",
		strings.ToLower(strings.TrimSpace(owner)),
		time.Now().UTC().Format("20060102T150405Z"))

	info, err := store.Put(ctx, bucket, key, script)
	if err != nil {
		return nil, err
	}
	c.log.With().Str("bucket", info.Bucket).Str("key", info.Key).Logger().
		Info("schema snapshot stored")
	return info, nil
}

func (c *Client) connected() error {
	if c.pool == nil {
		return errs.New(errs.Resource, "client is not connected, call Connect first")
	}
	return nil
}
