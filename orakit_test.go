package orakit

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orakit-io/orakit/internal/database"
	"github.com/orakit-io/orakit/internal/errs"
	"github.com/orakit-io/orakit/internal/snapshot"
)

// memRows serves a fixed grid through the database.Rows interface.
type memRows struct {
	cols   []string
	grid   [][]any
	cursor int
}

func (r *memRows) Next() bool {
	if r.cursor >= len(r.grid) {
		return false
	}
	r.cursor++
	return true
}

func (r *memRows) Scan(dest ...any) error {
	row := r.grid[r.cursor-1]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	return nil
}

func (r *memRows) Columns() ([]string, error) { return r.cols, nil }
func (r *memRows) Close()                     {}
func (r *memRows) Err() error                 { return nil }

// memConn answers a one-table catalog (APP.WIDGETS) plus a couple of
// application queries.
type memConn struct{}

func (memConn) Ping(ctx context.Context) error { return nil }
func (memConn) Close() error                   { return nil }

func (memConn) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	return 1, nil
}

func (memConn) Query(ctx context.Context, stmt string, args ...any) (database.Rows, error) {
	bind := func(name string) any {
		for _, a := range args {
			if na, ok := a.(sql.NamedArg); ok && strings.EqualFold(na.Name, name) {
				return na.Value
			}
		}
		return nil
	}

	switch {
	case strings.Contains(stmt, "all_users"):
		return &memRows{cols: []string{"USERNAME"}, grid: [][]any{{"APP"}}}, nil
	case strings.Contains(stmt, "FROM all_tables") && strings.Contains(stmt, "ORDER BY"):
		return &memRows{cols: []string{"TABLE_NAME"}, grid: [][]any{{"WIDGETS"}}}, nil
	case strings.Contains(stmt, "num_rows"):
		return &memRows{cols: []string{"NUM_ROWS"}, grid: [][]any{{int64(42)}}}, nil
	case strings.Contains(stmt, "all_tab_columns"):
		if bind("table_name") != "WIDGETS" {
			return &memRows{}, nil
		}
		return &memRows{
			cols: []string{"COLUMN_NAME", "DATA_TYPE", "CHAR_LENGTH", "DATA_PRECISION", "DATA_SCALE", "NULLABLE", "DATA_DEFAULT"},
			grid: [][]any{
				{"ID", "NUMBER", nil, int64(10), int64(0), "N", nil},
				{"LABEL", "VARCHAR2", int64(60), nil, nil, "N", nil},
			},
		}, nil
	case strings.Contains(stmt, "FROM all_constraints") && strings.Contains(stmt, "table_name = :table_name"):
		return &memRows{
			cols: []string{"CONSTRAINT_NAME", "CONSTRAINT_TYPE", "SEARCH_CONDITION", "R_OWNER", "R_CONSTRAINT_NAME"},
			grid: [][]any{{"WIDGETS_PK", "P", nil, nil, nil}},
		}, nil
	case strings.Contains(stmt, "all_cons_columns"):
		return &memRows{cols: []string{"COLUMN_NAME"}, grid: [][]any{{"ID"}}}, nil
	case strings.Contains(stmt, "SELECT label"):
		return &memRows{cols: []string{"LABEL"}, grid: [][]any{{"sprocket"}}}, nil
	}
	return &memRows{}, nil
}

type memConnector struct{}

func (memConnector) Connect(ctx context.Context) (database.Conn, error) {
	return memConn{}, nil
}

func testConfig() *database.Config {
	cfg := database.DefaultConfig("db.local", "APPDB", "app", "secret")
	cfg.DefaultSchema = "APP"
	cfg.PoolMin = 1
	cfg.PoolMax = 2
	return cfg
}

func connectedClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(testConfig(), WithConnector(memConnector{}))
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	return client
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Host = ""
	_, err := New(cfg)
	require.Error(t, err)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestConnect_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Driver = "no-such-backend"
	client, err := New(cfg)
	require.NoError(t, err)

	err = client.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-backend")
}

func TestConnect_Twice(t *testing.T) {
	client := connectedClient(t)
	err := client.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsResource(err))
}

func TestQueryBeforeConnect(t *testing.T) {
	client, err := New(testConfig(), WithConnector(memConnector{}))
	require.NoError(t, err)

	_, err = client.Query(context.Background(), "SELECT 1 FROM dual")
	require.Error(t, err)
	assert.True(t, errs.IsResource(err))
}

func TestClient_QueryRoundTrip(t *testing.T) {
	client := connectedClient(t)

	res, err := client.Query(context.Background(), "SELECT label FROM widgets")
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "sprocket", res.Rows[0]["LABEL"])

	row, err := client.QueryOne(context.Background(), "SELECT label FROM widgets")
	require.NoError(t, err)
	assert.Equal(t, "sprocket", row["LABEL"])

	stats := client.PoolStats()
	assert.Equal(t, 0, stats.Active)
	assert.GreaterOrEqual(t, stats.Idle, 1)
}

func TestClient_Metadata(t *testing.T) {
	client := connectedClient(t)
	ctx := context.Background()

	schemas, err := client.Schemas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"APP"}, schemas)

	tables, err := client.Tables(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, []string{"WIDGETS"}, tables)

	// Empty owner falls back to the configured default schema.
	tables, err = client.Tables(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"WIDGETS"}, tables)

	cols, err := client.Columns(ctx, "APP", "WIDGETS")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "ID", cols[0].Name)

	table, err := client.TableMetadata(ctx, "APP", "WIDGETS")
	require.NoError(t, err)
	require.NotNil(t, table.RowCount)
	assert.Equal(t, int64(42), *table.RowCount)
}

func TestClient_GenerateTableDDL(t *testing.T) {
	client := connectedClient(t)

	ddl, err := client.GenerateTableDDL(context.Background(), "APP", "WIDGETS")
	require.NoError(t, err)

	assert.Contains(t, ddl, "CREATE TABLE WIDGETS (")
	assert.Contains(t, ddl, "ID NUMBER(10) NOT NULL")
	assert.Contains(t, ddl, "LABEL VARCHAR2(60) NOT NULL")
	assert.Contains(t, ddl, "CONSTRAINT WIDGETS_PK PRIMARY KEY (ID)")
}

// memStore captures snapshot uploads in memory.
type memStore struct {
	bucket, key, body string
}

func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close() error                   { return nil }

func (s *memStore) Put(ctx context.Context, bucket, key, body string) (*snapshot.PutInfo, error) {
	s.bucket, s.key, s.body = bucket, key, body
	return &snapshot.PutInfo{
		Bucket:     bucket,
		Key:        key,
		Size:       int64(len(body)),
		UploadedAt: time.Now().UTC(),
	}, nil
}

func TestClient_ExportSchemaDDL(t *testing.T) {
	client := connectedClient(t)
	store := &memStore{}

	info, err := client.ExportSchemaDDL(context.Background(), store, "ddl-archive", "APP")
	require.NoError(t, err)

	assert.Equal(t, "ddl-archive", info.Bucket)
	assert.True(t, strings.HasPrefix(info.Key, "app/"), info.Key)
	assert.True(t, strings.HasSuffix(info.Key, ".sql"), info.Key)
	assert.Contains(t, store.body, "CREATE TABLE WIDGETS")
}

func TestClose_Idempotent(t *testing.T) {
	client := connectedClient(t)
	require.NoError(t, client.Close(context.Background()))
	require.NoError(t, client.Close(context.Background()))
}
