package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container, applies the schema and returns
// a connection. Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	applySchema(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// applySchema creates the archive table. Mirrors the embedded migration;
// inlined here because the migrations package depends on this one.
func applySchema(t *testing.T, conn *Conn) {
	t.Helper()

	err := conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS analytics_history (
			asset_key       String,
			floor_1st       Nullable(Float64),
			floor_2nd       Nullable(Float64),
			floor_3rd       Nullable(Float64),
			listings_count  UInt32,
			sales_7d        UInt32,
			sales_30d       UInt32,
			price_q25       Nullable(Float64),
			price_q50       Nullable(Float64),
			price_q75       Nullable(Float64),
			price_max       Nullable(Float64),
			liquidity_score Float64,
			confidence      LowCardinality(String),
			last_sale_at    Nullable(DateTime64(3, 'UTC')),
			trend           LowCardinality(String),
			computed_at     DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (asset_key, computed_at)
	`)
	require.NoError(t, err, "failed to create analytics_history")
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
