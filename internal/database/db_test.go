package database

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB connects to the database named by TEST_DB_* and resets the
// schema. Tests are skipped when no test database is configured.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("Test database not configured")
	}

	port, err := strconv.Atoi(envOr("TEST_DB_PORT", "5432"))
	require.NoError(t, err)

	ctx := context.Background()
	db, err := New(ctx, Config{
		Host:     host,
		Port:     port,
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		Database: envOr("TEST_DB_NAME", "price_tracker_test"),
		MaxConns: 4,
	})
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Exec(ctx, "TRUNCATE outbox_event, price_history, tracked_products")
	require.NoError(t, err)

	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
