// Package storagetest holds the shared fixtures and the conformance suite every
// storage adapter must pass.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/migrate"
)

// SQLiteDSN is a bare path to a fresh database file under the test's temp dir, the
// shape an operator puts in LOJAFLOW_DB_DSN. db.New and sqlstore.Open add the
// connection settings.
func SQLiteDSN(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "lojaflow.db")
}

// NewSQLiteClient opens a migrated SQLite database and closes it with the test.
func NewSQLiteClient(t testing.TB) *db.Client {
	t.Helper()
	ctx := context.Background()

	client, err := db.New(ctx, config.DBConfig{DSN: SQLiteDSN(t), Driver: config.DriverSQLite}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, sqlDB, client.Dialect()))
	return client
}
