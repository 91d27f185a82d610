package migrate

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

func newSQLiteClient(t *testing.T) *db.Client {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "autorun.db")
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn, Driver: config.DriverSQLite}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMaybeRunDevMigratesOnlyWhenEnabled(t *testing.T) {
	ctx := context.Background()
	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "migrate-test", Output: logs})

	client := newSQLiteClient(t)
	sqlDB, err := client.SQL()
	require.NoError(t, err)

	prod := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	require.NoError(t, MaybeRunDev(ctx, prod, logg, client))
	var tables int
	require.NoError(t, sqlDB.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'orders'`).Scan(&tables))
	assert.Zero(t, tables)

	dev := &config.Config{App: config.AppConfig{Env: config.AppEnvDev}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	require.NoError(t, MaybeRunDev(ctx, dev, logg, client))
	require.NoError(t, sqlDB.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'orders'`).Scan(&tables))
	assert.Equal(t, 1, tables)
	assert.Contains(t, logs.String(), `"schema_version":20250301120200`)
}
