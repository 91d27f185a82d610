package migrate

import (
	"context"
	"fmt"

	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

// MaybeRunDev applies pending migrations at startup, but only in the dev
// environment with LOJAFLOW_AUTO_MIGRATE set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	dialect := client.Dialect()
	ctx = logg.WithField(ctx, "dialect", dialect)

	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	version, err := Version(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("auto-migrate: read version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "schema migrated")
	return nil
}
