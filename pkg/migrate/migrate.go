package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/gastaldl/lojaflow/pkg/db"
)

// DefaultDir is the on-disk root of the per-dialect migration directories.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedded embed.FS

// goose keeps dialect and filesystem as package globals.
var gooseMu sync.Mutex

// DirFor returns the on-disk migration directory for a dialect under root.
func DirFor(root, dialect string) string {
	return filepath.Join(root, dialect)
}

func gooseDialect(dialect string) (string, error) {
	switch dialect {
	case db.DialectPostgres:
		return "postgres", nil
	case db.DialectSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("unsupported migration dialect %q", dialect)
}

func withGoose(dialect string, fn func(dir string) error) error {
	name, err := gooseDialect(dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn(path.Join("migrations", dialect))
}

// Run executes a standard goose command against the embedded migrations of the dialect.
func Run(ctx context.Context, sqlDB *sql.DB, dialect string, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}

	return withGoose(dialect, func(dir string) error {
		// RunContext prints status output to stdout (goose internal)
		if err := goose.RunContext(ctx, command, sqlDB, dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// Up applies every pending migration.
func Up(ctx context.Context, sqlDB *sql.DB, dialect string) error {
	return Run(ctx, sqlDB, dialect, "up")
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, sqlDB *sql.DB, dialect string, targetVersion string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	return withGoose(dialect, func(dir string) error {
		current, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}

		switch {
		case current == target:
			return nil

		case current < target:
			if err := goose.UpToContext(ctx, sqlDB, dir, target); err != nil {
				return fmt.Errorf("goose up-to %d: %w", target, err)
			}
			return nil

		default:
			if err := goose.DownToContext(ctx, sqlDB, dir, target); err != nil {
				return fmt.Errorf("goose down-to %d: %w", target, err)
			}
			return nil
		}
	})
}

// Version reports the applied schema version.
func Version(ctx context.Context, sqlDB *sql.DB, dialect string) (int64, error) {
	var version int64
	err := withGoose(dialect, func(string) error {
		v, err := goose.GetDBVersionContext(ctx, sqlDB)
		version = v
		return err
	})
	return version, err
}
