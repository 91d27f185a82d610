package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/gastaldl/lojaflow/pkg/db"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

// ValidateDir validates migration filenames + basic SQL headers.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := validateFS(os.DirFS(dir), ".")
	return err
}

// ValidateTree validates both dialect directories under root and requires every
// migration to exist for each dialect under the same name.
func ValidateTree(root string) error {
	if root == "" {
		return fmt.Errorf("dir is required")
	}
	return validateTree(os.DirFS(root), ".")
}

// ValidateEmbedded runs ValidateTree against the migrations compiled into the binary.
func ValidateEmbedded() error {
	return validateTree(embedded, "migrations")
}

func validateTree(fsys fs.FS, root string) error {
	pg, err := validateFS(fsys, path.Join(root, db.DialectPostgres))
	if err != nil {
		return fmt.Errorf("%s: %w", db.DialectPostgres, err)
	}
	lite, err := validateFS(fsys, path.Join(root, db.DialectSQLite))
	if err != nil {
		return fmt.Errorf("%s: %w", db.DialectSQLite, err)
	}
	if strings.Join(pg, ",") != strings.Join(lite, ",") {
		return fmt.Errorf("dialect migrations diverge: postgres=%v sqlite=%v", pg, lite)
	}
	return nil
}

func validateFS(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{} // version -> filename
	names := []string{}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name
		names = append(names, name)

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}

		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
	}

	sort.Strings(names)
	return names, nil
}
