package db

import (
	"fmt"
	"net/url"
	"strings"
)

const sqliteBusyTimeoutMS = "5000"

// SQLiteDSN returns dsn with the connection settings the store depends on.
// Foreign keys are always enforced, even when dsn turns them off. Writers take
// the database lock at BEGIN and wait for it instead of failing with SQLITE_BUSY,
// unless dsn picks its own _txlock or timeout. Both bare paths and file: URIs
// are accepted.
func SQLiteDSN(dsn string) (string, error) {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	if base == "" {
		return "", fmt.Errorf("sqlite dsn has no database path")
	}
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite dsn params: %w", err)
	}

	params.Del("_fk")
	params.Set("_foreign_keys", "on")
	if params.Get("_txlock") == "" {
		params.Set("_txlock", "immediate")
	}
	if params.Get("_busy_timeout") == "" && params.Get("_timeout") == "" {
		params.Set("_busy_timeout", sqliteBusyTimeoutMS)
	}
	return base + "?" + params.Encode(), nil
}
