package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a unique constraint violation from any supported
// driver. When constraintName is provided, the helper also requires the constraint (or the
// SQLite column list) to be mentioned in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if !matchesPG(err, pgUniqueViolation) &&
		!matchesSQLite(err, sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey) &&
		!strings.Contains(err.Error(), "duplicate key value") {
		return false
	}
	if constraintName != "" {
		return strings.Contains(err.Error(), constraintName) || constraintOf(err) == constraintName
	}
	return true
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return matchesPG(err, pgForeignKeyViolation) || matchesSQLite(err, sqlite3.ErrConstraintForeignKey)
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	return matchesPG(err, pgCheckViolation) || matchesSQLite(err, sqlite3.ErrConstraintCheck)
}

func matchesPG(err error, code string) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

func matchesSQLite(err error, codes ...sqlite3.ErrNoExtended) bool {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	for _, code := range codes {
		if liteErr.ExtendedCode == code {
			return true
		}
	}
	return false
}

func constraintOf(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
