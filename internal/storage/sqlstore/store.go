// Package sqlstore implements storage.Store with hand-written SQL over database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

// Name identifies the adapter in logs and health output.
const Name = "sql"

// Store is the database/sql backed storage.Store.
type Store struct {
	repository
	conn  *sql.DB
	owned bool
	logg  *logger.Logger
}

var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*txRepository)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New wraps an existing pool. dialect is db.DialectPostgres or db.DialectSQLite.
func New(conn *sql.DB, dialect string) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("sql db required")
	}
	if dialect != db.DialectPostgres && dialect != db.DialectSQLite {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &Store{repository: repository{q: conn, dialect: dialect}, conn: conn}, nil
}

// Open dials a dedicated pool: lib/pq for Postgres, go-sqlite3 for SQLite. logg may be nil.
func Open(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var (
		conn    *sql.DB
		dialect string
	)
	if cfg.IsSQLite() {
		dsn, err := db.SQLiteDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		opened, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		conn = opened
		dialect = db.DialectSQLite
	} else {
		connector, err := pq.NewConnector(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialect = db.DialectPostgres
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store, err := New(conn, dialect)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	store.owned = true
	store.logg = logg
	return store, nil
}

// DB exposes the pool, for migrations.
func (s *Store) DB() *sql.DB {
	return s.conn
}

// Dialect reports the engine family.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close releases the pool when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.conn.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) Name() string {
	return Name
}

// WithTx runs fn in a transaction. A failed rollback is surfaced, never swallowed.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			db.LogPanicRollback(ctx, s.logg, r, tx.Rollback())
			panic(r)
		}
	}()

	if err := fn(&txRepository{repository: repository{q: tx, dialect: s.dialect}}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return db.RollbackFailed(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type repository struct {
	q       querier
	dialect string
}

type txRepository struct {
	repository
}

// rebind rewrites ? placeholders into the $n form Postgres expects.
func (r repository) rebind(query string) string {
	if r.dialect != db.DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// forUpdate appends a row lock where the engine supports one.
func (r repository) forUpdate(query string) string {
	if r.dialect == db.DialectPostgres {
		return query + " FOR UPDATE"
	}
	return query
}

func (r repository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := r.q.ExecContext(ctx, r.rebind(query), args...)
	return res, translate(err)
}

func (r repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := r.q.QueryContext(ctx, r.rebind(query), args...)
	return rows, translate(err)
}

func (r repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.rebind(query), args...)
}

// execOne runs a single-row write and maps zero affected rows to ErrNotFound.
func (r repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return storage.TranslateDriverError(err)
}

type scanner interface {
	Scan(dest ...any) error
}

func now() time.Time {
	return time.Now().UTC()
}
