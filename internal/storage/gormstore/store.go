// Package gormstore implements storage.Store on top of the shared GORM client.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db"
)

// Name identifies the adapter in logs and health output.
const Name = "gorm"

// Store is the GORM backed storage.Store.
type Store struct {
	repository
	client *db.Client
}

var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*txRepository)(nil)
)

// New builds a store around the provided client.
func New(client *db.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Store{
		repository: repository{db: client.DB(), dialect: client.Dialect()},
		client:     client,
	}, nil
}

// WithTx runs fn against a transaction-bound repository.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(&txRepository{repository: repository{db: tx, dialect: s.dialect}})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) Name() string {
	return Name
}

type repository struct {
	db      *gorm.DB
	dialect string
}

type txRepository struct {
	repository
}

// forUpdate adds a row lock where the engine supports one; SQLite serializes writers instead.
func (r repository) forUpdate(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.dialect == db.DialectPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return storage.TranslateDriverError(err)
}

// affected turns a zero-row write into ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
