package storage

import (
	"errors"

	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

// Typed maps the storage sentinels to API error codes. Typed errors pass through and
// anything unrecognised becomes a dependency failure.
func Typed(err error, entity string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	case errors.Is(err, ErrDuplicateKey):
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateKey, err, entity+" already exists")
	case errors.Is(err, ErrReferenced):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" is referenced by order history")
	case errors.Is(err, ErrInsufficientStock):
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "insufficient stock")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, entity+" storage failure")
}
