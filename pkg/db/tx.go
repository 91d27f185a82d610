package db

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

// RollbackFailed reports an operation failure whose rollback also failed. The store may
// hold partial effects, so the result carries CodeConsistencyRisk while errors.Is still
// matches both the original cause and the rollback error.
func RollbackFailed(cause, rollbackErr error) error {
	if rollbackErr == nil {
		return cause
	}
	details := map[string]any{"rollback_error": rollbackErr.Error()}
	if cause != nil {
		details["cause"] = cause.Error()
	}
	return pkgerrors.Wrap(pkgerrors.CodeConsistencyRisk, multierr.Combine(cause, rollbackErr), "transaction rollback failed").
		WithDetails(details)
}

// IsRollbackFailure reports whether err came out of RollbackFailed.
func IsRollbackFailure(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeConsistencyRisk)
}

// LogPanicRollback records a rollback that failed while a panic was unwinding. The
// panic keeps propagating, so this entry is where the rollback error surfaces.
func LogPanicRollback(ctx context.Context, logg *logger.Logger, recovered any, rollbackErr error) {
	if logg == nil || rollbackErr == nil {
		return
	}
	logg.Error(ctx, "rollback after panic failed", RollbackFailed(fmt.Errorf("panic: %v", recovered), rollbackErr))
}
