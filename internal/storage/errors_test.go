package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

func TestTyped(t *testing.T) {
	cases := []struct {
		err  error
		code pkgerrors.Code
	}{
		{ErrNotFound, pkgerrors.CodeNotFound},
		{fmt.Errorf("%w: boom", ErrDuplicateKey), pkgerrors.CodeDuplicateKey},
		{ErrReferenced, pkgerrors.CodeConflict},
		{&InsufficientStockError{ProductID: 1, Available: 0, Delta: -1}, pkgerrors.CodeInsufficientStock},
		{errors.New("network"), pkgerrors.CodeDependency},
		{pkgerrors.New(pkgerrors.CodeValidation, "bad"), pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		typed := pkgerrors.As(Typed(tc.err, "product"))
		if assert.NotNil(t, typed) {
			assert.Equal(t, tc.code, typed.Code(), tc.err.Error())
		}
	}
	assert.NoError(t, Typed(nil, "product"))
	assert.Equal(t, "product not found", pkgerrors.As(Typed(ErrNotFound, "product")).Message())
}

func TestTranslateDriverErrorPassesThroughUnknown(t *testing.T) {
	plain := errors.New("plain")
	assert.Same(t, plain, TranslateDriverError(plain))
	assert.NoError(t, TranslateDriverError(nil))
}
