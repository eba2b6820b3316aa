package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMatchesKindAndItself(t *testing.T) {
	errPatient := Derive(ErrNotFound, "patient not found")
	errDoctor := Derive(ErrNotFound, "doctor not found")

	wrapped := fmt.Errorf("load patient: %w", errPatient)

	assert.ErrorIs(t, wrapped, errPatient)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, errDoctor)
	assert.Equal(t, "patient not found", errPatient.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, ErrStoreUnavailable, "count overlapping")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.True(t, Retryable(err))
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.Equal(t, "count overlapping: context deadline exceeded", err.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	derived := Derive(ErrDoubleBooked, "slot taken")
	assert.Same(t, derived, FromError(fmt.Errorf("book: %w", derived)))

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.False(t, Retryable(plain))
}
