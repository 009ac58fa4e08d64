package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("saving contract: %w", Validation("end_date", "must be after start_date"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "end_date: must be after start_date", errors.Unwrap(err).Error())
}

func TestErrorsIsMatchesDeclaredSentinel(t *testing.T) {
	errNoContract := Precondition("no active contract")
	other := Precondition("no active contract")

	assert.True(t, errors.Is(fmt.Errorf("generate: %w", errNoContract), errNoContract))
	assert.False(t, errors.Is(other, errNoContract))
	assert.True(t, errors.Is(other, ErrPrecondition))
}

func TestWithCauseKeepsOriginal(t *testing.T) {
	base := Conflict("duplicate payslip")
	cause := errors.New("unique violation")
	wrapped := base.WithCause(cause)

	assert.Nil(t, base.Cause)
	assert.True(t, errors.Is(wrapped, cause))
	assert.Contains(t, wrapped.Error(), "unique violation")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindOf(Validation("x", "bad"))))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindOf(NotFound("contract"))))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindOf(Conflict("dup"))))
	assert.Equal(t, http.StatusPreconditionFailed, HTTPStatus(KindOf(Precondition("none"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindOf(errors.New("boom"))))
}
