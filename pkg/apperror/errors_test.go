package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCartFrozen, cause)

	assert.ErrorIs(t, err, ErrCartFrozen)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, "Cart is frozen: disk full", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("add: %w", ErrQtyNotPositive)))
	assert.Equal(t, KindDataUnavailable, KindOf(DataUnavailable(errors.New("conn refused"))))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
}

func TestGetAppErrorFallsBackToInternal(t *testing.T) {
	appErr := GetAppError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, "boom", appErr.Message)

	appErr = GetAppError(fmt.Errorf("ctx: %w", ErrSessionBusy))
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestConstructorsCarryCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := TransactionAborted(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindTransactionAborted, err.Kind)
	assert.Equal(t, KindIntegrity, Integrity("product %s missing", "x").Kind)
}
