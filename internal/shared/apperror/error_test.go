package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-leave/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	t.Run("app error keeps its code", func(t *testing.T) {
		err := apperror.New(apperror.CodeConflict, "already taken", http.StatusConflict)
		got := apperror.ToHTTP(fmt.Errorf("outer: %w", err))

		assert.Equal(t, http.StatusConflict, got.Status)
		assert.Equal(t, apperror.CodeConflict, got.Code)
		assert.Equal(t, "already taken", got.Message)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := apperror.ToHTTP(errors.New("connection reset"))

		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, apperror.CodeInternalError, got.Code)
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := apperror.Wrap(cause, apperror.CodeInternalError, "store failed", http.StatusInternalServerError)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store failed: boom", err.Error())
	assert.Nil(t, apperror.Wrap(nil, apperror.CodeInternalError, "x", 500))
}

func TestMapValidationError(t *testing.T) {
	type payload struct {
		Reason string `validate:"required"`
		Kind   string `validate:"oneof=CASUAL SICK"`
	}
	v := validator.New()

	err := v.Struct(payload{Kind: "CASUAL"})
	mapped := apperror.MapValidationError(err)
	var appErr *apperror.AppError
	assert.True(t, errors.As(mapped, &appErr))
	assert.Equal(t, "Reason is required", appErr.Message)

	err = v.Struct(payload{Reason: "trip", Kind: "BOGUS"})
	mapped = apperror.MapValidationError(err)
	assert.True(t, errors.As(mapped, &appErr))
	assert.Equal(t, "Kind is invalid", appErr.Message)

	mapped = apperror.MapValidationError(errors.New("EOF"))
	assert.True(t, errors.As(mapped, &appErr))
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
