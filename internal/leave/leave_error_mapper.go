package leave

import (
	"errors"

	"go-leave/internal/shared/apperror"
)

// isDomainError separates rejected operations from infrastructure failures.
func isDomainError(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}
