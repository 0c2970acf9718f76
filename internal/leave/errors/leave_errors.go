package leaveerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"end_date must be on or after start_date",
		http.StatusBadRequest,
	)
	ErrMissingRequiredField = apperror.New(
		apperror.CodeInvalidInput,
		"start_date, end_date, leave_type, reason and manager_id are required",
		http.StatusBadRequest,
	)
	ErrOverlappingRequest = apperror.New(
		apperror.CodeConflict,
		"leave request overlaps an existing pending or approved request",
		http.StatusConflict,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"leave request status does not allow this operation",
		http.StatusConflict,
	)
	ErrUnauthorized = apperror.New(
		apperror.CodeForbidden,
		"actor is not allowed to perform this operation on the leave request",
		http.StatusForbidden,
	)
	ErrNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)

	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"leave_type must be one of CASUAL, SICK, MATERNITY, PERSONAL, OTHER",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"status must be one of ALL, PENDING, APPROVED, REJECTED, CANCELLED",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
)
