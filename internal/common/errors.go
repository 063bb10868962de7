package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., duplicate slug
	ErrAlreadyAttempted   = errors.New("assignment already attempted by user")
	ErrPartialWrite       = errors.New("content write incomplete")
	ErrInvalidContent     = errors.New("content failed to serialize")
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable") // e.g. object store down
)

// AlreadyAttemptedError reports that an (assignment, user) pair already owns
// an attempt. It carries the existing attempt id so the caller can redirect
// to it instead of retrying.
type AlreadyAttemptedError struct {
	AttemptID string
}

func (e *AlreadyAttemptedError) Error() string {
	return fmt.Sprintf("attempt %s already exists for this assignment and user", e.AttemptID)
}

func (e *AlreadyAttemptedError) Unwrap() error { return ErrAlreadyAttempted }

// PartialWriteError reports that a metadata row was committed but the blob
// write, presign, or link back-fill that follows it failed. The record is
// addressable and the failure is recoverable through the repair path.
type PartialWriteError struct {
	Kind      string
	ID        string
	ObjectKey string
	Cause     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s %s: content write incomplete at key %q: %v", e.Kind, e.ID, e.ObjectKey, e.Cause)
}

func (e *PartialWriteError) Unwrap() error { return ErrPartialWrite }

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidContent) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyAttempted) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrPartialWrite) {
		return http.StatusAccepted // row exists, content pending repair
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}

	// Check for pgx specific errors (example for unique constraint)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
