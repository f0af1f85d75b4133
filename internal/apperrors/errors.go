package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the request conflicts with the current state of a resource.
var ErrConflict = errors.New("conflict")

// ErrForbidden indicates that the caller lacks the permission for the action.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates a missing or invalid identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInternal is returned for failures the caller cannot act upon.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-like status code together with the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets a 500 AppError match ErrInternal.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= http.StatusInternalServerError
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError wraps ErrNotFound with the missing resource description.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

// Conflict kinds.
const (
	ConflictEntityInUse       = "entity_in_use"
	ConflictTagInUse          = "tag_in_use"
	ConflictInvalidTransition = "invalid_transition"
	ConflictReversal          = "reversal_not_cancellable"
	ConflictConcurrentUpdate  = "concurrent_update"
)

// ConflictError is a conflict naming the transaction that blocks the request.
type ConflictError struct {
	Kind          string
	TransactionID *int64
	Message       string
}

func (e *ConflictError) Error() string {
	if e.TransactionID != nil {
		return fmt.Sprintf("%s: %s (transaction %d)", e.Kind, e.Message, *e.TransactionID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is makes every ConflictError match ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError builds a ConflictError. txID may be zero when no transaction blocks.
func NewConflictError(kind string, txID int64, message string) *ConflictError {
	ce := &ConflictError{Kind: kind, Message: message}
	if txID != 0 {
		ce.TransactionID = &txID
	}
	return ce
}
