package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for recovery decisions in the receipt session.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindSpecialDenied      Kind = "SpecialDenied"
	KindNotAdmin           Kind = "NotAdmin"
	KindAccountLocked      Kind = "AccountLocked"
	KindBadCredentials     Kind = "BadCredentials"
	KindDataUnavailable    Kind = "DataUnavailable"
	KindIntegrity          Kind = "IntegrityError"
	KindTransactionAborted Kind = "TransactionAborted"
	KindRender             Kind = "RenderError"
	KindSessionBusy        Kind = "SessionBusy"
	KindNotFound           Kind = "NotFound"
	KindUnexpected         Kind = "UnexpectedError"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	cause   error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches sentinels by kind and message so wrapped copies still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Kind: KindBadCredentials, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Kind: KindNotAdmin, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Kind: KindUnexpected, Message: "Internal server error"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindBadCredentials, Message: "Invalid username or password"}
	ErrAccountLocked      = &AppError{Code: http.StatusLocked, Kind: KindAccountLocked, Message: "Account is temporarily locked"}
	ErrNotAdmin           = &AppError{Code: http.StatusForbidden, Kind: KindNotAdmin, Message: "Administrator role required"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Kind: KindBadCredentials, Message: "Invalid token"}
)

// Receipt engine errors
var (
	ErrNoClient        = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "No client selected"}
	ErrUnknownClient   = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Unknown client"}
	ErrUnknownProduct  = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Unknown product"}
	ErrQtyNotPositive  = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Quantity must be a positive number with at most three decimals"}
	ErrNoSuchLine      = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Product is not in the cart"}
	ErrEmptyCart       = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Cart is empty"}
	ErrCartFrozen      = &AppError{Code: http.StatusConflict, Kind: KindValidation, Message: "Cart is frozen"}
	ErrInvalidDiscount = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Discount must be between 0 and 100"}
	ErrInvalidPrice    = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Base price must not be negative"}
	ErrSpecialDenied   = &AppError{Code: http.StatusForbidden, Kind: KindSpecialDenied, Message: "Admin authorization required for special product"}
	ErrSessionBusy     = &AppError{Code: http.StatusConflict, Kind: KindSessionBusy, Message: "A receipt is being generated"}
	ErrKeyReused       = &AppError{Code: http.StatusConflict, Kind: KindValidation, Message: "Idempotency key was already used for a different receipt"}
	ErrTotalMismatch   = &AppError{Code: http.StatusInternalServerError, Kind: KindUnexpected, Message: "Persisted total does not match cart total"}
)

// NewValidationError reports malformed input field by field. It is a 400
// since the request never reached the receipt session.
func NewValidationError(message string, fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: message,
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// DataUnavailable wraps a catalog read failure.
func DataUnavailable(cause error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindDataUnavailable,
		Message: "Catalog data unavailable",
		cause:   cause,
	}
}

// Integrity wraps a constraint violation detected while writing an invoice.
func Integrity(format string, args ...any) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindIntegrity,
		Message: fmt.Sprintf(format, args...),
	}
}

// TransactionAborted wraps a driver or connection failure inside a transaction.
func TransactionAborted(cause error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindTransactionAborted,
		Message: "Transaction aborted",
		cause:   cause,
	}
}

// Render wraps a PDF generation or storage failure.
func Render(cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindRender,
		Message: "Receipt could not be rendered",
		cause:   cause,
	}
}

// Unexpected wraps any failure without a more specific classification.
func Unexpected(cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindUnexpected,
		Message: "Unexpected error",
		cause:   cause,
	}
}

// Wrap returns a copy of sentinel carrying cause. errors.Is still matches sentinel.
func Wrap(sentinel *AppError, cause error) *AppError {
	cp := *sentinel
	cp.cause = cause
	return &cp
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindUnexpected,
		Message: err.Error(),
	}
}
