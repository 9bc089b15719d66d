// Package errors provides custom error types for the papertrade API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Trading errors.
var (
	ErrInvalidOrder         = &AppError{Code: "INVALID_ORDER", Message: "Order quantity and price must be positive", StatusCode: http.StatusBadRequest}
	ErrInsufficientFunds    = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient fiat balance for this purchase", StatusCode: http.StatusBadRequest}
	ErrInsufficientHoldings = &AppError{Code: "INSUFFICIENT_HOLDINGS", Message: "Insufficient holdings for this sale", StatusCode: http.StatusBadRequest}
	ErrPositionNotFound     = &AppError{Code: "POSITION_NOT_FOUND", Message: "No position held for this asset", StatusCode: http.StatusNotFound}
)

// Valuation errors.
var (
	// ErrFeedUnavailable is non-fatal: the valuator logs it and skips the
	// affected asset for the current refresh cycle.
	ErrFeedUnavailable = &AppError{Code: "FEED_UNAVAILABLE", Message: "Price feed unavailable for asset", StatusCode: http.StatusBadGateway}
)

// Persistence errors.
var (
	// ErrPersistence means the in-memory state was published but the
	// durable write failed; the caller may retry the whole operation.
	ErrPersistence = &AppError{Code: "PERSISTENCE", Message: "Failed to persist state", StatusCode: http.StatusInternalServerError}
)

// Authentication errors.
var (
	ErrUnauthorized           = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrPINNotSet              = &AppError{Code: "PIN_NOT_SET", Message: "No PIN has been set", StatusCode: http.StatusConflict}
	ErrPINAlreadySet          = &AppError{Code: "PIN_ALREADY_SET", Message: "A PIN has already been set", StatusCode: http.StatusConflict}
	ErrInvalidPIN             = &AppError{Code: "INVALID_PIN", Message: "Invalid PIN", StatusCode: http.StatusUnauthorized}
	ErrInvalidTradingPassword = &AppError{Code: "INVALID_TRADING_PASSWORD", Message: "Invalid trading password", StatusCode: http.StatusUnauthorized}
)
