package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeNotFound           = "NOT_FOUND"
	CodeItemNotFound       = "ITEM_NOT_FOUND"
	CodeNoPriceData        = "NO_PRICE_DATA"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInternalServer     = "INTERNAL_SERVER_ERROR"
	CodeExportFailed       = "EXPORT_FAILED"
	CodeWebSocketUpgrade   = "WEBSOCKET_UPGRADE_FAILED"
	CodeDataNotLoaded      = "DATA_NOT_LOADED"
	CodeLoadFailed         = "SNAPSHOT_LOAD_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Predefined errors
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed")
	ErrInvalidParameter = New(http.StatusBadRequest, CodeInvalidParameter, "Invalid parameter value")

	// 404 Not Found
	ErrNotFound     = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrItemNotFound = New(http.StatusNotFound, CodeItemNotFound, "Item not found")
	ErrNoPriceData  = New(http.StatusNotFound, CodeNoPriceData, "Item has no price data")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer   = New(http.StatusInternalServerError, CodeInternalServer, "Internal server error")
	ErrWebSocketUpgrade = New(http.StatusInternalServerError, CodeWebSocketUpgrade, "WebSocket upgrade failed")

	// 503 Service Unavailable
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// ItemNotFoundError reports an unknown item id
func ItemNotFoundError(id int) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeItemNotFound, fmt.Sprintf("Item %d not found", id), id)
}

// NoPriceDataError reports an item without a price series
func NoPriceDataError(id int) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNoPriceData, fmt.Sprintf("Item %d has no price data", id), id)
}

// UnsupportedFormatError reports an export format that is not offered
func UnsupportedFormatError(format string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeUnsupportedFormat, fmt.Sprintf("Unsupported export format %q", format), format)
}

// DataNotLoadedError reports that no dataset is available. cause carries the
// last load failure and is exposed as the detail.
func DataNotLoadedError(cause error) *APIError {
	var details interface{}
	if cause != nil {
		details = cause.Error()
	}
	return NewWithDetails(http.StatusServiceUnavailable, CodeDataNotLoaded, "Dashboard data is not loaded", details)
}

// LoadFailedError reports a failed manual reload
func LoadFailedError(err error) *APIError {
	return NewWithDetails(http.StatusBadGateway, CodeLoadFailed, "Snapshot reload failed", err.Error())
}

// ExportFailedError wraps a failure while writing an export
func ExportFailedError(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeExportFailed, "Export failed", err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
