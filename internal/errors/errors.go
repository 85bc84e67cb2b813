// Package errors provides the error taxonomy shared by the pfa client.
// Every failure that reaches a front (web or CLI) is an *AppError so the
// front can decide between an inline field error, a toast, or a redirect to
// the login screen without inspecting transport details.
package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an AppError for presentation.
type Kind string

const (
	// KindValidation errors are caught before any network call.
	KindValidation Kind = "validation"
	// KindTransport errors never produced an HTTP response.
	KindTransport Kind = "transport"
	// KindServer errors are 4xx/5xx responses other than 401.
	KindServer Kind = "server"
	// KindUnauthorized forces the session to be torn down.
	KindUnauthorized Kind = "unauthorized"
	// KindState errors reject an operation the current workflow state forbids.
	KindState Kind = "state"
)

// FieldErrors maps a form field (or "rows[2].amount") to its message.
type FieldErrors map[string]string

// Fields returns the field names in stable order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AppError represents a structured client error with a code, a
// human-readable message, the HTTP status that caused it (0 when no response
// was received), and an optional internal error.
type AppError struct {
	Kind       Kind        `json:"kind"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Fields     FieldErrors `json:"fields,omitempty"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.Fields.Fields() {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so sentinels work with errors.Is after Wrap.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same kind/code/message/status but
// wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithStatus creates a new AppError carrying the response status and message.
func WithStatus(sentinel *AppError, status int, message string) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: status,
	}
}

// Invalid builds a validation error carrying per-field messages.
func Invalid(fields FieldErrors) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Code:       ErrValidation.Code,
		Message:    ErrValidation.Message,
		StatusCode: ErrValidation.StatusCode,
		Fields:     fields,
	}
}

// As returns err as an *AppError, converting foreign errors to ErrInternal.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternal, err)
}

// KindOf reports the kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// IsUnauthorized reports whether err should force re-authentication.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// Validation and workflow errors.
var (
	ErrValidation     = &AppError{Kind: KindValidation, Code: "VALIDATION_FAILED", Message: "Please fix the highlighted fields", StatusCode: http.StatusUnprocessableEntity}
	ErrInvalidInput   = &AppError{Kind: KindValidation, Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNoRows         = &AppError{Kind: KindValidation, Code: "NO_ROWS", Message: "Add at least one row", StatusCode: http.StatusUnprocessableEntity}
	ErrPageOutOfRange = &AppError{Kind: KindValidation, Code: "PAGE_OUT_OF_RANGE", Message: "Page is out of range", StatusCode: http.StatusBadRequest}
	ErrInvalidLimit   = &AppError{Kind: KindValidation, Code: "INVALID_LIMIT", Message: "Unsupported page size", StatusCode: http.StatusBadRequest}
	ErrEmptyUpload    = &AppError{Kind: KindValidation, Code: "EMPTY_UPLOAD", Message: "Empty upload", StatusCode: http.StatusBadRequest}
	ErrInvalidState   = &AppError{Kind: KindState, Code: "INVALID_STATE", Message: "Action not allowed right now", StatusCode: http.StatusConflict}
	ErrStaleResponse  = &AppError{Kind: KindState, Code: "STALE_RESPONSE", Message: "Response superseded by a newer request", StatusCode: http.StatusConflict}
)

// Remote errors.
var (
	ErrUnauthorized = &AppError{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "Session expired, please log in again", StatusCode: http.StatusUnauthorized}
	ErrTransport    = &AppError{Kind: KindTransport, Code: "NETWORK_ERROR", Message: "Could not reach the server, please try again"}
	ErrServer       = &AppError{Kind: KindServer, Code: "SERVER_ERROR", Message: "Something went wrong on the server", StatusCode: http.StatusBadGateway}
	ErrRequest      = &AppError{Kind: KindServer, Code: "REQUEST_REJECTED", Message: "The request was rejected", StatusCode: http.StatusBadRequest}
	ErrNotFound     = &AppError{Kind: KindServer, Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrBadResponse  = &AppError{Kind: KindServer, Code: "BAD_RESPONSE", Message: "The server sent an unexpected response", StatusCode: http.StatusBadGateway}
	ErrInternal     = &AppError{Kind: KindServer, Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Session errors.
var (
	ErrNotLoggedIn = &AppError{Kind: KindUnauthorized, Code: "NOT_LOGGED_IN", Message: "Please log in first", StatusCode: http.StatusUnauthorized}
	ErrTokenStore  = &AppError{Kind: KindServer, Code: "TOKEN_STORE_ERROR", Message: "Could not access the session store", StatusCode: http.StatusInternalServerError}
)
