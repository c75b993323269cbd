package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrPermission   = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrCapability   = errors.New("plan does not allow this")
	ErrConflict     = errors.New("conflict")
	ErrIntegrity    = errors.New("data integrity violation")
	ErrInternal     = errors.New("internal server error")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error

	// Fields holds one message per offending field for validation errors.
	Fields map[string]string
	// Suggestion is an alternative value offered with a conflict.
	Suggestion string
	// Feature names the plan limit behind a capability error.
	Feature string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.BaseError, e.Err}
	}
	return []error{e.BaseError}
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

// NewNotFoundCause reports a not-found while keeping a more specific sentinel
// reachable through errors.Is. The message stays generic.
func NewNotFoundCause(resource, details string, cause error) *AppError {
	return NewAppError(ErrNotFound, fmt.Sprintf("%s not found", resource), details, cause)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

// NewValidation builds a field-level validation error.
func NewValidation(fields map[string]string) *AppError {
	e := NewAppError(ErrInvalidInput, "Validation failed", joinFields(fields), nil)
	e.Fields = fields
	return e
}

func NewCapability(feature, details string) *AppError {
	e := NewAppError(ErrCapability, "Upgrade your plan to use this feature", details, nil)
	e.Feature = feature
	return e
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

func NewConflictWithSuggestion(resource, field, value, suggestion string) *AppError {
	e := NewConflict(resource, field, value)
	e.Suggestion = suggestion
	return e
}

func NewIntegrity(details string, err error) *AppError {
	return NewAppError(ErrIntegrity, "An internal server error occurred", details, err)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

// FieldErrors returns the field messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrPermission) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrCapability) {
		return http.StatusPaymentRequired
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ToJSON renders the client-facing body. Internal and integrity errors never
// carry details.
func (e *AppError) ToJSON() gin.H {
	body := gin.H{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
	switch {
	case errors.Is(e.BaseError, ErrIntegrity):
		body["error"] = ErrInternal.Error()
	case len(e.Fields) > 0:
		body["fields"] = e.Fields
	}
	if e.Suggestion != "" {
		body["suggestion"] = e.Suggestion
	}
	if e.Feature != "" {
		body["feature"] = e.Feature
		body["upgrade"] = true
	}
	return body
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "; "
		}
		out += k + ": " + fields[k]
	}
	return out
}
