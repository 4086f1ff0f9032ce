package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TaskErrorValidation   = "TASKS_VALIDATION"
	TaskErrorNotFound     = "TASKS_NOT_FOUND"
	TaskErrorUnauthorized = "TASKS_UNAUTHORIZED"
	TaskErrorConflict     = "TASKS_CONFLICT"
	TaskErrorBadInput     = "TASKS_BAD_INPUT"
	TaskErrorInternal     = "TASKS_INTERNAL"
)

// Authorization failure reasons. They feed diagnostics and the audit
// trail; every one of them surfaces as the same unauthorized status so
// callers cannot distinguish which check failed.
const (
	AuthReasonMissing         = "missing"
	AuthReasonInvalid         = "invalid"
	AuthReasonExpired         = "expired"
	AuthReasonTampered        = "tampered"
	AuthReasonUnknownIdentity = "unknown_identity"
	AuthReasonBadCredentials  = "bad_credentials"
)

// NewValidationError reports malformed input. It always carries the
// offending field name in metadata.
func NewValidationError(field string, message string) *goerrors.Error {
	return ensureTaskErrorEnvelope(
		goerrors.New(message, goerrors.CategoryValidation).
			WithTextCode(TaskErrorValidation).
			WithMetadata(map[string]any{"field": strings.TrimSpace(field)}),
	)
}

// NewNotFoundError covers both a genuinely missing resource and a
// cross-owner access; the two must be indistinguishable to the caller.
func NewNotFoundError(message string) *goerrors.Error {
	return ensureTaskErrorEnvelope(
		goerrors.New(message, goerrors.CategoryNotFound).
			WithTextCode(TaskErrorNotFound),
	)
}

func NewConflictError(field string, message string) *goerrors.Error {
	return ensureTaskErrorEnvelope(
		goerrors.New(message, goerrors.CategoryConflict).
			WithTextCode(TaskErrorConflict).
			WithMetadata(map[string]any{"field": strings.TrimSpace(field)}),
	)
}

func NewAuthError(reason string, message string) *goerrors.Error {
	return ensureTaskErrorEnvelope(
		goerrors.New(message, goerrors.CategoryAuth).
			WithTextCode(TaskErrorUnauthorized).
			WithMetadata(map[string]any{"reason": strings.TrimSpace(reason)}),
	)
}

func IsValidation(err error) bool { return hasCategory(err, goerrors.CategoryValidation) }
func IsNotFound(err error) bool   { return hasCategory(err, goerrors.CategoryNotFound) }
func IsConflict(err error) bool   { return hasCategory(err, goerrors.CategoryConflict) }
func IsAuthFailure(err error) bool {
	return hasCategory(err, goerrors.CategoryAuth) || hasCategory(err, goerrors.CategoryAuthz)
}

func hasCategory(err error, category goerrors.Category) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == category
}

// ErrorField returns the offending field carried by a validation or
// conflict error, if any.
func ErrorField(err error) string {
	var richErr *goerrors.Error
	if err == nil || !goerrors.As(err, &richErr) {
		return ""
	}
	if value, ok := richErr.Metadata["field"].(string); ok {
		return value
	}
	return ""
}

// AuthReason returns the internal failure reason carried by an auth
// error, if any.
func AuthReason(err error) string {
	var richErr *goerrors.Error
	if err == nil || !goerrors.As(err, &richErr) {
		return ""
	}
	if value, ok := richErr.Metadata["reason"].(string); ok {
		return value
	}
	return ""
}

// MapError normalizes any error into the task error envelope. Errors
// already carrying a category pass through with code and text code
// filled in; everything else is treated as an unexpected internal
// failure and stripped of detail.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureTaskErrorEnvelope(richErr)
	}
	mapped := goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected error occurred")
	return ensureTaskErrorEnvelope(mapped)
}

func ensureTaskErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = taskHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTaskTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTaskTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryValidation:
		return TaskErrorValidation
	case goerrors.CategoryBadInput:
		return TaskErrorBadInput
	case goerrors.CategoryNotFound:
		return TaskErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return TaskErrorUnauthorized
	case goerrors.CategoryConflict:
		return TaskErrorConflict
	default:
		return TaskErrorInternal
	}
}

// taskHTTPStatus maps categories to transport statuses. Validation is
// deliberately 422, not 400: the payload parsed but the contract was
// violated. Not-found also answers cross-owner access so that resource
// existence never leaks to non-owners.
func taskHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return http.StatusUnauthorized
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
