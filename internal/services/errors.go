package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"ainews/internal/metrics"
	"ainews/internal/ratelimit"
)

// Result codes returned by form actions
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeAuth         = "AUTH_ERROR"
	CodeRateLimit    = "RATE_LIMIT_ERROR"
	CodeAlreadyVoted = "ALREADY_VOTED_ERROR"
	CodeSelfUnvote   = "SELF_UNVOTE_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// ActionError is the expected-failure result of a mutation. Unexpected
// failures are logged and surface as CodeInternal with a generic message.
type ActionError struct {
	Code        string              `json:"code"`
	Message     string              `json:"message,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Origin      error               `json:"-"`
}

func (e *ActionError) Error() string {
	msg := e.Message
	if msg == "" && len(e.FieldErrors) > 0 {
		fields := make([]string, 0, len(e.FieldErrors))
		for f := range e.FieldErrors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		msg = "invalid " + strings.Join(fields, ", ")
	}
	if e.Origin != nil {
		return e.Code + ": " + msg + ": " + e.Origin.Error()
	}
	return e.Code + ": " + msg
}

func (e *ActionError) Unwrap() error {
	return e.Origin
}

// HTTPStatus converts the code to an HTTP status for JSON callers.
func (e *ActionError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuth:
		return http.StatusUnauthorized
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeAlreadyVoted, CodeSelfUnvote:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(fields map[string][]string) *ActionError {
	return &ActionError{Code: CodeValidation, FieldErrors: fields}
}

func newAuthError(message string) *ActionError {
	return &ActionError{Code: CodeAuth, Message: message}
}

var (
	errRateLimited  = &ActionError{Code: CodeRateLimit, Message: "Too many requests. Try again later"}
	errAlreadyVoted = &ActionError{Code: CodeAlreadyVoted, Message: "You already voted on this story"}
	errSelfUnvote   = &ActionError{Code: CodeSelfUnvote, Message: "You can't unvote your own story"}
)

// internalError logs the cause and hides it from the caller.
func internalError(op string, err error) *ActionError {
	slog.Error("action failed", "op", op, "err", err)
	return &ActionError{Code: CodeInternal, Message: "Something went wrong", Origin: err}
}

// AsActionError returns err as an *ActionError, masking anything unexpected.
func AsActionError(op string, err error) *ActionError {
	if err == nil {
		return nil
	}
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae
	}
	return internalError(op, err)
}

// IsCode reports whether err carries the given action code.
func IsCode(err error, code string) bool {
	var ae *ActionError
	return errors.As(err, &ae) && ae.Code == code
}

// checkLimit applies the named rate limit. Limiter failures reject the request.
func checkLimit(ctx context.Context, limits *ratelimit.Set, name, key string) error {
	ok, err := limits.Allow(ctx, name, key)
	if err != nil {
		return internalError("ratelimit."+name, err)
	}
	if !ok {
		metrics.RateLimitedTotal.WithLabelValues(name).Inc()
		return errRateLimited
	}
	return nil
}
