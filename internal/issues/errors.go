package issues

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Gate failures. Transport layers map these to status codes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("invalid issue")
	ErrInternal     = errors.New("internal server error")
)

// ValidationError reports every request field that failed validation,
// keyed by its JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InternalError wraps an unexpected store or runtime fault. It matches
// ErrInternal under errors.Is and keeps the cause for logging.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

func internalError(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}

// Outcome classifies err for logs and metrics.
func Outcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
