package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/childhealth/internal/adapters/export"
	"github.com/okian/childhealth/internal/adapters/repository"
	"github.com/okian/childhealth/internal/domain/scoring"
	"github.com/okian/childhealth/internal/domain/table"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.kind != nil && e.err != nil:
		return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
	case e.kind != nil:
		return e.op + ": " + e.kind.Error()
	default:
		return e.op + ": " + e.err.Error()
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind wraps err as kind, raised by op.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// Wrap tags err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// statusFor maps an error onto an HTTP status and a response code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, table.ErrUnknownField),
		errors.Is(err, table.ErrUnknownOrder),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, scoring.ErrOutOfRange):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicateID):
		return http.StatusConflict, "duplicate_id"
	case errors.Is(err, export.ErrNoData):
		return http.StatusUnprocessableEntity, "no_data"
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusNotImplemented, "unsupported_format"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
