package apierr

import (
	"errors"
	"fmt"
	"net/http"

	perr "github.com/yungbote/iof-learning/internal/platform/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
	Fields []FieldError
}

// FieldError points at the offending input, Index is -1 for non-list inputs.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Invalid builds a 400 carrying field details.
func Invalid(code string, fields ...FieldError) *Error {
	msg := code
	if len(fields) > 0 {
		f := fields[0]
		if f.Index >= 0 {
			msg = fmt.Sprintf("record %d: %s: %s", f.Index, f.Field, f.Message)
		} else {
			msg = fmt.Sprintf("%s: %s", f.Field, f.Message)
		}
	}
	return &Error{
		Status: http.StatusBadRequest,
		Code:   code,
		Err:    fmt.Errorf("%s: %w", msg, perr.ErrInvalidArgument),
		Fields: fields,
	}
}

// From maps err onto an *Error. Existing *Error values pass through, sentinels map to
// their status, anything else becomes a 500 with fallbackCode.
func From(err error, fallbackCode string) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, perr.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, perr.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, perr.ErrForbidden):
		return New(http.StatusForbidden, "forbidden", err)
	case errors.Is(err, perr.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, perr.ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	default:
		return New(http.StatusInternalServerError, fallbackCode, err)
	}
}
