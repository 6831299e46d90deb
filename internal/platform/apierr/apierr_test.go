package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	perr "github.com/yungbote/iof-learning/internal/platform/errors"
)

func TestFromMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("course: %w", perr.ErrNotFound), http.StatusNotFound},
		{perr.ErrUnauthorized, http.StatusUnauthorized},
		{perr.ErrForbidden, http.StatusForbidden},
		{perr.ErrInvalidArgument, http.StatusBadRequest},
		{perr.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := From(tc.err, "op_failed")
		if got.Status != tc.status {
			t.Fatalf("From(%v): want=%d got=%d", tc.err, tc.status, got.Status)
		}
	}
	if got := From(errors.New("boom"), "op_failed"); got.Code != "op_failed" {
		t.Fatalf("fallback code: want=op_failed got=%q", got.Code)
	}
}

func TestFromPassesThroughAPIError(t *testing.T) {
	orig := New(http.StatusConflict, "course_not_completed", errors.New("not yet"))
	wrapped := fmt.Errorf("issue: %w", orig)
	if got := From(wrapped, "x"); got != orig {
		t.Fatalf("want original *Error back")
	}
}

func TestInvalidCarriesFields(t *testing.T) {
	e := Invalid("invalid_question", FieldError{Index: 2, Field: "difficulty", Message: "must be one of easy, medium, hard"})
	if e.Status != http.StatusBadRequest || len(e.Fields) != 1 {
		t.Fatalf("unexpected: %+v", e)
	}
	if !errors.Is(e, perr.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument in chain")
	}
	if e.Error() != "record 2: difficulty: must be one of easy, medium, hard: invalid argument" {
		t.Fatalf("message: got=%q", e.Error())
	}
}
