package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"pgregory.net/rapid"
)

var allCodes = []Code{
	InvalidArgument,
	Unauthenticated,
	PermissionDenied,
	NotFound,
	AlreadyExists,
	Unavailable,
	Internal,
}

func testCodeOf_RoundtripForTypedErrors(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "message")

	err := New(code, message)
	if got := CodeOf(err); got != code {
		t.Fatalf("CodeOf(New) mismatch: got=%q want=%q", got, code)
	}
	if got := MessageOf(err); got != message {
		t.Fatalf("MessageOf(New) mismatch: got=%q want=%q", got, message)
	}
}

func TestCodeOf_RoundtripForTypedErrors(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOf_RoundtripForTypedErrors)
}

func testCodeOfAndMessageOf_WrappedTypedError(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "message")
	cause := errors.New(rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,80}`).Draw(t, "cause"))

	err := Wrap(code, message, cause)
	wrapped := fmt.Errorf("outer: %w", err)

	if got := CodeOf(wrapped); got != code {
		t.Fatalf("CodeOf(wrapped) mismatch: got=%q want=%q", got, code)
	}
	if got := MessageOf(wrapped); got != message {
		t.Fatalf("MessageOf(wrapped) mismatch: got=%q want=%q", got, message)
	}
}

func TestCodeOfAndMessageOf_WrappedTypedError(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOfAndMessageOf_WrappedTypedError)
}

func testUntypedAndNilFallbacks(t *rapid.T) {
	raw := rapid.StringMatching(`[a-zA-Z0-9 _:\-./]{1,80}`).Draw(t, "raw")
	untyped := errors.New(raw)

	if got := CodeOf(untyped); got != Internal {
		t.Fatalf("CodeOf(untyped) mismatch: got=%q want=%q", got, Internal)
	}
	if got := MessageOf(untyped); got != "internal error" {
		t.Fatalf("MessageOf(untyped) mismatch: got=%q want=%q", got, "internal error")
	}
	if got := CodeOf(nil); got != Internal {
		t.Fatalf("CodeOf(nil) mismatch: got=%q want=%q", got, Internal)
	}
	if got := MessageOf(nil); got != string(Internal) {
		t.Fatalf("MessageOf(nil) mismatch: got=%q want=%q", got, Internal)
	}
}

func TestUntypedAndNilFallbacks(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testUntypedAndNilFallbacks)
}

func testHTTPStatus_Mapping(t *rapid.T) {
	cases := map[Code]int{
		InvalidArgument:  http.StatusBadRequest,
		Unauthenticated:  http.StatusUnauthorized,
		PermissionDenied: http.StatusForbidden,
		NotFound:         http.StatusNotFound,
		AlreadyExists:    http.StatusConflict,
		Unavailable:      http.StatusServiceUnavailable,
		Internal:         http.StatusInternalServerError,
	}

	code := rapid.SampledFrom(append([]Code{Code("unknown_code")}, allCodes...)).Draw(t, "code")

	want := http.StatusInternalServerError
	if mapped, ok := cases[code]; ok {
		want = mapped
	}
	if got := HTTPStatus(code); got != want {
		t.Fatalf("HTTPStatus mismatch: code=%q got=%d want=%d", code, got, want)
	}
}

func TestHTTPStatus_Mapping(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testHTTPStatus_Mapping)
}

func testInvalid_CarriesFieldsAndFirstMessage(t *rapid.T) {
	n := rapid.IntRange(1, 5).Draw(t, "n")
	fields := make([]FieldError, n)
	for i := range fields {
		fields[i] = FieldError{
			Field:   rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "field"),
			Message: rapid.StringMatching(`[A-Za-z ]{1,40}`).Draw(t, "message"),
		}
	}

	err := fmt.Errorf("validate: %w", Invalid(fields...))

	if got := CodeOf(err); got != InvalidArgument {
		t.Fatalf("CodeOf(Invalid) mismatch: got=%q want=%q", got, InvalidArgument)
	}
	if got := MessageOf(err); got != fields[0].Message {
		t.Fatalf("MessageOf(Invalid) mismatch: got=%q want=%q", got, fields[0].Message)
	}
	got := FieldsOf(err)
	if len(got) != n {
		t.Fatalf("FieldsOf length mismatch: got=%d want=%d", len(got), n)
	}
	for i := range fields {
		if got[i] != fields[i] {
			t.Fatalf("FieldsOf[%d] mismatch: got=%+v want=%+v", i, got[i], fields[i])
		}
	}
}

func TestInvalid_CarriesFieldsAndFirstMessage(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testInvalid_CarriesFieldsAndFirstMessage)
}

func TestIs_MatchesOnlyTheCarriedCode(t *testing.T) {
	t.Parallel()
	err := Wrap(NotFound, "Note not found", errors.New("sql: no rows in result set"))
	if !Is(err, NotFound) {
		t.Fatal("expected Is(NotFound) to be true")
	}
	if Is(err, PermissionDenied) {
		t.Fatal("expected Is(PermissionDenied) to be false")
	}
	if Is(nil, Internal) {
		t.Fatal("expected Is(nil, Internal) to be false")
	}
	if FieldsOf(errors.New("plain")) != nil {
		t.Fatal("expected no fields on an untyped error")
	}
}
