package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), EInternal},
		{"coded", New(ENotFound, "room not found"), ENotFound},
		{"wrapped by fmt", fmt.Errorf("read: %w", New(EConflict, "dup")), EConflict},
		{"wrap without code", &Error{Op: "op", Err: New(EInvalid, "bad")}, EInvalid},
		{"wrap plain", Wrap(errors.New("disk"), EInternal, "store.Get"), EInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	if got := Message(New(EInvalid, "name is required")); got != "name is required" {
		t.Errorf("Message = %q", got)
	}
	if got := Message(fmt.Errorf("ctx: %w", New(EForbidden, "not yours"))); got != "not yours" {
		t.Errorf("Message = %q", got)
	}
	if got := Message(Wrap(errors.New("connection refused"), EInternal, "store.Find")); got != internalMessage {
		t.Errorf("internal errors must not leak details, got %q", got)
	}
	if got := Message(&Error{Code: ENotFound}); got != ENotFound {
		t.Errorf("Message = %q, want code fallback", got)
	}
}

func TestStatus(t *testing.T) {
	tests := map[string]int{
		"":               http.StatusOK,
		EInvalid:         http.StatusBadRequest,
		EUnauthorized:    http.StatusUnauthorized,
		EForbidden:       http.StatusForbidden,
		ENotFound:        http.StatusNotFound,
		EConflict:        http.StatusConflict,
		ERemoved:         http.StatusGone,
		ETooManyRequests: http.StatusTooManyRequests,
		EInternal:        http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := Status(code); got != want {
			t.Errorf("Status(%q) = %d, want %d", code, got, want)
		}
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(errors.New("disk full"), EInternal, "store.Insert")
	if got := err.Error(); got != "store.Insert: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if got := New(EInvalid, "bad").Error(); got != "<invalid> bad" {
		t.Errorf("Error() = %q", got)
	}
}
