package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected token")
	err := Wrap(ErrCodeInvalidQuery, cause, "parse query")

	if err.Code != ErrCodeInvalidQuery {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidQuery)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := err.Error(); got != "INVALID_QUERY: parse query: unexpected token" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidQuery, "x"), ErrCodeInvalidQuery, true},
		{"non-matching code", New(ErrCodeInvalidQuery, "x"), ErrCodeInternal, false},
		{"outer code wins", Wrap(ErrCodeInternal, New(ErrCodeInvalidQuery, "inner"), "outer"), ErrCodeInternal, true},
		{"fmt wrapped", fmt.Errorf("ctx: %w", New(ErrCodeNotFound, "x")), ErrCodeNotFound, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeUnsupported, "x")); got != ErrCodeUnsupported {
		t.Errorf("GetCode() = %v", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", New(ErrCodeInvalidFormat, "bad format"), "bad format"},
		{"with cause", Wrap(ErrCodeInvalidQuery, errors.New("line 1"), "parse query"), "parse query: line 1"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidQuery, 400},
		{ErrCodeInvalidFormat, 400},
		{ErrCodeFileNotFound, 404},
		{ErrCodeUnsupported, 501},
		{ErrCodeInternal, 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
	if got := HTTPStatus(errors.New("plain")); got != 500 {
		t.Errorf("HTTPStatus(plain) = %d", got)
	}
}
