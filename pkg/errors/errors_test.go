package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppError_Is(t *testing.T) {
	sentinel := New(ErrCodeIncomplete, "not all questions answered")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "Same code different message",
			err:  New(ErrCodeIncomplete, "answered 2 of 3"),
			want: true,
		},
		{
			name: "Wrapped with fmt",
			err:  fmt.Errorf("finish: %w", New(ErrCodeIncomplete, "x")),
			want: true,
		},
		{
			name: "Different code",
			err:  New(ErrCodeMalformed, "x"),
			want: false,
		},
		{
			name: "Plain error",
			err:  stderrors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stderrors.Is(tt.err, sentinel); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := fmt.Errorf("insert: %w", Wrap(inner, ErrCodeInternalError, "failed to insert result"))

	if got := CodeOf(err); got != ErrCodeInternalError {
		t.Errorf("CodeOf() = %q, want %q", got, ErrCodeInternalError)
	}
	if !stderrors.Is(err, inner) {
		t.Error("wrapped cause should be reachable through Unwrap")
	}
	if CodeOf(inner) != "" {
		t.Error("CodeOf() on a plain error should be empty")
	}
	if HasCode(nil, ErrCodeInternalError) {
		t.Error("HasCode(nil) should be false")
	}
}
