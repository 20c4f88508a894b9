package errors

import (
	"fmt"
	"testing"
)

func TestIsConfigError(t *testing.T) {
	tests := []struct {
		err    error
		config bool
	}{
		{ErrBadHeader, true},
		{fmt.Errorf("open log: %w", ErrBadHeader), true},
		{ErrAlreadyStarted, true},
		{ErrSelfDriven, true},
		{ErrExhausted, true},
		{ErrStreamClosed, false},
		{fmt.Errorf("fd 3: %w", ErrStreamClosed), false},
		{fmt.Errorf("plain"), false},
		{nil, false},
	}
	for i, tc := range tests {
		if got := IsConfigError(tc.err); got != tc.config {
			t.Errorf("case %d (%v): IsConfigError = %v, want %v", i, tc.err, got, tc.config)
		}
	}
}

func TestErrNo(t *testing.T) {
	e := NewError("custom", 42)
	if e.ErrNo() != 42 {
		t.Errorf("errno %d", e.ErrNo())
	}
	if e.Error() != "error: custom (42) " {
		t.Errorf("unexpected message %q", e.Error())
	}
}
