package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseHost,
				Kind:   KindInvalidInput,
				Path:   []string{"composite", "occluder"},
				Detail: "buffer lengths differ",
			},
			contains: []string{"[host]", "invalid_input", "composite.occluder", "buffer lengths differ"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseGuest,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[guest]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[runtime]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	a := &Error{Phase: PhaseHost, Kind: KindStaleHandle, Detail: "x"}
	b := &Error{Phase: PhaseHost, Kind: KindStaleHandle, Detail: "y"}
	c := &Error{Phase: PhaseGuest, Kind: KindStaleHandle}

	if !errors.Is(a, b) {
		t.Error("same phase and kind should match")
	}
	if errors.Is(a, c) {
		t.Error("different phase should not match")
	}
	if errors.Is(a, errors.New("plain")) {
		t.Error("plain error should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseParse, KindInvalidData).
		Path("abi", "reserve").
		Value(uint32(7)).
		Detail("bad signature: %d params", 2).
		Cause(cause).
		Build()

	if err.Phase != PhaseParse || err.Kind != KindInvalidData {
		t.Fatalf("unexpected phase/kind: %v/%v", err.Phase, err.Kind)
	}
	if err.Detail != "bad signature: 2 params" {
		t.Errorf("detail = %q", err.Detail)
	}
	if err.Value != uint32(7) {
		t.Errorf("value = %v", err.Value)
	}
	if err.Unwrap() != cause {
		t.Error("cause not preserved")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err      *Error
		phase    Phase
		kind     Kind
		contains string
	}{
		{AllocationFailed(PhaseGuest, 4096), PhaseGuest, KindAllocation, "4096"},
		{OutOfBounds(PhaseGuest, 100, 50, 128), PhaseGuest, KindOutOfBounds, "[100, 150)"},
		{StaleHandle(PhaseHost, 1, 2), PhaseHost, KindStaleHandle, "generation 1"},
		{NotFound(PhaseRuntime, "function", "reserve"), PhaseRuntime, KindNotFound, `"reserve"`},
		{InvalidInput(PhaseHost, "nope"), PhaseHost, KindInvalidInput, "nope"},
		{MissingExport("reserve", "func(size: u32) -> u32"), PhaseLoad, KindMissingExport, "reserve"},
		{Instantiation(errors.New("x")), PhaseRuntime, KindInstantiation, "instantiate"},
		{Load("read module", errors.New("x")), PhaseLoad, KindInvalidData, "read module"},
		{ParseFailed("WIT", errors.New("x")), PhaseParse, KindInvalidData, "parse WIT"},
	}

	for _, tt := range tests {
		if tt.err.Phase != tt.phase {
			t.Errorf("%v: phase = %v, want %v", tt.err, tt.err.Phase, tt.phase)
		}
		if tt.err.Kind != tt.kind {
			t.Errorf("%v: kind = %v, want %v", tt.err, tt.err.Kind, tt.kind)
		}
		if !strings.Contains(tt.err.Error(), tt.contains) {
			t.Errorf("%v does not contain %q", tt.err, tt.contains)
		}
	}
}
