package guest

import (
	"errors"
	"testing"

	occlusion "github.com/renderloop/occlusion"
	oerrors "github.com/renderloop/occlusion/errors"
)

func TestLinearMemory_ReadWrite(t *testing.T) {
	m := NewLinearMemory(1, 0)

	if err := m.Write(100, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := m.Read(100, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for i, want := range []byte{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("byte %d = %d, want %d", i, got[i], want)
		}
	}

	if err := m.WriteU8(7, 0xAB); err != nil {
		t.Fatalf("write u8: %v", err)
	}
	v, err := m.ReadU8(7)
	if err != nil {
		t.Fatalf("read u8: %v", err)
	}
	if v != 0xAB {
		t.Errorf("u8 = %#x, want 0xAB", v)
	}
}

func TestLinearMemory_Bounds(t *testing.T) {
	m := NewLinearMemory(1, 0)
	oob := &oerrors.Error{Phase: oerrors.PhaseGuest, Kind: oerrors.KindOutOfBounds}

	if _, err := m.Read(occlusion.PageSize-2, 4); !errors.Is(err, oob) {
		t.Errorf("read past end: %v", err)
	}
	if err := m.Write(occlusion.PageSize, []byte{1}); !errors.Is(err, oob) {
		t.Errorf("write past end: %v", err)
	}
	if _, err := m.ReadU8(occlusion.PageSize); !errors.Is(err, oob) {
		t.Errorf("read u8 past end: %v", err)
	}

	// Reads up to the exact end are fine.
	if _, err := m.Read(occlusion.PageSize-4, 4); err != nil {
		t.Errorf("read at end: %v", err)
	}
}

func TestLinearMemory_Grow(t *testing.T) {
	m := NewLinearMemory(1, 3)

	prev, ok := m.Grow(2)
	if !ok || prev != 1 {
		t.Fatalf("grow = (%d, %v), want (1, true)", prev, ok)
	}
	if m.Pages() != 3 {
		t.Errorf("pages = %d, want 3", m.Pages())
	}

	if _, ok := m.Grow(1); ok {
		t.Error("grow past the limit succeeded")
	}
	if m.Pages() != 3 {
		t.Errorf("failed grow changed size to %d pages", m.Pages())
	}
}
