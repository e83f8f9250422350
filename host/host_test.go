package host

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	occlusion "github.com/renderloop/occlusion"
	oerrors "github.com/renderloop/occlusion/errors"
	"github.com/renderloop/occlusion/guest"
)

func newInstance(t *testing.T, opts ...Option) *Instance {
	t.Helper()
	ctx := context.Background()

	rt, err := New(ctx, opts...)
	if err != nil {
		t.Fatalf("create runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.LoadBuiltin(ctx)
	if err != nil {
		t.Fatalf("load builtin guest: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	t.Cleanup(func() { inst.Close(ctx) })
	return inst
}

func TestInstance_CompositeScenarios(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		target   []byte
		occluder []byte
		want     []byte
	}{
		{
			name:     "opaque occluder zeroes alpha",
			target:   []byte{10, 20, 30, 200},
			occluder: []byte{0, 0, 0, 255},
			want:     []byte{10, 20, 30, 0},
		},
		{
			name:     "transparent occluder leaves target unchanged",
			target:   []byte{10, 20, 30, 200},
			occluder: []byte{0, 0, 0, 0},
			want:     []byte{10, 20, 30, 200},
		},
		{
			name:     "half occluder floors",
			target:   []byte{1, 2, 3, 200},
			occluder: []byte{9, 9, 9, 128},
			want:     []byte{1, 2, 3, 99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := newInstance(t)

			target, err := inst.Reserve(ctx, uint32(len(tt.target)))
			if err != nil {
				t.Fatal(err)
			}
			occluder, err := inst.Reserve(ctx, uint32(len(tt.occluder)))
			if err != nil {
				t.Fatal(err)
			}
			if err := inst.WritePixels(target, tt.target); err != nil {
				t.Fatal(err)
			}
			if err := inst.WritePixels(occluder, tt.occluder); err != nil {
				t.Fatal(err)
			}

			if err := inst.CompositeOcclusion(ctx, target, occluder); err != nil {
				t.Fatalf("composite: %v", err)
			}

			got, err := inst.ReadPixels(target)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("target = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstance_NullHandleForwarded(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)

	target, err := inst.Reserve(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.WritePixels(target, []byte{10, 20, 30, 200}); err != nil {
		t.Fatal(err)
	}

	// Null on either side is defined behavior: no error, no mutation.
	if err := inst.CompositeOcclusion(ctx, occlusion.Buffer{}, target); err != nil {
		t.Errorf("null target: %v", err)
	}
	if err := inst.CompositeOcclusion(ctx, target, occlusion.Buffer{Len: 100}); err != nil {
		t.Errorf("null occluder: %v", err)
	}

	got, err := inst.ReadPixels(target)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{10, 20, 30, 200}) {
		t.Errorf("null composite mutated target: %v", got)
	}
}

func TestInstance_LengthMismatchRejected(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)

	short, _ := inst.Reserve(ctx, 4)
	long, _ := inst.Reserve(ctx, 8)

	err := inst.CompositeOcclusion(ctx, short, long)
	want := &oerrors.Error{Phase: oerrors.PhaseHost, Kind: oerrors.KindInvalidInput}
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want invalid_input", err)
	}
}

func TestInstance_ResetInvalidatesHandles(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)

	b, err := inst.Reserve(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	stale := &oerrors.Error{Phase: oerrors.PhaseHost, Kind: oerrors.KindStaleHandle}
	if err := inst.WritePixels(b, []byte{1, 2, 3, 4}); !errors.Is(err, stale) {
		t.Errorf("write: %v, want stale_handle", err)
	}
	if _, err := inst.ReadPixels(b); !errors.Is(err, stale) {
		t.Errorf("read: %v, want stale_handle", err)
	}
	if err := inst.CompositeOcclusion(ctx, b, b); !errors.Is(err, stale) {
		t.Errorf("composite: %v, want stale_handle", err)
	}

	// The recycled instance hands out the same addresses again.
	fresh, err := inst.Reserve(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Ptr != b.Ptr {
		t.Errorf("first reservation after reset at %d, want %d", fresh.Ptr, b.Ptr)
	}
	if fresh.Gen == b.Gen {
		t.Error("fresh handle carries the old generation")
	}
}

func TestInstance_ReserveNonOverlapping(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)

	var prev occlusion.Buffer
	for i, size := range []uint32{4, 4096, 1, 70000} {
		b, err := inst.Reserve(ctx, size)
		if err != nil {
			t.Fatal(err)
		}
		if b.IsNull() {
			t.Fatal("reserve returned the null address")
		}
		if i > 0 && b.Ptr < prev.End() {
			t.Fatalf("[%d, %d) overlaps [%d, %d)", b.Ptr, b.End(), prev.Ptr, prev.End())
		}
		prev = b
	}
}

func TestInstance_MemoryLimitIsFatal(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t, WithMemoryLimitPages(4))

	if _, err := inst.Reserve(ctx, 1<<22); err == nil {
		t.Error("reserve past the memory limit succeeded")
	}
}

func TestRuntime_RejectsGuestWithoutABI(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(ctx)

	empty := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	_, err = rt.LoadModule(ctx, empty)
	want := &oerrors.Error{Phase: oerrors.PhaseLoad, Kind: oerrors.KindMissingExport}
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want missing_export", err)
	}
}

// TestInstance_MatchesNativeGuest runs the same random image through the
// wasm guest and the pure Go guest and expects identical bytes.
func TestInstance_MatchesNativeGuest(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)
	g := guest.New(guest.Config{})

	rng := rand.New(rand.NewSource(1))
	const n = 4 * 1024
	target := make([]byte, n)
	occluder := make([]byte, n)
	rng.Read(target)
	rng.Read(occluder)

	wt, err := inst.Reserve(ctx, n)
	if err != nil {
		t.Fatal(err)
	}
	wo, err := inst.Reserve(ctx, n)
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.WritePixels(wt, target); err != nil {
		t.Fatal(err)
	}
	if err := inst.WritePixels(wo, occluder); err != nil {
		t.Fatal(err)
	}
	if err := inst.CompositeOcclusion(ctx, wt, wo); err != nil {
		t.Fatal(err)
	}
	wasmOut, err := inst.ReadPixels(wt)
	if err != nil {
		t.Fatal(err)
	}

	nt := g.Reserve(n)
	no := g.Reserve(n)
	if err := g.WritePixels(nt, target); err != nil {
		t.Fatal(err)
	}
	if err := g.WritePixels(no, occluder); err != nil {
		t.Fatal(err)
	}
	g.CompositeOcclusion(nt.Ptr, no.Ptr, nt.Len)
	nativeOut, err := g.ReadPixels(nt)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(wasmOut, nativeOut) {
		for i := range wasmOut {
			if wasmOut[i] != nativeOut[i] {
				t.Fatalf("first divergence at byte %d: wasm %d, native %d", i, wasmOut[i], nativeOut[i])
			}
		}
	}
}
