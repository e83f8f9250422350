package guest

import (
	occlusion "github.com/renderloop/occlusion"
	"github.com/renderloop/occlusion/errors"
)

// Config holds configuration for an in-process guest.
type Config struct {
	// InitialPages sets the starting memory size in 64 KiB pages.
	// 0 means 2 pages: the null page plus one page of heap.
	InitialPages uint32

	// MaxPages caps memory growth. 0 means the wasm32 maximum (65536).
	MaxPages uint32
}

// Guest bundles linear memory, the arena, and the compositor into the
// in-process equivalent of one wasm guest instance. The raw primitives
// stay unchecked; the pixel I/O helpers validate handles (generation and
// bounds) before touching memory, so higher layers never dereference a
// stale or out-of-range handle by accident.
//
// Guest is not safe for concurrent use.
type Guest struct {
	mem   *LinearMemory
	arena *Arena
}

// New creates a guest with its own linear memory.
func New(cfg Config) *Guest {
	pages := cfg.InitialPages
	if pages == 0 {
		pages = 2
	}
	mem := NewLinearMemory(pages, cfg.MaxPages)
	return &Guest{mem: mem, arena: NewArena(mem)}
}

// Reserve carves size fresh bytes out of guest memory.
// See Arena.Reserve for the failure contract.
func (g *Guest) Reserve(size uint32) occlusion.Buffer {
	return g.arena.Reserve(size)
}

// CompositeOcclusion runs the alpha-occlusion update over two raw
// addresses, exactly as the wasm guest export does. No handle validation.
func (g *Guest) CompositeOcclusion(targetPtr, occluderPtr, length uint32) {
	CompositeOcclusion(g.mem, targetPtr, occluderPtr, length)
}

// Composite validates both handles and runs the occlusion update.
// Null handles are forwarded: the null no-op is defined behavior, not an
// error. Stale handles and length mismatches are errors.
func (g *Guest) Composite(target, occluder occlusion.Buffer) error {
	if target.IsNull() || occluder.IsNull() {
		return nil
	}
	if err := g.check(target, "target"); err != nil {
		return err
	}
	if err := g.check(occluder, "occluder"); err != nil {
		return err
	}
	if target.Len != occluder.Len {
		return errors.New(errors.PhaseGuest, errors.KindInvalidInput).
			Path("occluder").
			Detail("buffer lengths differ: target %d, occluder %d", target.Len, occluder.Len).
			Build()
	}
	CompositeOcclusion(g.mem, target.Ptr, occluder.Ptr, target.Len)
	return nil
}

// WritePixels copies data into the buffer after validating the handle.
func (g *Guest) WritePixels(b occlusion.Buffer, data []byte) error {
	if err := g.check(b, "buffer"); err != nil {
		return err
	}
	if uint32(len(data)) > b.Len {
		return errors.OutOfBounds(errors.PhaseGuest, b.Ptr, uint32(len(data)), b.End())
	}
	return g.mem.Write(b.Ptr, data)
}

// ReadPixels returns a copy of the buffer contents.
func (g *Guest) ReadPixels(b occlusion.Buffer) ([]byte, error) {
	if err := g.check(b, "buffer"); err != nil {
		return nil, err
	}
	raw, err := g.mem.Read(b.Ptr, b.Len)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// Reset rewinds the arena, invalidating all issued handles.
func (g *Guest) Reset() {
	g.arena.Reset()
}

// Memory returns the guest's linear memory.
func (g *Guest) Memory() *LinearMemory {
	return g.mem
}

// Generation returns the current arena generation.
func (g *Guest) Generation() uint64 {
	return g.arena.Generation()
}

func (g *Guest) check(b occlusion.Buffer, name string) error {
	if b.Gen != g.arena.Generation() {
		return errors.StaleHandle(errors.PhaseGuest, b.Gen, g.arena.Generation())
	}
	if uint64(b.Ptr)+uint64(b.Len) > uint64(g.mem.Size()) {
		return errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
			Path(name).
			Detail("handle [%d, %d) exceeds memory size %d", b.Ptr, b.End(), g.mem.Size()).
			Build()
	}
	return nil
}
