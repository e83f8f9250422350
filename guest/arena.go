package guest

import (
	"fmt"

	occlusion "github.com/renderloop/occlusion"
)

// Arena reserves fresh regions of linear memory by advancing a bump
// pointer. It never reclaims individual regions; Reset rewinds the whole
// arena at once and invalidates every handle issued so far.
//
// The first page is never handed out, so occlusion.NullPtr stays free to
// mean "no buffer".
type Arena struct {
	mem  *LinearMemory
	heap uint32
	gen  uint64
}

// NewArena creates an arena over mem with the heap base past the null page.
func NewArena(mem *LinearMemory) *Arena {
	return &Arena{mem: mem, heap: occlusion.PageSize, gen: 1}
}

// Reserve carves size fresh bytes off the arena and returns a handle.
// Contents are unspecified; callers must not assume zeroed memory.
//
// There is no recoverable error path: if the memory cannot grow to satisfy
// the reservation, Reserve panics. This matches the boundary protocol,
// which has no way to signal allocation failure other than halting.
func (a *Arena) Reserve(size uint32) occlusion.Buffer {
	ptr := a.heap
	top := uint64(ptr) + uint64(size)
	if top > 1<<32 {
		panic(fmt.Sprintf("occlusion: arena exhausted: reserve %d bytes at %d overflows address space", size, ptr))
	}

	cur := uint64(a.mem.Size())
	if top > cur {
		pages := uint32((top - cur + occlusion.PageSize - 1) / occlusion.PageSize)
		if _, ok := a.mem.Grow(pages); !ok {
			panic(fmt.Sprintf("occlusion: arena exhausted: cannot grow memory by %d pages for %d bytes", pages, size))
		}
	}

	a.heap = uint32(top)
	return occlusion.Buffer{Ptr: ptr, Len: size, Gen: a.gen}
}

// Reset rewinds the bump pointer to the heap base and bumps the arena
// generation. Memory already grown stays grown and is not zeroed; every
// previously issued handle becomes stale.
func (a *Arena) Reset() {
	a.heap = occlusion.PageSize
	a.gen++
}

// Generation returns the current arena generation.
func (a *Arena) Generation() uint64 {
	return a.gen
}

// Heap returns the current bump pointer, the first address a subsequent
// Reserve would return.
func (a *Arena) Heap() uint32 {
	return a.heap
}
