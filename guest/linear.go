package guest

import (
	occlusion "github.com/renderloop/occlusion"
	"github.com/renderloop/occlusion/errors"
)

// LinearMemory is a growable byte space addressed by 32-bit offsets,
// allocated in 64 KiB pages. It only ever grows; Grow past the configured
// page limit fails, and the arena turns that into a fatal condition.
type LinearMemory struct {
	data     []byte
	maxPages uint32
}

// NewLinearMemory creates a linear memory with initial size and page limit.
// maxPages of 0 means the wasm32 maximum of 65536 pages (4 GiB).
func NewLinearMemory(initialPages, maxPages uint32) *LinearMemory {
	if maxPages == 0 {
		maxPages = 65536
	}
	if initialPages > maxPages {
		initialPages = maxPages
	}
	return &LinearMemory{
		data:     make([]byte, uint64(initialPages)*occlusion.PageSize),
		maxPages: maxPages,
	}
}

// Size returns the current memory size in bytes.
func (m *LinearMemory) Size() uint32 {
	return uint32(len(m.data))
}

// Pages returns the current memory size in pages.
func (m *LinearMemory) Pages() uint32 {
	return uint32(len(m.data) / occlusion.PageSize)
}

// Grow extends memory by delta pages. It returns the previous page count
// and false if the limit would be exceeded, mirroring wasm memory.grow.
func (m *LinearMemory) Grow(delta uint32) (uint32, bool) {
	prev := m.Pages()
	if uint64(prev)+uint64(delta) > uint64(m.maxPages) {
		return prev, false
	}
	m.data = append(m.data, make([]byte, uint64(delta)*occlusion.PageSize)...)
	return prev, true
}

// Bytes exposes the backing store. The slice is invalidated by Grow.
func (m *LinearMemory) Bytes() []byte {
	return m.data
}

func (m *LinearMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return nil, errors.OutOfBounds(errors.PhaseGuest, offset, length, m.Size())
	}
	return m.data[offset : offset+length], nil
}

func (m *LinearMemory) Write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.data)) {
		return errors.OutOfBounds(errors.PhaseGuest, offset, uint32(len(data)), m.Size())
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *LinearMemory) ReadU8(offset uint32) (uint8, error) {
	if uint64(offset) >= uint64(len(m.data)) {
		return 0, errors.OutOfBounds(errors.PhaseGuest, offset, 1, m.Size())
	}
	return m.data[offset], nil
}

func (m *LinearMemory) WriteU8(offset uint32, value uint8) error {
	if uint64(offset) >= uint64(len(m.data)) {
		return errors.OutOfBounds(errors.PhaseGuest, offset, 1, m.Size())
	}
	m.data[offset] = value
	return nil
}

// Compile-time check that LinearMemory implements occlusion.Memory and MemorySizer
var _ occlusion.Memory = (*LinearMemory)(nil)
var _ occlusion.MemorySizer = (*LinearMemory)(nil)
