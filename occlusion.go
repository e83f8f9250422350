package occlusion

// Memory represents linear memory addressable by 32-bit offsets.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	WriteU8(offset uint32, value uint8) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// NullPtr is the address sentinel meaning "no buffer". The arena never
// hands it out; the compositor treats it as a complete no-op.
const NullPtr uint32 = 0

// PageSize is the linear memory page granularity in bytes.
const PageSize = 65536

// Buffer is a handle to a pixel buffer inside linear memory.
//
// Ptr and Len describe the raw region. Gen is the arena generation the
// handle was issued under; operations that dereference a handle reject it
// once the arena has been reset. The raw region itself carries no metadata,
// so anything that bypasses handle validation trusts the caller completely.
type Buffer struct {
	Ptr uint32
	Len uint32
	Gen uint64
}

// IsNull reports whether the handle carries the null address sentinel.
func (b Buffer) IsNull() bool {
	return b.Ptr == NullPtr
}

// End returns the first address past the buffer.
func (b Buffer) End() uint32 {
	return b.Ptr + b.Len
}
