package engine

import (
	"github.com/tetratelabs/wazero/api"

	occlusion "github.com/renderloop/occlusion"
	"github.com/renderloop/occlusion/errors"
)

// Memory wraps wazero memory to implement occlusion.Memory
type Memory struct {
	mem api.Memory
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseGuest, offset, length, m.Size())
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if ok := m.mem.Write(offset, data); !ok {
		return errors.OutOfBounds(errors.PhaseGuest, offset, uint32(len(data)), m.Size())
	}
	return nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseGuest, offset, 1, m.Size())
	}
	return v, nil
}

func (m *Memory) WriteU8(offset uint32, value uint8) error {
	if ok := m.mem.WriteByte(offset, value); !ok {
		return errors.OutOfBounds(errors.PhaseGuest, offset, 1, m.Size())
	}
	return nil
}

func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that Memory implements occlusion.Memory and MemorySizer
var _ occlusion.Memory = (*Memory)(nil)
var _ occlusion.MemorySizer = (*Memory)(nil)
