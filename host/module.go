package host

import (
	"context"

	"go.uber.org/zap"

	"github.com/renderloop/occlusion/engine"
	"github.com/renderloop/occlusion/errors"
)

// Module is a compiled, ABI-validated guest.
type Module struct {
	runtime *Runtime
	mod     *engine.Module
}

// Instantiate creates a fresh guest instance with its own memory and arena.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	inst, err := m.mod.Instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	if inst.Memory() == nil {
		inst.Close(ctx)
		return nil, errors.MissingExport("memory", "exported linear memory")
	}

	engine.Logger().Debug("guest instantiated",
		zap.Uint32("memory_bytes", inst.Memory().Size()))

	return &Instance{module: m, inst: inst, gen: 1}, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}
