package host

import (
	"context"

	"github.com/renderloop/occlusion/engine"
	"github.com/renderloop/occlusion/errors"
	"github.com/renderloop/occlusion/internal/wasmgen"
)

// Runtime owns the underlying wasm engine.
type Runtime struct {
	engine *engine.Engine
}

// Option configures a Runtime.
type Option func(*engine.Config)

// WithMemoryLimitPages caps guest memory at n 64 KiB pages. Reserve calls
// that would grow past the cap trap the instance.
func WithMemoryLimitPages(n uint32) Option {
	return func(cfg *engine.Config) {
		cfg.MemoryLimitPages = n
	}
}

// New creates a runtime.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	cfg := &engine.Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	eng, err := engine.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Load("create engine", err)
	}
	return &Runtime{engine: eng}, nil
}

// Close releases all runtime resources.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// LoadModule compiles a caller-supplied guest binary and validates that it
// exports the occlusion ABI.
func (r *Runtime) LoadModule(ctx context.Context, wasm []byte) (*Module, error) {
	mod, err := r.engine.LoadModule(ctx, wasm)
	if err != nil {
		return nil, err
	}

	sigs, err := abiSignatures()
	if err != nil {
		return nil, err
	}
	if err := validateExports(mod, sigs); err != nil {
		mod.Close(ctx)
		return nil, err
	}

	return &Module{runtime: r, mod: mod}, nil
}

// LoadBuiltin compiles the guest binary shipped with this module.
func (r *Runtime) LoadBuiltin(ctx context.Context) (*Module, error) {
	return r.LoadModule(ctx, wasmgen.Guest())
}
