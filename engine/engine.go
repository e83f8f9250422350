// Package engine wraps wazero for running the occlusion guest. It knows
// nothing about the ABI; the host package layers export validation and
// typed calls on top.
package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/renderloop/occlusion/errors"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages
	// (64KB each). 0 means the wazero default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// Engine owns a wazero runtime. Modules compiled from one engine share its
// compilation cache and die with it.
type Engine struct {
	runtime wazero.Runtime
}

// New creates an engine with default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &Engine{runtime: runtime}, nil
}

// Close releases the runtime and every module compiled from it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadModule compiles a core wasm binary.
func (e *Engine) LoadModule(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	Logger().Debug("module compiled",
		zap.Int("binary_bytes", len(wasmBytes)),
		zap.Int("exports", len(compiled.ExportedFunctions())))

	return &Module{engine: e, compiled: compiled}, nil
}

// Module is a compiled wasm module, instantiable many times.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// ExportedFunctions returns the module's exported function definitions
// keyed by export name.
func (m *Module) ExportedFunctions() map[string]api.FunctionDefinition {
	return m.compiled.ExportedFunctions()
}

// Instantiate creates a fresh instance with its own linear memory.
// Instances are anonymous so many can coexist.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	instance, err := m.engine.runtime.InstantiateModule(ctx, m.compiled,
		wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst := &Instance{
		instance:  instance,
		funcCache: make(map[string]api.Function),
	}
	if mem := instance.Memory(); mem != nil {
		inst.memory = &Memory{mem: mem}
	}
	return inst, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Instance is a running wasm instance.
// It is NOT safe for concurrent use from multiple goroutines.
type Instance struct {
	instance  api.Module
	memory    *Memory
	funcCache map[string]api.Function
}

// Memory returns the instance's linear memory, or nil if the module
// exports none.
func (i *Instance) Memory() *Memory {
	return i.memory
}

// ExportedFunction returns an exported function by name, or nil.
func (i *Instance) ExportedFunction(name string) api.Function {
	if fn, ok := i.funcCache[name]; ok {
		return fn
	}
	fn := i.instance.ExportedFunction(name)
	if fn != nil {
		i.funcCache[name] = fn
	}
	return fn
}

// Call invokes an exported function with raw stack values.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := i.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "call "+name)
	}
	return results, nil
}

// Close releases the instance and its memory.
func (i *Instance) Close(ctx context.Context) error {
	i.funcCache = nil
	i.memory = nil
	return i.instance.Close(ctx)
}
