// Package occlusion provides alpha-occlusion compositing over linear memory
// for rendering pipelines where one image partially blocks another.
//
// The module implements two primitives: a non-reclaiming bump arena that
// carves raw pixel buffers out of a linear address space, and an in-place
// compositor that folds an occluder's alpha channel into a target's alpha
// channel, leaving all color data untouched. The same primitives are
// available three ways:
//
//	occlusion/           Root package with Memory interfaces and Buffer handles
//	├── guest/           Pure Go linear memory, arena, and compositor
//	├── engine/          Low-level wazero integration
//	├── host/            High-level API for driving the wasm guest
//	├── internal/wasmgen Emits the guest as a core WebAssembly binary
//	├── errors/          Structured error types
//	└── cmd/occlude/     PNG masking CLI
//
// # Quick Start
//
// In-process, with no wasm runtime involved:
//
//	g := guest.New(guest.Config{})
//	target := g.Reserve(1024)
//	occluder := g.Reserve(1024)
//	// ... fill both via g.WritePixels ...
//	g.CompositeOcclusion(target.Ptr, occluder.Ptr, target.Len)
//
// Through a wasm runtime, against the built-in guest binary:
//
//	rt, _ := host.New(ctx)
//	defer rt.Close(ctx)
//
//	mod, _ := rt.LoadBuiltin(ctx)
//	inst, _ := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	target, _ := inst.Reserve(ctx, uint32(len(pixels)))
//	inst.WritePixels(target, pixels)
//
// # Memory Model
//
// The arena only grows. There is no per-buffer free; the host either treats
// allocations as permanent or resets the whole region at coarse granularity
// (typically once per frame), which invalidates every handle issued so far.
// Buffer contents are unspecified until written.
//
// # Thread Safety
//
// The target execution environment is single-threaded. Nothing in this
// module locks; the caller serializes all access to a given arena or
// instance.
package occlusion
