package host

import (
	"context"

	"go.uber.org/zap"

	occlusion "github.com/renderloop/occlusion"
	"github.com/renderloop/occlusion/engine"
	"github.com/renderloop/occlusion/errors"
	"github.com/renderloop/occlusion/internal/wasmgen"
)

// Instance is a running guest. Handles it issues are stamped with a
// generation; Reset invalidates them all at once.
//
// Instance is NOT safe for concurrent use; the guest environment is
// single-threaded and the host serializes all interaction with it.
type Instance struct {
	module *Module
	inst   *engine.Instance
	gen    uint64
}

// Reserve carves size fresh bytes out of guest memory and returns a handle.
// Contents are unspecified. If guest memory cannot grow, the guest traps
// and the instance is unusable afterwards; there is no recoverable
// allocation failure.
func (i *Instance) Reserve(ctx context.Context, size uint32) (occlusion.Buffer, error) {
	res, err := i.inst.Call(ctx, wasmgen.ExportReserve, uint64(size))
	if err != nil {
		return occlusion.Buffer{}, errors.Wrap(errors.PhaseRuntime, errors.KindAllocation, err, "reserve")
	}
	return occlusion.Buffer{Ptr: uint32(res[0]), Len: size, Gen: i.gen}, nil
}

// CompositeOcclusion folds occluder's alpha channel into target's alpha
// channel inside guest memory. Null handles are forwarded to the guest,
// where they are a defined no-op; stale handles and length mismatches are
// rejected before the call.
func (i *Instance) CompositeOcclusion(ctx context.Context, target, occluder occlusion.Buffer) error {
	if !target.IsNull() && !occluder.IsNull() {
		if err := i.check(target, "target"); err != nil {
			return err
		}
		if err := i.check(occluder, "occluder"); err != nil {
			return err
		}
		if target.Len != occluder.Len {
			return errors.New(errors.PhaseHost, errors.KindInvalidInput).
				Path("occluder").
				Detail("buffer lengths differ: target %d, occluder %d", target.Len, occluder.Len).
				Build()
		}
	}

	_, err := i.inst.Call(ctx, wasmgen.ExportComposite,
		uint64(target.Ptr), uint64(occluder.Ptr), uint64(target.Len))
	return err
}

// WritePixels copies pixel data into the buffer in guest memory.
func (i *Instance) WritePixels(b occlusion.Buffer, data []byte) error {
	if err := i.check(b, "buffer"); err != nil {
		return err
	}
	if uint32(len(data)) > b.Len {
		return errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Detail("data length %d exceeds buffer length %d", len(data), b.Len).
			Build()
	}
	return i.inst.Memory().Write(b.Ptr, data)
}

// ReadPixels returns a copy of the buffer contents from guest memory.
func (i *Instance) ReadPixels(b occlusion.Buffer) ([]byte, error) {
	if err := i.check(b, "buffer"); err != nil {
		return nil, err
	}
	raw, err := i.inst.Memory().Read(b.Ptr, b.Len)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// Reset discards the whole guest memory region by recycling the instance,
// the coarse-granularity reclamation this ABI expects (there is no
// per-buffer free). Every handle issued so far becomes stale.
func (i *Instance) Reset(ctx context.Context) error {
	if err := i.inst.Close(ctx); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindInstantiation, err, "close instance")
	}

	inst, err := i.module.mod.Instantiate(ctx)
	if err != nil {
		return errors.Instantiation(err)
	}
	i.inst = inst
	i.gen++

	engine.Logger().Debug("instance reset", zap.Uint64("generation", i.gen))
	return nil
}

// Generation returns the current handle generation.
func (i *Instance) Generation() uint64 {
	return i.gen
}

// Memory returns the guest's linear memory.
func (i *Instance) Memory() occlusion.Memory {
	return i.inst.Memory()
}

// MemorySize returns the current guest memory size in bytes.
func (i *Instance) MemorySize() uint32 {
	return i.inst.Memory().Size()
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.inst.Close(ctx)
}

func (i *Instance) check(b occlusion.Buffer, name string) error {
	if b.Gen != i.gen {
		return errors.StaleHandle(errors.PhaseHost, b.Gen, i.gen)
	}
	if uint64(b.Ptr)+uint64(b.Len) > uint64(i.inst.Memory().Size()) {
		return errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Path(name).
			Detail("handle [%d, %d) exceeds guest memory size %d", b.Ptr, b.End(), i.inst.Memory().Size()).
			Build()
	}
	return nil
}
