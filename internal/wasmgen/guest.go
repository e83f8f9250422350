// Package wasmgen emits the occlusion guest as a core WebAssembly binary.
//
// The guest exports linear memory plus the module's two boundary operations:
//
//	reserve: func(size: u32) -> u32
//	composite-occlusion: func(target: u32, occluder: u32, len: u32)
//
// reserve bumps a heap global (base 64 KiB, keeping address 0 as the null
// sentinel) and grows memory on demand; if memory.grow fails it executes
// unreachable, trapping the instance. composite_occlusion is the alpha
// loop: no-op on a null pointer, otherwise
// target[i] = target[i] * (255 - occluder[i]) / 255 for i = 3, 7, 11, ...
package wasmgen

// ExportMemory, ExportReserve and ExportComposite are the guest's export
// names, the only ABI surface.
const (
	ExportMemory    = "memory"
	ExportReserve   = "reserve"
	ExportComposite = "composite_occlusion"
)

// HeapBase is the first address reserve ever returns. Page 0 stays free so
// that address 0 keeps meaning "no buffer".
const HeapBase = 65536

// Core wasm section ids.
const (
	secType   = 1
	secFunc   = 3
	secMemory = 5
	secGlobal = 6
	secExport = 7
	secCode   = 10
)

const (
	valI32      = 0x7F
	funcMarker  = 0x60
	kindFunc    = 0x00
	kindMemory  = 0x02
	mutable     = 0x01
	limitsNoMax = 0x00
	blockEmpty  = 0x40
)

// Opcodes used by the guest.
const (
	opUnreachable = 0x00
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opEnd         = 0x0B
	opBr          = 0x0C
	opBrIf        = 0x0D
	opReturn      = 0x0F
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Load8U   = 0x2D
	opI32Store8   = 0x3A
	opMemorySize  = 0x3F
	opMemoryGrow  = 0x40
	opI32Const    = 0x41
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32GtU      = 0x4B
	opI32GeU      = 0x4F
	opI32Add      = 0x6A
	opI32Sub      = 0x6B
	opI32Mul      = 0x6C
	opI32DivU     = 0x6E
	opI32ShrU     = 0x76
	opI32Or       = 0x72
)

// Guest returns the occlusion guest module binary. The output is
// deterministic.
func Guest() []byte {
	buf := &Buffer{}
	buf.WriteBytes([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}) // magic + version

	// Types: 0 = (i32) -> (i32), 1 = (i32, i32, i32) -> ()
	sec := &Buffer{}
	sec.WriteU32(2)
	sec.AppendByte(funcMarker)
	sec.WriteU32(1)
	sec.AppendByte(valI32)
	sec.WriteU32(1)
	sec.AppendByte(valI32)
	sec.AppendByte(funcMarker)
	sec.WriteU32(3)
	sec.AppendByte(valI32)
	sec.AppendByte(valI32)
	sec.AppendByte(valI32)
	sec.WriteU32(0)
	writeSection(buf, secType, sec)

	// Functions: reserve uses type 0, composite_occlusion type 1.
	sec = &Buffer{}
	sec.WriteU32(2)
	sec.WriteU32(0)
	sec.WriteU32(1)
	writeSection(buf, secFunc, sec)

	// Memory: 2 pages minimum (null page + one page of heap), no maximum.
	sec = &Buffer{}
	sec.WriteU32(1)
	sec.AppendByte(limitsNoMax)
	sec.WriteU32(2)
	writeSection(buf, secMemory, sec)

	// Global 0: mutable i32 heap pointer starting at HeapBase.
	sec = &Buffer{}
	sec.WriteU32(1)
	sec.AppendByte(valI32)
	sec.AppendByte(mutable)
	sec.AppendByte(opI32Const)
	sec.WriteI32(HeapBase)
	sec.AppendByte(opEnd)
	writeSection(buf, secGlobal, sec)

	// Exports.
	sec = &Buffer{}
	sec.WriteU32(3)
	sec.WriteString(ExportMemory)
	sec.AppendByte(kindMemory)
	sec.WriteU32(0)
	sec.WriteString(ExportReserve)
	sec.AppendByte(kindFunc)
	sec.WriteU32(0)
	sec.WriteString(ExportComposite)
	sec.AppendByte(kindFunc)
	sec.WriteU32(1)
	writeSection(buf, secExport, sec)

	// Code.
	sec = &Buffer{}
	sec.WriteU32(2)
	writeFuncBody(sec, reserveBody())
	writeFuncBody(sec, compositeBody())
	writeSection(buf, secCode, sec)

	return buf.Bytes
}

func writeFuncBody(sec *Buffer, body *Buffer) {
	sec.WriteU32(uint32(len(body.Bytes)))
	sec.WriteBytes(body.Bytes)
}

// reserveBody encodes:
//
//	(func (param $size i32) (result i32) (local $base i32) (local $need i32)
//	  global.get $heap
//	  local.set $base
//	  global.get $heap  local.get $size  i32.add  global.set $heap
//	  ;; need = (heap + 0xFFFF) >> 16 pages
//	  global.get $heap  i32.const 65535  i32.add  i32.const 16  i32.shr_u
//	  local.set $need
//	  local.get $need  memory.size  i32.gt_u
//	  if
//	    local.get $need  memory.size  i32.sub  memory.grow
//	    i32.const -1  i32.eq
//	    if unreachable end
//	  end
//	  local.get $base)
//
// Locals: 0 = size (param), 1 = base, 2 = need.
func reserveBody() *Buffer {
	b := &Buffer{}
	b.WriteU32(1) // one local group
	b.WriteU32(2)
	b.AppendByte(valI32)

	b.AppendByte(opGlobalGet)
	b.WriteU32(0)
	b.AppendByte(opLocalSet)
	b.WriteU32(1)

	b.AppendByte(opGlobalGet)
	b.WriteU32(0)
	b.AppendByte(opLocalGet)
	b.WriteU32(0)
	b.AppendByte(opI32Add)
	b.AppendByte(opGlobalSet)
	b.WriteU32(0)

	b.AppendByte(opGlobalGet)
	b.WriteU32(0)
	b.AppendByte(opI32Const)
	b.WriteI32(0xFFFF)
	b.AppendByte(opI32Add)
	b.AppendByte(opI32Const)
	b.WriteI32(16)
	b.AppendByte(opI32ShrU)
	b.AppendByte(opLocalSet)
	b.WriteU32(2)

	b.AppendByte(opLocalGet)
	b.WriteU32(2)
	b.AppendByte(opMemorySize)
	b.AppendByte(0x00)
	b.AppendByte(opI32GtU)
	b.AppendByte(opIf)
	b.AppendByte(blockEmpty)

	b.AppendByte(opLocalGet)
	b.WriteU32(2)
	b.AppendByte(opMemorySize)
	b.AppendByte(0x00)
	b.AppendByte(opI32Sub)
	b.AppendByte(opMemoryGrow)
	b.AppendByte(0x00)
	b.AppendByte(opI32Const)
	b.WriteI32(-1)
	b.AppendByte(opI32Eq)
	b.AppendByte(opIf)
	b.AppendByte(blockEmpty)
	b.AppendByte(opUnreachable)
	b.AppendByte(opEnd)

	b.AppendByte(opEnd)

	b.AppendByte(opLocalGet)
	b.WriteU32(1)
	b.AppendByte(opEnd)
	return b
}

// compositeBody encodes:
//
//	(func (param $target i32) (param $occluder i32) (param $len i32)
//	      (local $i i32) (local $ta i32) (local $oa i32)
//	  local.get $target i32.eqz  local.get $occluder i32.eqz  i32.or
//	  if return end
//	  i32.const 3  local.set $i
//	  block
//	    loop
//	      local.get $i  local.get $len  i32.ge_u  br_if 1
//	      local.get $target local.get $i i32.add  i32.load8_u  local.set $ta
//	      local.get $occluder local.get $i i32.add  i32.load8_u  local.set $oa
//	      local.get $target local.get $i i32.add
//	      local.get $ta  i32.const 255 local.get $oa i32.sub  i32.mul
//	      i32.const 255  i32.div_u
//	      i32.store8
//	      local.get $i  i32.const 4  i32.add  local.set $i
//	      br 0
//	    end
//	  end)
//
// Locals: 0..2 = params, 3 = i, 4 = ta, 5 = oa.
func compositeBody() *Buffer {
	b := &Buffer{}
	b.WriteU32(1)
	b.WriteU32(3)
	b.AppendByte(valI32)

	// Null guard.
	b.AppendByte(opLocalGet)
	b.WriteU32(0)
	b.AppendByte(opI32Eqz)
	b.AppendByte(opLocalGet)
	b.WriteU32(1)
	b.AppendByte(opI32Eqz)
	b.AppendByte(opI32Or)
	b.AppendByte(opIf)
	b.AppendByte(blockEmpty)
	b.AppendByte(opReturn)
	b.AppendByte(opEnd)

	b.AppendByte(opI32Const)
	b.WriteI32(3)
	b.AppendByte(opLocalSet)
	b.WriteU32(3)

	b.AppendByte(opBlock)
	b.AppendByte(blockEmpty)
	b.AppendByte(opLoop)
	b.AppendByte(blockEmpty)

	b.AppendByte(opLocalGet)
	b.WriteU32(3)
	b.AppendByte(opLocalGet)
	b.WriteU32(2)
	b.AppendByte(opI32GeU)
	b.AppendByte(opBrIf)
	b.WriteU32(1)

	loadByte(b, 0, 4)
	loadByte(b, 1, 5)

	// Target alpha address for the store.
	b.AppendByte(opLocalGet)
	b.WriteU32(0)
	b.AppendByte(opLocalGet)
	b.WriteU32(3)
	b.AppendByte(opI32Add)

	// ta * (255 - oa) / 255
	b.AppendByte(opLocalGet)
	b.WriteU32(4)
	b.AppendByte(opI32Const)
	b.WriteI32(255)
	b.AppendByte(opLocalGet)
	b.WriteU32(5)
	b.AppendByte(opI32Sub)
	b.AppendByte(opI32Mul)
	b.AppendByte(opI32Const)
	b.WriteI32(255)
	b.AppendByte(opI32DivU)

	b.AppendByte(opI32Store8)
	b.WriteU32(0) // align
	b.WriteU32(0) // offset

	// i += 4
	b.AppendByte(opLocalGet)
	b.WriteU32(3)
	b.AppendByte(opI32Const)
	b.WriteI32(4)
	b.AppendByte(opI32Add)
	b.AppendByte(opLocalSet)
	b.WriteU32(3)

	b.AppendByte(opBr)
	b.WriteU32(0)

	b.AppendByte(opEnd) // loop
	b.AppendByte(opEnd) // block
	b.AppendByte(opEnd) // func
	return b
}

// loadByte emits base[i] -> local dst, with base and i as local indices.
func loadByte(b *Buffer, base, dst uint32) {
	b.AppendByte(opLocalGet)
	b.WriteU32(base)
	b.AppendByte(opLocalGet)
	b.WriteU32(3)
	b.AppendByte(opI32Add)
	b.AppendByte(opI32Load8U)
	b.WriteU32(0) // align
	b.WriteU32(0) // offset
	b.AppendByte(opLocalSet)
	b.WriteU32(dst)
}
