// Package guest implements the occlusion module's two primitives in pure Go:
// a non-reclaiming bump arena over page-granular linear memory, and the
// in-place alpha-occlusion compositor. It is the in-process twin of the wasm
// guest binary emitted by internal/wasmgen and follows the same contract:
// address 0 is the null sentinel, Reserve never fails recoverably, and the
// compositor trusts its caller beyond the null guard.
package guest
