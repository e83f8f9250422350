// Package host drives the occlusion guest through a wasm runtime. It loads
// a guest binary (the built-in one from internal/wasmgen, or any binary
// exporting the same ABI), validates its exports against the WIT signature
// table, and exposes typed operations over generation-checked buffer
// handles: Reserve, WritePixels, ReadPixels, CompositeOcclusion, Reset.
//
// The host writes pixel bytes straight into guest memory and reads results
// back from it; nothing is copied across the boundary during compositing.
package host
