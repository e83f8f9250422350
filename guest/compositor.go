package guest

import (
	occlusion "github.com/renderloop/occlusion"
)

// CompositeOcclusion folds the occluder's alpha channel into the target's
// alpha channel in place: for each pixel,
//
//	target_alpha = target_alpha * (255 - occluder_alpha) / 255
//
// with truncating integer division. Only alpha bytes (offset 3 of every
// 4-byte RGBA pixel) are read or written; color channels survive unchanged.
// This is an occlusion-weight update, not a visual blend.
//
// If either pointer is occlusion.NullPtr the call is a complete no-op. A
// trailing partial pixel within length is left untouched. Beyond the null
// guard the caller is trusted: a length that reaches past either buffer's
// real extent reads or writes whatever lives there, and a length past the
// end of memory traps.
func CompositeOcclusion(mem *LinearMemory, targetPtr, occluderPtr, length uint32) {
	if targetPtr == occlusion.NullPtr || occluderPtr == occlusion.NullPtr {
		return
	}

	target := mem.data[targetPtr : targetPtr+length]
	occluder := mem.data[occluderPtr : occluderPtr+length]
	occludeAlpha(target, occluder)
}

// occludeAlpha is the bounds-trusting inner primitive. Both slices must
// have the same length.
func occludeAlpha(target, occluder []byte) {
	for i := 3; i < len(target); i += 4 {
		ta := uint32(target[i])
		oa := uint32(occluder[i])
		target[i] = uint8(ta * (255 - oa) / 255)
	}
}
