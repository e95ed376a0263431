package atomiccopy

import (
	"toi/internal/bitmap"
	"toi/internal/defs"
	"toi/internal/hostmem"
)

// CopyPageset1 walks src (pageset1_map) and dst (pageset1_copy_map) in
// lock-step via Bitmap.Next, copying each src page's bytes into the
// corresponding dst page highest-word-downward, one uint64 at a time.
//
// The real kernel's constraint is "never use a whole-page memcpy that could
// have side effects such as touching the FPU and thereby altering
// preempt-count" (§4.6); that specific hazard cannot exist in a hosted Go
// process, but the word-at-a-time loop is kept anyway as the closest
// meaningful analog: a tight loop with no function calls other than the
// loop body itself, so no allocation or scheduling point can land inside
// the atomic region it models.
func CopyPageset1(arena *hostmem.Arena, src, dst *bitmap.Bitmap) defs.Err_t {
	src.ResetIter()
	dst.ResetIter()

	for {
		s := src.Next()
		d := dst.Next()
		if s == hostmem.End && d == hostmem.End {
			return 0
		}
		if s == hostmem.End || d == hostmem.End {
			return -defs.EINVAL // |pageset1_map| != |pageset1_copy_map|
		}

		srcPage := arena.PageBytes(s)
		dstPage := arena.PageBytes(d)
		if len(srcPage) != len(dstPage) || len(srcPage)%8 != 0 {
			return -defs.EINVAL
		}

		nwords := len(srcPage) / 8
		for w := nwords - 1; w >= 0; w-- {
			off := w * 8
			var word uint64
			word |= uint64(srcPage[off])
			word |= uint64(srcPage[off+1]) << 8
			word |= uint64(srcPage[off+2]) << 16
			word |= uint64(srcPage[off+3]) << 24
			word |= uint64(srcPage[off+4]) << 32
			word |= uint64(srcPage[off+5]) << 40
			word |= uint64(srcPage[off+6]) << 48
			word |= uint64(srcPage[off+7]) << 56

			dstPage[off] = byte(word)
			dstPage[off+1] = byte(word >> 8)
			dstPage[off+2] = byte(word >> 16)
			dstPage[off+3] = byte(word >> 24)
			dstPage[off+4] = byte(word >> 32)
			dstPage[off+5] = byte(word >> 40)
			dstPage[off+6] = byte(word >> 48)
			dstPage[off+7] = byte(word >> 56)
		}
	}
}
