package bitmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"toi/internal/hostmem"
)

// P1 (bitmap correctness): for every permutation of {set, clear, test}
// operations on random PFNs, the bitmap agrees with a reference set, and
// Next is monotonically non-decreasing between resets.
func TestBitmapAgreesWithReferenceSet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bm := New(nil, false)
	ref := make(map[hostmem.PFN]bool)

	const ops = 20000
	const universe = 1 << 20
	for i := 0; i < ops; i++ {
		pfn := hostmem.PFN(rng.Intn(universe))
		switch rng.Intn(3) {
		case 0:
			require.True(t, bm.Set(pfn))
			ref[pfn] = true
		case 1:
			bm.Clear(pfn)
			delete(ref, pfn)
		case 2:
			require.Equal(t, ref[pfn], bm.Test(pfn))
		}
	}

	for pfn, want := range ref {
		require.Equal(t, want, bm.Test(pfn), "pfn %d", pfn)
	}
	require.Equal(t, len(ref), bm.Count())

	bm.ResetIter()
	var last hostmem.PFN = 0
	first := true
	seen := 0
	for p := bm.Next(); p != hostmem.End; p = bm.Next() {
		if !first {
			require.True(t, p >= last, "Next not monotonic: %d after %d", p, last)
		}
		first = false
		last = p
		require.True(t, ref[p])
		seen++
	}
	require.Equal(t, len(ref), seen)
}

func TestBitmapSparseBlocksNotAllocated(t *testing.T) {
	bm := New(nil, false)
	bm.Set(10)
	bm.Set(hostmem.PFN(50_000_000))
	require.Len(t, bm.blocks, 2)
}

func TestBitmapOOMOnSet(t *testing.T) {
	alloc := &countingAllocator{max: 1}
	bm := New(alloc, false)
	require.True(t, bm.Set(1))
	require.False(t, bm.Set(hostmem.PFN(BitsPerBlock+1)))
}

type countingAllocator struct {
	used, max int
}

func (a *countingAllocator) AllocBlock() bool {
	if a.used >= a.max {
		return false
	}
	a.used++
	return true
}

func TestBitmapCopyAndDup(t *testing.T) {
	src := New(nil, false)
	for _, p := range []hostmem.PFN{1, 2, 3, BitsPerBlock + 5} {
		src.Set(p)
	}

	dst := New(nil, false)
	Copy(src, dst)
	for _, p := range []hostmem.PFN{1, 2, 3, BitsPerBlock + 5} {
		require.True(t, dst.Test(p))
	}

	dst2 := New(nil, false)
	require.True(t, Dup(src, dst2))
	for _, p := range []hostmem.PFN{1, 2, 3, BitsPerBlock + 5} {
		require.True(t, dst2.Test(p))
	}
}
