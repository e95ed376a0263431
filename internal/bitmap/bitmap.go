// Package bitmap implements the Memory Bitmap component (§4.1): a compact
// per-page-frame bit set over an arbitrarily sparse PFN universe,
// represented as a list of fixed-size blocks so ranges with no members
// never allocate a block.
//
// Grounded on the teacher's mem package block-of-page-size arithmetic
// (PGSIZE-denominated structures) generalized to cover an arbitrary PFN
// span per block, and on the block-over-span shape of the Go runtime's
// mark-bitmap-over-spans design (other_examples' mgcsweep.go) — a sparse
// collection of fixed-capacity bit blocks rather than one flat array.
package bitmap

import (
	"sort"

	"toi/internal/hostmem"
)

// BitsPerBlock is chosen, per §4.1, so a block's bit array is exactly one
// host page wide.
const BitsPerBlock = hostmem.DefaultPageSize * 8

type block struct {
	base hostmem.PFN // first PFN covered by this block
	bits [BitsPerBlock / 64]uint64
}

func (b *block) covers(pfn hostmem.PFN) bool {
	d := pfn - b.base
	return d < BitsPerBlock
}

func (b *block) set(pfn hostmem.PFN)   { i := pfn - b.base; b.bits[i/64] |= 1 << (i % 64) }
func (b *block) clear(pfn hostmem.PFN) { i := pfn - b.base; b.bits[i/64] &^= 1 << (i % 64) }
func (b *block) test(pfn hostmem.PFN) bool {
	i := pfn - b.base
	return b.bits[i/64]&(1<<(i%64)) != 0
}

// Allocator mirrors mem.Page_i's allocation half: Set calls draw a backing
// block from whatever pool the caller configured. The host substrate never
// actually runs out, but the interface is kept so Bitmap.Set can report
// failure (by returning false) on the one recoverable failure path §4.1
// documents.
type Allocator interface {
	// AllocBlock returns false on out-of-memory.
	AllocBlock() bool
}

// unlimitedAllocator is the default Allocator: always succeeds. Tests that
// want to exercise the ENOMEM path supply a counting Allocator instead.
type unlimitedAllocator struct{}

func (unlimitedAllocator) AllocBlock() bool { return true }

// Bitmap is a set of PFNs implemented as a lazily-populated, base-sorted
// list of blocks. Two independent cursors exist: Next (iteration) and the
// implicit mutation path (Set/Clear/Test), which never touch the iteration
// cursor (§4.1).
type Bitmap struct {
	alloc Allocator
	safe  bool

	blocks    []*block // sorted by base
	iterCur   hostmem.PFN
	iterBlock int // index into blocks where the last Next search left off
}

// New creates an empty bitmap. safe=true means blocks should be drawn from a
// reserve that cannot collide with image data — used on resume (§4.1).
func New(alloc Allocator, safe bool) *Bitmap {
	if alloc == nil {
		alloc = unlimitedAllocator{}
	}
	return &Bitmap{alloc: alloc, safe: safe}
}

func blockBase(pfn hostmem.PFN) hostmem.PFN {
	return (pfn / BitsPerBlock) * BitsPerBlock
}

// findBlock returns the block covering pfn, or nil, plus the index at which
// a new block would be inserted to keep blocks sorted by base.
func (bm *Bitmap) findBlock(pfn hostmem.PFN) (*block, int) {
	base := blockBase(pfn)
	i := sort.Search(len(bm.blocks), func(i int) bool { return bm.blocks[i].base >= base })
	if i < len(bm.blocks) && bm.blocks[i].base == base {
		return bm.blocks[i], i
	}
	return nil, i
}

// Set marks pfn as a member, lazily allocating the covering block. It is
// the only operation that can fail (out-of-memory on a new block), per
// §4.1's failure semantics.
func (bm *Bitmap) Set(pfn hostmem.PFN) bool {
	if b, _ := bm.findBlock(pfn); b != nil {
		b.set(pfn)
		return true
	}
	if !bm.alloc.AllocBlock() {
		return false
	}
	_, idx := bm.findBlock(pfn)
	nb := &block{base: blockBase(pfn)}
	bm.blocks = append(bm.blocks, nil)
	copy(bm.blocks[idx+1:], bm.blocks[idx:])
	bm.blocks[idx] = nb
	nb.set(pfn)
	return true
}

// Clear removes pfn from the set. Infallible: a never-allocated block has
// no members to clear.
func (bm *Bitmap) Clear(pfn hostmem.PFN) {
	if b, _ := bm.findBlock(pfn); b != nil {
		b.clear(pfn)
	}
}

// Test reports whether pfn is a member. Infallible.
func (bm *Bitmap) Test(pfn hostmem.PFN) bool {
	b, _ := bm.findBlock(pfn)
	return b != nil && b.test(pfn)
}

// ResetIter rewinds the iteration cursor to the beginning, independent of
// any pending mutations.
func (bm *Bitmap) ResetIter() {
	bm.iterCur = 0
	bm.iterBlock = 0
}

// Next returns the smallest member PFN strictly greater than the previous
// value returned by Next (or >= 0 on the first call after ResetIter), or
// hostmem.End if none remains. Monotonically non-decreasing between resets
// (P1), and never disturbed by concurrent Set calls on other PFNs.
func (bm *Bitmap) Next() hostmem.PFN {
	start := bm.iterCur
	for i := bm.iterBlock; i < len(bm.blocks); i++ {
		b := bm.blocks[i]
		if b.base+BitsPerBlock <= start {
			bm.iterBlock = i + 1
			continue
		}
		from := start
		if from < b.base {
			from = b.base
		}
		for p := from; p < b.base+BitsPerBlock; p++ {
			if b.test(p) {
				bm.iterCur = p + 1
				bm.iterBlock = i
				return p
			}
		}
	}
	bm.iterCur = hostmem.End
	return hostmem.End
}

// Count reports the number of set members. O(blocks * BitsPerBlock); used
// only in tests and invariant checks, never on a hot path.
func (bm *Bitmap) Count() int {
	n := 0
	for _, b := range bm.blocks {
		for _, w := range b.bits {
			n += popcount(w)
		}
	}
	return n
}

func popcount(w uint64) int {
	n := 0
	for w != 0 {
		w &= w - 1
		n++
	}
	return n
}

// Copy duplicates src's structure (blocks and bit contents) into dst,
// without allocating fresh backing via Allocator — a structural duplicate,
// matching the teacher's bitmap "copy" (vs. "dup") distinction (§4.1).
func Copy(src, dst *Bitmap) {
	dst.blocks = make([]*block, len(src.blocks))
	for i, b := range src.blocks {
		nb := &block{base: b.base}
		nb.bits = b.bits
		dst.blocks[i] = nb
	}
	dst.ResetIter()
}

// Dup allocates a fresh bitmap via dst's Allocator and copies src's
// contents into it, returning false if any required block allocation
// fails partway (already-allocated blocks are left in place, matching the
// teacher's all-or-nothing-isn't-guaranteed "dup" semantics — callers that
// need atomicity should pre-size their allocator).
func Dup(src *Bitmap, dst *Bitmap) bool {
	for _, b := range src.blocks {
		if dst.findBlockOrNil(b.base) != nil {
			continue
		}
		if !dst.alloc.AllocBlock() {
			return false
		}
		nb := &block{base: b.base}
		nb.bits = b.bits
		dst.insert(nb)
	}
	dst.ResetIter()
	return true
}

func (bm *Bitmap) findBlockOrNil(base hostmem.PFN) *block {
	i := sort.Search(len(bm.blocks), func(i int) bool { return bm.blocks[i].base >= base })
	if i < len(bm.blocks) && bm.blocks[i].base == base {
		return bm.blocks[i]
	}
	return nil
}

func (bm *Bitmap) insert(nb *block) {
	i := sort.Search(len(bm.blocks), func(i int) bool { return bm.blocks[i].base >= nb.base })
	bm.blocks = append(bm.blocks, nil)
	copy(bm.blocks[i+1:], bm.blocks[i:])
	bm.blocks[i] = nb
}
