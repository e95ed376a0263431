// Package hostmem stands in for the kernel's physical address space when
// this engine runs as an ordinary hosted process. It owns a []byte arena and
// the PFN<->offset mapping, and is the "zone walker" the page classifier
// (internal/classify) enumerates.
//
// Grounded on the teacher's mem package (Pa_t, PGSIZE, Page_i) generalized
// from direct-mapped kernel memory to a plain backing slice, and on the
// frame-allocator shape of gopher-os's kernel/mem/vmm (FrameAllocatorFn).
package hostmem

import (
	"sync"
	"sync/atomic"
)

// PFN identifies a physical page frame. The universe of valid PFNs is
// sparse: holes exist where a zone was never allocated, mirroring real
// reserved/MMIO regions.
type PFN uint64

// End is the sentinel returned by iteration when no further member exists.
const End PFN = ^PFN(0)

// DefaultPageSize matches the teacher's mem.PGSIZE.
const DefaultPageSize = 4096

// ZoneRange is one contiguous run of valid PFNs, as returned by Zones.
type ZoneRange struct {
	Start, End PFN // inclusive
}

type pageState struct {
	refcnt     int32
	nosave     bool
	unsaveable bool
}

// Arena is the host's stand-in for physical memory: a flat byte slice
// sliced into PageSize-sized frames, with per-frame bookkeeping (refcount,
// nosave, unsaveable). Of these the classifier consults only nosave; no
// package outside hostmem reads refcount or unsaveable.
type Arena struct {
	pageSize int
	backing  []byte
	zones    []ZoneRange

	mu     sync.Mutex
	states map[PFN]*pageState
}

// NewArena allocates a host-process arena of the given number of pages, all
// within a single contiguous zone [0, pages). Use CarveHole to model a
// reserved/MMIO gap.
func NewArena(pages int, pageSize int) *Arena {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	a := &Arena{
		pageSize: pageSize,
		backing:  make([]byte, pages*pageSize),
		zones:    []ZoneRange{{Start: 0, End: PFN(pages - 1)}},
		states:   make(map[PFN]*pageState),
	}
	return a
}

// PageSize returns the page size in bytes.
func (a *Arena) PageSize() int { return a.pageSize }

// Zones returns the contiguous PFN ranges that make up this arena, the
// host-process analog of walking the kernel's online zone list.
func (a *Arena) Zones() []ZoneRange {
	out := make([]ZoneRange, len(a.zones))
	copy(out, a.zones)
	return out
}

// CarveHole removes [start,end] from the zone list, so PfnValid reports
// false for it, modeling the gaps the classifier's "!pfn_valid" skip
// branch handles (§4.3 step 1).
func (a *Arena) CarveHole(start, end PFN) {
	var out []ZoneRange
	for _, z := range a.zones {
		if end < z.Start || start > z.End {
			out = append(out, z)
			continue
		}
		if start > z.Start {
			out = append(out, ZoneRange{Start: z.Start, End: start - 1})
		}
		if end < z.End {
			out = append(out, ZoneRange{Start: end + 1, End: z.End})
		}
	}
	a.zones = out
}

// PfnValid reports whether pfn falls within a zone.
func (a *Arena) PfnValid(pfn PFN) bool {
	for _, z := range a.zones {
		if pfn >= z.Start && pfn <= z.End {
			return true
		}
	}
	return false
}

// NumPages returns the total page count addressable by the backing slice,
// irrespective of holes.
func (a *Arena) NumPages() int { return len(a.backing) / a.pageSize }

// PageBytes returns a live view over pfn's contents. Mutating the slice
// mutates the arena.
func (a *Arena) PageBytes(pfn PFN) []byte {
	off := int(pfn) * a.pageSize
	return a.backing[off : off+a.pageSize]
}

func (a *Arena) state(pfn PFN) *pageState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.states[pfn]
	if !ok {
		st = &pageState{}
		a.states[pfn] = st
	}
	return st
}

// MarkNosave records pfn as kernel-declared do-not-save (§3's nosave_map
// source of truth lives in the classifier; this is the arena-side fact it
// queries).
func (a *Arena) MarkNosave(pfn PFN) { a.state(pfn).nosave = true }

// IsNosave reports whether pfn was marked via MarkNosave.
func (a *Arena) IsNosave(pfn PFN) bool { return a.state(pfn).nosave }

// MarkUnsaveable records pfn as kernel text/readonly/unused (§4.3 step 2's
// "otherwise non-saveable" bucket).
func (a *Arena) MarkUnsaveable(pfn PFN) { a.state(pfn).unsaveable = true }

// IsUnsaveable reports whether pfn was marked via MarkUnsaveable.
func (a *Arena) IsUnsaveable(pfn PFN) bool { return a.state(pfn).unsaveable }

// Refup increments pfn's reference count.
func (a *Arena) Refup(pfn PFN) {
	atomic.AddInt32(&a.state(pfn).refcnt, 1)
}

// Refdown decrements pfn's reference count and reports whether it reached
// zero (the page is now free), mirroring mem.Page_i.Refdown.
func (a *Arena) Refdown(pfn PFN) bool {
	return atomic.AddInt32(&a.state(pfn).refcnt, -1) == 0
}

// Refcount returns pfn's current reference count.
func (a *Arena) Refcount(pfn PFN) int {
	return int(atomic.LoadInt32(&a.state(pfn).refcnt))
}
