// Package pbe implements the Page Backup Entry list (§3 "Page Backup
// Entry", §9 "Cyclic PBE graph"): the sole piece of state that survives the
// atomic jump on resume, letting the restore trampoline overwrite every
// original page location from its scratch copy.
//
// The spec's source represents a PBE's "next" link by overloading the final
// slot of a page to mean "next PBE-holding page", a pointer-through-
// struct-page trick. Per §9's design note this is replaced with an explicit
// arena: PBEs live in a flat slice and link by integer index, never by
// pointer, so the representation has no cycle a Go garbage collector would
// need to reason about (adapted from the teacher's mem.Pa_t "physical
// address as plain integer" idiom, generalized to an arena index).
package pbe

import "toi/internal/hostmem"

// Entry is one (orig, copy) pair. The "next" link from the spec's linked
// list becomes implicit array adjacency within a page group (see Arena);
// there is no Next field because the arena never needs one.
type Entry struct {
	OrigPFN  hostmem.PFN // where the page must be restored to
	CopySlot int         // index into the arena's backing pages
}

// PerPage is how many Entry values fit in one arena page, mirroring
// "several PBEs per page" from §3. It is a parameter (not a constant) so
// tests can exercise small page groups without allocating huge arenas.
type PerPage = int

// Arena is an explicit vector of pages holding PBE entries, replacing the
// cyclic pointer structure described in §9. Entries are grouped into pages
// of PerPage entries each; PageGroup(n) tells a caller how many backing
// pages a list of n entries spans, standing in for "the final slot chains
// to the next PBE-holding page" without any pointer aliasing.
type Arena struct {
	perPage int
	lowmem  []Entry // lowmem list, traversed by the architecture trampoline
	highmem []Entry // highmem list, traversed by the portable loop
}

// NewArena creates an arena whose backing pages hold perPage entries each.
func NewArena(perPage int) *Arena {
	if perPage <= 0 {
		panic("pbe: perPage must be positive")
	}
	return &Arena{perPage: perPage}
}

// AddLowmem appends an entry to the lowmem list.
func (a *Arena) AddLowmem(orig hostmem.PFN, copySlot int) {
	a.lowmem = append(a.lowmem, Entry{OrigPFN: orig, CopySlot: copySlot})
}

// AddHighmem appends an entry to the highmem list.
func (a *Arena) AddHighmem(orig hostmem.PFN, copySlot int) {
	a.highmem = append(a.highmem, Entry{OrigPFN: orig, CopySlot: copySlot})
}

// Lowmem returns the lowmem PBE list in insertion order.
func (a *Arena) Lowmem() []Entry { return a.lowmem }

// Highmem returns the highmem PBE list in insertion order.
func (a *Arena) Highmem() []Entry { return a.highmem }

// Len returns the total number of PBEs across both lists.
func (a *Arena) Len() int { return len(a.lowmem) + len(a.highmem) }

// PageGroup returns how many backing pages the lowmem list spans, i.e. the
// count of "PBE-holding pages" the original's chained-final-slot trick
// would have walked.
func (a *Arena) PageGroup(listLen int) int {
	return (listLen + a.perPage - 1) / a.perPage
}

// Reset empties both lists, e.g. after a successful restore or an
// abort-cleanup (§3 "Lifecycle": PBE lists exist only between
// post_context_save and a successful atomic restore or abort-cleanup).
func (a *Arena) Reset() {
	a.lowmem = a.lowmem[:0]
	a.highmem = a.highmem[:0]
}
