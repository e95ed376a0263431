// Package classify implements the Page Classifier component (§4.3): it
// partitions every page frame into pageset-1, pageset-2, nosave, or free,
// and reserves a disjoint scratch pool (pageset1_copy_map) sized to match
// pageset-1.
//
// Grounded on the zone-walk-then-decide shape of gopher-os's and
// SeleniaProject-Orizon's freestanding vmm.go (walk pages, consult a
// pluggable decision function, assign), and on the teacher's mem.Page_i
// allocate/refcount contract for what "free" means.
package classify

import (
	"toi/internal/bitmap"
	"toi/internal/defs"
	"toi/internal/hostmem"
)

// Classification is the decision §4.3 step 2/3 asks an external
// "saveable_page" oracle to make for one PFN.
type Classification int

const (
	// Unsaveable means the page is kernel text/readonly/unused: it is
	// skipped from every pageset and becomes a free/reserve candidate.
	Unsaveable Classification = iota
	// MustCopy means the page may mutate between freeze and power-off and
	// always belongs to pageset-1.
	MustCopy
	// Quiescent means the page is page-cache-like or quiescent
	// user memory: a pageset-2 candidate unless FullPageset2 is set.
	Quiescent
)

// Saveable is the pluggable "saveable_page" oracle (§4.3). tight is true
// only during Recalculate, letting one callback implement both the initial
// walk and the late-dirtying re-check (§4.3's "rerun steps 3-4").
type Saveable func(a *hostmem.Arena, p hostmem.PFN, tight bool) Classification

// Shrinker stands in for the external shrink_memory() collaborator: given a
// page shortfall, it returns newly freed PFNs (possibly fewer than asked
// for, possibly none).
type Shrinker func(needed int) []hostmem.PFN

// Options configures one Classifier.
type Options struct {
	Saveable     Saveable
	Shrinker     Shrinker
	FullPageset2 bool
	// MaxShrinkRetries bounds the "retry up to a configured number of
	// times" loop in §4.3.
	MaxShrinkRetries int
	// ExtraPagesAllowance bounds ExtraPagesUsed() after Recalculate,
	// per §4.3.
	ExtraPagesAllowance int
}

// Classifier partitions an Arena's pages into the seven bitmaps of §3.
type Classifier struct {
	arena *hostmem.Arena
	opts  Options

	pageset1     *bitmap.Bitmap
	pageset1Copy *bitmap.Bitmap
	pageset2     *bitmap.Bitmap
	ioMap        *bitmap.Bitmap
	nosave       *bitmap.Bitmap
	free         *bitmap.Bitmap
	pageResave   *bitmap.Bitmap

	ps1AfterPrepare int
	extraPagesUsed  int
}

// New creates a Classifier over arena, with fresh empty bitmaps.
func New(arena *hostmem.Arena, opts Options) *Classifier {
	if opts.Saveable == nil {
		opts.Saveable = func(_ *hostmem.Arena, _ hostmem.PFN, _ bool) Classification { return MustCopy }
	}
	return &Classifier{
		arena:        arena,
		opts:         opts,
		pageset1:     bitmap.New(nil, false),
		pageset1Copy: bitmap.New(nil, true),
		pageset2:     bitmap.New(nil, false),
		ioMap:        bitmap.New(nil, false),
		nosave:       bitmap.New(nil, false),
		free:         bitmap.New(nil, false),
		pageResave:   bitmap.New(nil, false),
	}
}

func (c *Classifier) Pageset1() *bitmap.Bitmap     { return c.pageset1 }
func (c *Classifier) Pageset1Copy() *bitmap.Bitmap { return c.pageset1Copy }
func (c *Classifier) Pageset2() *bitmap.Bitmap     { return c.pageset2 }
func (c *Classifier) IOMap() *bitmap.Bitmap        { return c.ioMap }
func (c *Classifier) Nosave() *bitmap.Bitmap       { return c.nosave }
func (c *Classifier) Free() *bitmap.Bitmap         { return c.free }
func (c *Classifier) PageResave() *bitmap.Bitmap   { return c.pageResave }

// ExtraPagesUsed returns the delta in pageset-1 size between the initial
// classification and the post-atomic recalculation (§4.3).
func (c *Classifier) ExtraPagesUsed() int { return c.extraPagesUsed }

// PrepareImage walks every zone once (§4.3 steps 1-4), classifies every
// valid, non-nosave PFN, and then reserves a pageset1Copy pool matching
// |pageset1|. Returns defs.ENOMEM if the reserve cannot be satisfied even
// after MaxShrinkRetries shrink attempts.
func (c *Classifier) PrepareImage() defs.Err_t {
	for _, z := range c.arena.Zones() {
		for p := z.Start; p <= z.End; p++ {
			c.classifyOne(p)
		}
	}

	c.ps1AfterPrepare = c.pageset1.Count()
	if err := c.reserveAdditional(c.ps1AfterPrepare); err != 0 {
		return err
	}
	return 0
}

func (c *Classifier) classifyOne(p hostmem.PFN) {
	if !c.arena.PfnValid(p) || c.nosave.Test(p) {
		return
	}
	if c.arena.IsNosave(p) {
		c.nosave.Set(p)
		return
	}
	switch c.opts.Saveable(c.arena, p, false) {
	case Unsaveable:
		c.free.Set(p)
	case Quiescent:
		if c.opts.FullPageset2 {
			c.pageset1.Set(p)
		} else {
			c.pageset2.Set(p)
		}
	default: // MustCopy
		c.pageset1.Set(p)
	}
}

// reserveAdditional pulls n pages from the free pool into pageset1Copy,
// invoking the Shrinker up to MaxShrinkRetries times on shortage (§4.3's
// "MUST fail early ... triggering shrink_memory() and retry").
func (c *Classifier) reserveAdditional(n int) defs.Err_t {
	got := c.pullFree(n)
	attempts := 0
	for got < n {
		if c.opts.Shrinker == nil || attempts >= c.opts.MaxShrinkRetries {
			return -defs.ENOMEM
		}
		attempts++
		freed := c.opts.Shrinker(n - got)
		if len(freed) == 0 {
			return -defs.ENOMEM
		}
		for _, pfn := range freed {
			c.free.Set(pfn)
		}
		got += c.pullFree(n - got)
	}
	return 0
}

// pullFree moves up to n pages from free into pageset1Copy, returning how
// many it actually moved.
func (c *Classifier) pullFree(n int) int {
	if n <= 0 {
		return 0
	}
	c.free.ResetIter()
	got := 0
	for got < n {
		p := c.free.Next()
		if p == hostmem.End {
			break
		}
		c.free.Clear(p)
		if !c.pageset1Copy.Set(p) {
			// out of memory allocating the copy bitmap's block; put the
			// page back and stop.
			c.free.Set(p)
			break
		}
		got++
	}
	return got
}

// Recalculate reruns steps 3-4 (without the full zone walk) over the
// current pageset-2 membership, moving any page the Saveable oracle now
// reports as MustCopy into pageset-1 and page_resave_map (§4.3's "catch
// pages dirtied late"). It reserves additional pageset1Copy pages for the
// delta and, if that pushes ExtraPagesUsed() past ExtraPagesAllowance,
// returns -defs.ENOMEM (engine.saveImage records that failure as
// defs.EXTRA_PAGES_ALLOW_TOO_SMALL) — not a cast of the Result bit itself,
// which collides numerically with EIO.
func (c *Classifier) Recalculate(tight bool) defs.Err_t {
	before := c.pageset1.Count()

	var dirty []hostmem.PFN
	c.pageset2.ResetIter()
	for p := c.pageset2.Next(); p != hostmem.End; p = c.pageset2.Next() {
		if c.opts.Saveable(c.arena, p, tight) == MustCopy {
			dirty = append(dirty, p)
		}
	}
	for _, p := range dirty {
		c.pageset2.Clear(p)
		c.pageset1.Set(p)
		c.pageResave.Set(p)
	}

	delta := c.pageset1.Count() - before
	c.extraPagesUsed += delta
	if c.extraPagesUsed > c.opts.ExtraPagesAllowance {
		return -defs.ENOMEM
	}
	if delta > 0 {
		if err := c.reserveAdditional(delta); err != 0 {
			return err
		}
	}
	return 0
}

// CheckInvariants verifies §3's five classifier invariants and returns the
// first violated one as an error-shaped string, or "" if all hold. Used
// directly by the P3 property test.
func (c *Classifier) CheckInvariants() string {
	if overlap(c.pageset1, c.pageset2) {
		return "pageset1_map and pageset2_map are not disjoint"
	}
	if c.pageset1.Count() != c.pageset1Copy.Count() {
		return "|pageset1_map| != |pageset1_copy_map|"
	}
	if overlap(c.pageset1Copy, c.pageset1) {
		return "pageset1_copy_map overlaps pageset1_map"
	}
	if overlap(c.nosave, c.pageset1) || overlap(c.nosave, c.pageset2) || overlap(c.nosave, c.pageset1Copy) {
		return "nosave_map is not disjoint from the other sets"
	}
	return ""
}

func overlap(a, b *bitmap.Bitmap) bool {
	a.ResetIter()
	for p := a.Next(); p != hostmem.End; p = a.Next() {
		if b.Test(p) {
			return true
		}
	}
	return false
}
