// Package engine implements the High-Level Cycle Controller (§4.7): the
// single gathered-state object §9's "Global mutable state" note calls for,
// tying internal/classify, internal/module, internal/storage,
// internal/atomiccopy, internal/header and internal/ioacct together behind
// two entry points, Hibernate and Resume.
//
// Grounded on the teacher's proc.Proc_t pattern of one struct holding every
// piece of per-cycle state reached by name (page tables, open files, thread
// list) rather than scattered package globals; logging follows the ambient
// style other_examples shows for a CLI-driven daemon,
// github.com/sirupsen/logrus with structured fields.
package engine

import (
	"bytes"
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"toi/internal/atomiccopy"
	"toi/internal/bitmap"
	"toi/internal/classify"
	"toi/internal/defs"
	"toi/internal/header"
	"toi/internal/hostmem"
	"toi/internal/ioacct"
	"toi/internal/module"
	"toi/internal/pbe"
	"toi/internal/storage"
)

// ioWorkerLimit bounds the pageset I/O worker pool §5 calls for ("kernel
// threads it explicitly spawns, e.g. I/O workers"). Only the positional
// device read/write is fanned out across workers; filter application stays
// strictly sequential in index order on the calling goroutine, since
// checksum's rolling sum (and any other stateful filter) depends on it
// (§5 "the pipeline is deliberately synchronous per page").
const ioWorkerLimit = 4

// pbeEntryBytes is the nominal on-the-wire size of one pbe.Entry (an
// orig PFN plus a copy-slot PFN, §3's PBE triple minus the "next" link
// the arena design note replaces with array adjacency), used only to size
// pbe.NewArena's perPage grouping against the host arena's page size.
const pbeEntryBytes = 16

// State is the toi_state bitfield (§4.7, §9): phase-gating flags the
// controller consults before taking a step, kept separate from the
// outward-facing defs.Result so a caller can poll "what phase are we in"
// without the failure-annotation bits mixed in.
type State uint32

const (
	// StateResuming is set for the duration of a Resume cycle and clear
	// for Hibernate, disambiguating guards shared by both paths.
	StateResuming State = 1 << iota
	// StateFreezerTest marks a hibernate cycle that must stop right after
	// PrepareImage succeeds, without ever writing or powering down
	// (§6's freezer_test option; Scenario A).
	StateFreezerTest
	// StateCanResume is set once STEP_CAN_RESUME has positively identified
	// a resumable image.
	StateCanResume
	// StateImageSaved is set once STEP_SAVE_IMAGE has completed.
	StateImageSaved
)

// Policy gathers the CLI/config-surface knobs the controller's guard
// conditions consult (§6). internal/config builds one of these from parsed
// TOML and command-line flags.
type Policy struct {
	ImageSizeLimit      int64
	NoPageset2          bool
	FullPageset2        bool
	KeepImage           bool
	LateCPUHotplug      bool
	ExtraPagesAllowance int
	MaxShrinkRetries    int
	FreezerTest         bool
	Reboot              bool
	IgnoreRootfs        bool
	RootDevice          uint64
	// NoMultithreadedIO forces writePagesetAt/loadPagesetDirect/
	// loadPageset1ToScratch's device I/O onto the calling goroutine instead
	// of the errgroup-backed worker pool (§6's no_multithreaded_io option).
	NoMultithreadedIO bool
}

// Engine is the gathered per-cycle state object: every subsystem the cycle
// controller drives, plus the result/state bitfields and accounting that
// outlive any single do_step call.
type Engine struct {
	Arena    *hostmem.Arena
	Registry *module.Registry
	Classify *classify.Classifier
	Storage  *storage.Allocator
	Hooks    atomiccopy.Hooks
	Acct     *ioacct.Acct
	Policy   Policy

	log *logrus.Entry

	mu     sync.Mutex
	state  State
	result defs.Result

	reachedStage atomiccopy.Stage
	header       header.Record

	// pbeArena is the Page Backup Entry list (§3, §9): built by
	// loadPageset1ToScratch (STEP_LOAD_PS1) and consumed by restorePBE
	// (STEP_DO_RESTORE), then reset. It is the sole piece of state the
	// resume path carries from "scratch loaded" to "originals patched".
	pbeArena *pbe.Arena
}

// New assembles an Engine from its already-constructed collaborators. log
// may be nil, in which case a standalone logrus.New().WithField entry is
// used (mirroring the teacher's "nil logger means build a default one"
// convention). acct may be nil too, in which case a fresh ioacct.Acct is
// used.
func New(arena *hostmem.Arena, reg *module.Registry, cls *classify.Classifier, alloc *storage.Allocator, hooks atomiccopy.Hooks, acct *ioacct.Acct, policy Policy, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	if acct == nil {
		acct = &ioacct.Acct{}
	}
	perPage := arena.PageSize() / pbeEntryBytes
	if perPage <= 0 {
		perPage = 1
	}
	return &Engine{
		Arena:    arena,
		Registry: reg,
		Classify: cls,
		Storage:  alloc,
		Hooks:    hooks,
		Acct:     acct,
		Policy:   policy,
		log:      log.WithField("component", "engine"),
		pbeArena: pbe.NewArena(perPage),
	}
}

// Result returns the accumulated toi_result bitfield (§6).
func (e *Engine) Result() defs.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// State returns the current toi_state bitfield.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// setAbortResult ORs bits into result and always sets ABORTED, mirroring
// set_abort_result()'s "any individual failure also means the whole cycle
// aborted" contract (§7).
func (e *Engine) setAbortResult(bits defs.Result) {
	e.mu.Lock()
	e.result |= bits | defs.ABORTED
	e.mu.Unlock()
}

func (e *Engine) setState(bits State) {
	e.mu.Lock()
	e.state |= bits
	e.mu.Unlock()
}

func (e *Engine) clearState(bits State) {
	e.mu.Lock()
	e.state &^= bits
	e.mu.Unlock()
}

func (e *Engine) hasState(bits State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state&bits == bits
}

// canHibernate is STEP_PREPARE_IMAGE's guard (§4.7): refuses to start a
// cycle with no writer registered or no storage headroom at all
// (ImageSizeLimit of -2 or below; -1 means no limit).
func (e *Engine) canHibernate() defs.Err_t {
	if e.Registry.Writer() == nil {
		return -defs.EINVAL
	}
	if e.Policy.ImageSizeLimit < -1 {
		return -defs.EINVAL
	}
	return 0
}

// doStep dispatches one do_step(step) transition (§4.7), returning the
// step's defs.Err_t. Callers (Hibernate/Resume) chain steps and stop at the
// first failure, recording it via setAbortResult.
func (e *Engine) doStep(ctx context.Context, step Step) defs.Err_t {
	logf := e.log.WithField("step", step.String())
	logf.Debug("entering step")

	switch step {
	case StepPrepareImage:
		if err := e.canHibernate(); err != 0 {
			logf.WithField("toi_result", e.Result().String()).Warn("cannot hibernate")
			return err
		}
		start := e.Acct.Now()
		err := e.Classify.PrepareImage()
		ioacct.Since(start, e.Acct.AddOther)
		return err

	case StepSaveImage:
		return e.saveImage(ctx)

	case StepPowerdown:
		// The atomic snapshot (go_atomic/CopyPageset1) already ran inside
		// STEP_SAVE_IMAGE, per §2's data flow ("C6 atomically copies
		// pageset-1 ... → C7 streams ... → writes header → power off").
		// STEP_POWERDOWN itself is just §4.7's "alternative image? platform
		// power-off/reboot" — the real platform shutdown is the device
		// power API §1 names as an out-of-scope external collaborator, so
		// there is nothing left for this step to drive.
		if e.Policy.KeepImage {
			e.setState(StateImageSaved)
		}
		return 0

	case StepCanResume:
		writer := e.Registry.Writer()
		if writer == nil || !writer.ImageExists() {
			return -defs.EINVAL
		}
		e.setState(StateCanResume)
		return 0

	case StepLoadPS1:
		return e.loadImageForResume()

	case StepDoRestore:
		atomicOpts := atomiccopy.Options{Suspending: false, LateCPUHotplug: e.Policy.LateCPUHotplug}
		reached, err := atomiccopy.GoAtomic(e.Hooks, atomicOpts)
		e.reachedStage = reached
		if err == 0 {
			e.Hooks.SaveCPUContext()
			e.Hooks.ArchResume()
			err = e.restorePBE()
		}
		atomiccopy.EndAtomic(e.Hooks, reached, atomicOpts)
		return err

	case StepAltImage:
		writer := e.Registry.Writer()
		if writer == nil {
			return -defs.EINVAL
		}
		return writer.RemoveImage()

	default:
		return -defs.EINVAL
	}
}

// saveImage implements STEP_SAVE_IMAGE's literal §4.7 sequence: "pipeline
// pageset-2 out, atomic copy, pipeline pageset-1-copy out, write header".
// Pageset-2 is streamed directly off live memory first (it is already
// quiescent once the freezer has run); only then does the engine go atomic
// to capture pageset-1 into its scratch copy, release the atomic region
// again (real I/O needs working devices), and stream the *copy* — never
// the live pageset-1 pages — through the pipeline. The two streams share
// one dense index space on the writer (pageset-2 first, pageset-1-copy
// continuing from its count), matching §6's "each stream is logically a
// sequence of <index, size, payload>" against a single-region writer.
func (e *Engine) saveImage(ctx context.Context) defs.Err_t {
	start := e.Acct.Now()
	defer ioacct.Since(start, e.Acct.AddPageIO)

	ps2Count := e.Classify.Pageset2().Count()
	if err := e.writePagesetAt(e.Classify.Pageset2(), 0); err != 0 {
		return err
	}

	atomicOpts := atomiccopy.Options{Suspending: true, LateCPUHotplug: e.Policy.LateCPUHotplug}
	reached, err := atomiccopy.GoAtomic(e.Hooks, atomicOpts)
	e.reachedStage = reached
	if err != 0 {
		atomiccopy.EndAtomic(e.Hooks, reached, atomicOpts)
		e.setAbortResult(resultForAtomicFailure(reached))
		return err
	}

	// Recalculate(tight) is §4.3's "used once under atomic conditions to
	// catch pages dirtied late": it must run inside the quiesced window
	// GoAtomic just entered, before CopyPageset1 captures pageset-1.
	if err := e.Classify.Recalculate(true); err != 0 {
		atomiccopy.EndAtomic(e.Hooks, reached, atomicOpts)
		e.setAbortResult(defs.EXTRA_PAGES_ALLOW_TOO_SMALL)
		return err
	}

	if err := atomiccopy.CopyPageset1(e.Arena, e.Classify.Pageset1(), e.Classify.Pageset1Copy()); err != 0 {
		atomiccopy.EndAtomic(e.Hooks, reached, atomicOpts)
		e.setAbortResult(defs.PRE_SNAPSHOT_FAILED)
		return err
	}

	atomiccopy.EndAtomic(e.Hooks, reached, atomicOpts)

	if err := e.writePagesetAt(e.Classify.Pageset1Copy(), int64(ps2Count)); err != 0 {
		return err
	}

	writer := e.Registry.Writer()
	if writer == nil {
		return -defs.EINVAL
	}

	hstart := e.Acct.Now()
	rec := header.Record{
		PhysPages:    uint64(e.Arena.NumPages()),
		PageSize:     uint32(e.Arena.PageSize()),
		Pageset2Size: uint64(ps2Count),
		Policy: [6]int64{
			e.Policy.ImageSizeLimit,
			boolToInt(e.Policy.FullPageset2),
			boolToInt(e.Policy.NoPageset2),
			boolToInt(e.Policy.KeepImage),
			boolToInt(e.Policy.LateCPUHotplug),
			int64(e.Policy.ExtraPagesAllowance),
		},
		IO:         e.Acct.Fetch(),
		RootDevice: e.Policy.RootDevice,
	}
	e.header = rec

	var buf bytes.Buffer
	if err := header.Encode(&buf, rec); err != nil {
		return -defs.EIO
	}
	if err := writer.RWHeaderChunk(1, buf.Bytes()); err != 0 {
		ioacct.Since(hstart, e.Acct.AddHeaderIO)
		return err
	}
	ioacct.Since(hstart, e.Acct.AddHeaderIO)

	e.setState(StateImageSaved)
	return 0
}

// writeJob is one page queued for the writer module after its filter chain
// has already run, in strict index order, on the calling goroutine.
type writeJob struct {
	pageNum int64
	buf     []byte
}

// filterChain walks the registry's chain-of-custody primitive,
// Registry.GetNextFilter (§4.4: "get_next_filter(me) returns the downstream
// neighbor of me, or the active writer when me is the last filter"),
// collecting every Filter it passes through before landing on the active
// Writer (or nil). This is the real per-page dispatch path — not a
// registration-order slice copy — so the pipeline-ordering invariant
// GetNextFilter encodes is the thing write/read actually walk.
func (e *Engine) filterChain() []module.Filter {
	var chain []module.Filter
	cur := e.Registry.GetNextFilter(nil)
	for {
		f, ok := cur.(module.Filter)
		if !ok {
			return chain
		}
		chain = append(chain, f)
		cur = e.Registry.GetNextFilter(f)
	}
}

// writePagesetAt pushes every page in bm through filterChain() (in chain
// order, strictly sequential) and then fans the resulting buffers out to
// the active writer, numbering pages base, base+1, ... in bm's enumeration
// order. base lets two bitmaps share one writer's dense index space
// (§6: pageset-2's stream followed by pageset-1-copy's). The writer calls
// themselves are positional (§4.5's swap writer addresses a page by
// headerPages+pageNum directly) so §5's "I/O workers" can run them
// concurrently without disturbing the index-ordering guarantee §5 names
// for the stream itself.
func (e *Engine) writePagesetAt(bm *bitmap.Bitmap, base int64) defs.Err_t {
	writer := e.Registry.Writer()
	if writer == nil {
		return -defs.EINVAL
	}
	filters := e.filterChain()

	bm.ResetIter()
	var jobs []writeJob
	var pageNum int64
	for p := bm.Next(); p != hostmem.End; p = bm.Next() {
		buf := append([]byte(nil), e.Arena.PageBytes(p)...)
		for _, f := range filters {
			if err := f.WritePage(base+pageNum, buf); err != 0 {
				return err
			}
		}
		jobs = append(jobs, writeJob{pageNum: base + pageNum, buf: buf})
		pageNum++
	}
	return e.dispatchWrites(writer, jobs)
}

func (e *Engine) dispatchWrites(writer module.Writer, jobs []writeJob) defs.Err_t {
	if e.Policy.NoMultithreadedIO || len(jobs) < 2 {
		for _, j := range jobs {
			if err := writer.WritePage(j.pageNum, j.buf); err != 0 {
				return err
			}
		}
		return 0
	}

	g := new(errgroup.Group)
	g.SetLimit(ioWorkerLimit)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := writer.WritePage(j.pageNum, j.buf); err != 0 {
				return err
			}
			return nil
		})
	}
	return errgroupErr(g.Wait())
}

// loadImageForResume implements STEP_LOAD_PS1's full §2 resume-side data
// flow up to (but not including) the restore trampoline itself: "pageset-2
// is streamed in over live memory" first, since it never went through the
// atomic copy and can be written straight back to its original PFNs; then
// "C6 loads pageset1's copy into a scratch region" and "the PBE list is
// built" — loadPageset1ToScratch reads pageset-1's stream into
// pageset1_copy_map's PFNs (never the live originals, which STEP_DO_RESTORE
// hasn't patched yet) and records each (orig, copy) pair.
func (e *Engine) loadImageForResume() defs.Err_t {
	ps2Count := e.Classify.Pageset2().Count()
	if err := e.loadPagesetDirect(e.Classify.Pageset2(), 0); err != 0 {
		return err
	}
	return e.loadPageset1ToScratch(int64(ps2Count))
}

// loadPagesetDirect reads base.. back from the writer, in bm's enumeration
// order, runs filterChain() in reverse, and copies straight into bm's own
// PFNs — the pageset-2 case, which was never routed through the atomic
// copy and so has no scratch/original distinction to preserve.
func (e *Engine) loadPagesetDirect(bm *bitmap.Bitmap, base int64) defs.Err_t {
	writer := e.Registry.Writer()
	if writer == nil {
		return -defs.EINVAL
	}
	filters := e.filterChain()

	bm.ResetIter()
	var pfns []hostmem.PFN
	for p := bm.Next(); p != hostmem.End; p = bm.Next() {
		pfns = append(pfns, p)
	}

	raw, err := e.prefetchReads(writer, len(pfns), base)
	if err != 0 {
		return err
	}

	for i, p := range pfns {
		buf := raw[i]
		for j := len(filters) - 1; j >= 0; j-- {
			if err := filters[j].ReadPage(base+int64(i), buf); err != 0 {
				return err
			}
		}
		copy(e.Arena.PageBytes(p), buf)
	}
	return 0
}

// loadPageset1ToScratch reads pageset-1's stream into pageset1_copy_map's
// scratch PFNs (enumerated in the same ascending order CopyPageset1 paired
// them against pageset1_map during the hibernate side's atomic copy) and
// builds one pbe.Entry per page: {OrigPFN: the live pageset-1 location,
// CopySlot: the scratch page that now holds its bytes}. Nothing touches an
// original location here — that is STEP_DO_RESTORE's restorePBE, run only
// once the resume side has gone atomic.
func (e *Engine) loadPageset1ToScratch(base int64) defs.Err_t {
	writer := e.Registry.Writer()
	if writer == nil {
		return -defs.EINVAL
	}
	filters := e.filterChain()

	orig := e.Classify.Pageset1()
	scratch := e.Classify.Pageset1Copy()

	orig.ResetIter()
	var origPFNs []hostmem.PFN
	for p := orig.Next(); p != hostmem.End; p = orig.Next() {
		origPFNs = append(origPFNs, p)
	}
	scratch.ResetIter()
	var scratchPFNs []hostmem.PFN
	for p := scratch.Next(); p != hostmem.End; p = scratch.Next() {
		scratchPFNs = append(scratchPFNs, p)
	}
	if len(origPFNs) != len(scratchPFNs) {
		return -defs.EINVAL // |pageset1_map| != |pageset1_copy_map|
	}

	raw, err := e.prefetchReads(writer, len(scratchPFNs), base)
	if err != 0 {
		return err
	}

	e.pbeArena.Reset()
	for i, scratchPFN := range scratchPFNs {
		buf := raw[i]
		for j := len(filters) - 1; j >= 0; j-- {
			if err := filters[j].ReadPage(base+int64(i), buf); err != 0 {
				return err
			}
		}
		copy(e.Arena.PageBytes(scratchPFN), buf)
		e.pbeArena.AddLowmem(origPFNs[i], int(scratchPFN))
	}
	return 0
}

// restorePBE is the restore trampoline §3/§9 describe: walk the PBE list
// loadPageset1ToScratch built and overwrite every original location from
// its scratch copy. The real kernel does this in assembly with a stack
// living outside pageset-1 (§4.6); the hosted stand-in is a plain copy
// since nothing here runs inside the pages being overwritten. Per §3's
// lifecycle ("PBE lists exist only ... until ... a successful atomic
// restore"), the arena is emptied once every entry has been applied.
func (e *Engine) restorePBE() defs.Err_t {
	for _, entry := range e.pbeArena.Lowmem() {
		copy(e.Arena.PageBytes(entry.OrigPFN), e.Arena.PageBytes(hostmem.PFN(entry.CopySlot)))
	}
	for _, entry := range e.pbeArena.Highmem() {
		copy(e.Arena.PageBytes(entry.OrigPFN), e.Arena.PageBytes(hostmem.PFN(entry.CopySlot)))
	}
	e.pbeArena.Reset()
	return 0
}

func (e *Engine) prefetchReads(writer module.Writer, n int, base int64) ([][]byte, defs.Err_t) {
	raw := make([][]byte, n)
	if e.Policy.NoMultithreadedIO || n < 2 {
		for i := 0; i < n; i++ {
			buf := make([]byte, e.Arena.PageSize())
			if err := writer.ReadPage(base+int64(i), buf); err != 0 {
				return nil, err
			}
			raw[i] = buf
		}
		return raw, 0
	}

	g := new(errgroup.Group)
	g.SetLimit(ioWorkerLimit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			buf := make([]byte, e.Arena.PageSize())
			if err := writer.ReadPage(base+int64(i), buf); err != 0 {
				return err
			}
			raw[i] = buf
			return nil
		})
	}
	if err := errgroupErr(g.Wait()); err != 0 {
		return nil, err
	}
	return raw, 0
}

// errgroupErr unwraps an errgroup.Group.Wait() result back into the
// defs.Err_t a caller returned from inside a worker, defaulting to a bare
// I/O failure if something else produced the error.
func errgroupErr(err error) defs.Err_t {
	if err == nil {
		return 0
	}
	if e, ok := err.(defs.Err_t); ok {
		return e
	}
	return -defs.EIO
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Hibernate runs the hibernate-side cycle (§4.7): PREPARE_IMAGE,
// SAVE_IMAGE, then POWERDOWN unless FreezerTest stops it right after
// preparation (Scenario A) or KeepImage substitutes a no-op powerdown.
func (e *Engine) Hibernate(ctx context.Context) defs.Result {
	e.clearState(StateResuming)
	if e.Policy.FreezerTest {
		e.setState(StateFreezerTest)
	}

	if err := e.doStep(ctx, StepPrepareImage); err != 0 {
		e.setAbortResult(resultForPrepareFailure(err))
		return e.Result()
	}

	if e.hasState(StateFreezerTest) {
		e.log.Info("freezer test: stopping after successful prepare")
		return e.Result()
	}

	if err := e.doStep(ctx, StepSaveImage); err != 0 {
		// saveImage already records a precise bit for atomic-phase failures
		// (GoAtomic, Recalculate, CopyPageset1); anything else is a plain
		// pipeline/header I/O failure that never touched setAbortResult.
		if !e.Result().Has(defs.ABORTED) {
			e.setAbortResult(defs.FAILED_IO)
		}
		return e.Result()
	}

	if err := e.doStep(ctx, StepPowerdown); err != 0 {
		e.setAbortResult(defs.CANT_SUSPEND)
		return e.Result()
	}

	if e.Policy.KeepImage {
		e.setAbortResult(defs.KEPT_IMAGE)
	}
	return e.Result()
}

// Resume runs the resume-side cycle (§4.7): CAN_RESUME, then either
// LOAD_PS1 + DO_RESTORE, or ALT_IMAGE when the caller has asked to discard
// a foreign/unwanted image instead of restoring it.
func (e *Engine) Resume(ctx context.Context, altImage bool) defs.Result {
	e.setState(StateResuming)

	if err := e.doStep(ctx, StepCanResume); err != 0 {
		e.setAbortResult(defs.ABORTED)
		return e.Result()
	}

	if altImage {
		if err := e.doStep(ctx, StepAltImage); err != 0 {
			e.setAbortResult(defs.FAILED_IO)
		}
		return e.Result()
	}

	if err := e.doStep(ctx, StepLoadPS1); err != 0 {
		e.setAbortResult(defs.FAILED_IO)
		return e.Result()
	}

	if err := e.doStep(ctx, StepDoRestore); err != 0 {
		e.setAbortResult(defs.PRE_RESTORE_FAILED)
		return e.Result()
	}

	return e.Result()
}

func resultForPrepareFailure(err defs.Err_t) defs.Result {
	if err == -defs.ENOMEM {
		return defs.EXTRA_PAGES_ALLOW_TOO_SMALL
	}
	return defs.PRE_SNAPSHOT_FAILED
}

// resultForAtomicFailure maps the go_atomic step that failed (the one after
// the furthest stage reached) to the §6 result bit §7.3's "cooperation
// refusal" taxonomy names for it. Used by saveImage when the hibernate-side
// atomic region (run inside STEP_SAVE_IMAGE, ahead of CopyPageset1) fails
// partway through.
func resultForAtomicFailure(reached atomiccopy.Stage) defs.Result {
	switch reached + 1 {
	case atomiccopy.StagePlatformBegin, atomiccopy.StageConsole:
		return defs.PLATFORM_PREP_FAILED
	case atomiccopy.StageDevicesPhase1, atomiccopy.StagePowerDown:
		return defs.DEVICE_REFUSED
	case atomiccopy.StageArchPrepare:
		return defs.ARCH_PREPARE_FAILED
	case atomiccopy.StageCPUHotplug:
		return defs.CPU_HOTPLUG_FAILED
	case atomiccopy.StageDevicesPhase2:
		return defs.SYSDEV_REFUSED
	default:
		return defs.CANT_SUSPEND
	}
}
