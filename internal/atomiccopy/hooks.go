// Package atomiccopy implements the Atomic Copy Controller (§4.6):
// go_atomic's nine-step quiesce sequence with deliberate-fallthrough
// rollback in end_atomic, and copy_pageset1's lock-step, word-at-a-time
// page copy.
//
// The external collaborators go_atomic/end_atomic call (device suspend
// phases, platform hooks, PM lock, CPU hotplug, the architecture
// snapshot/restore pair) are modeled as a narrow interface here; the
// freezer is not part of Hooks. The interface comes with a
// host-process stand-in (hostexec) good enough to drive the state machine
// under test without pretending to run real device drivers — grounded on
// the teacher's pci.Disk_i pattern of naming hardware collaborators as
// small interfaces rather than concrete types.
package atomiccopy

import "toi/internal/defs"

// Hooks names every external collaborator go_atomic/end_atomic calls.
// The hooks take no arguments; GoAtomic and EndAtomic check
// Options.Suspending themselves before calling the ones that only run on
// the hibernate side.
type Hooks interface {
	PlatformBegin() defs.Err_t
	PlatformEnd()

	SuspendConsole() defs.Err_t
	ResumeConsole()

	DevicesSuspendPhase1() defs.Err_t
	DevicesResumePhase1()

	ArchPrepare() defs.Err_t
	ArchUnprepare()

	AcquirePMLock() defs.Err_t
	ReleasePMLock()

	DisableNonbootCPUs() defs.Err_t
	EnableNonbootCPUs()

	DisableLocalIRQs()
	EnableLocalIRQs()

	DevicesSuspendPhase2() defs.Err_t
	DevicesResumePhase2()

	DevicesPowerDown() defs.Err_t
	DevicesPowerUp()

	// SaveCPUContext normalizes preempt-count accounting; it has no
	// rollback of its own.
	SaveCPUContext()

	// ArchSnapshotJump is the control-flow-longjmp stand-in (§9): it
	// returns which side of the jump the engine is now on.
	ArchSnapshotJump() SnapshotOutcome

	// ArchResume never returns on the real hardware (control resumes at
	// the captured ArchSnapshotJump call); the host stand-in returns so
	// tests can observe it ran.
	ArchResume()
}

// SnapshotOutcome is the two-value dispatch the real architecture code
// makes via the saved register set after swsusp_arch_suspend/_resume
// return (§4.6, §9's "control-flow longjmp" design note).
type SnapshotOutcome int

const (
	// Snapshotting means the snapshot has just been taken; continue on
	// the hibernate side (next: write the image).
	Snapshotting SnapshotOutcome = iota
	// Resuming means the kernel has just been restored from disk;
	// continue on the resume side (next: copyback_post).
	Resuming
)
