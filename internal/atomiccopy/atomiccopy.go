package atomiccopy

import "toi/internal/defs"

// Stage names the furthest entry step go_atomic reached — and so, on
// failure, the earliest rollback label end_atomic must start from. Stages
// are numbered in entry order so end_atomic's deliberate-fallthrough switch
// can walk backward from any Stage to StageNone.
type Stage int

const (
	StageNone Stage = iota
	StagePlatformBegin
	StageConsole
	StageDevicesPhase1
	StageArchPrepare
	StagePMLock
	StageCPUHotplug
	StageIRQsOff
	StageDevicesPhase2
	StagePowerDown // all nine steps completed; machine is quiescent
)

// Options configures one go_atomic/end_atomic cycle.
type Options struct {
	Suspending bool
	// LateCPUHotplug gates step 6 (§4.6: "only if the LATE_CPU_HOTPLUG
	// policy flag is set; otherwise this step has happened much earlier").
	LateCPUHotplug bool
}

// GoAtomic runs the nine-step entry sequence against hooks, stopping at the
// first failure. It returns the Stage actually reached (for end_atomic) and
// the step's error, or Stage=StagePowerDown and err=0 on full success.
func GoAtomic(hooks Hooks, opts Options) (Stage, defs.Err_t) {
	if opts.Suspending {
		if err := hooks.PlatformBegin(); err != 0 {
			return StageNone, err
		}
	}
	reached := StagePlatformBegin

	if err := hooks.SuspendConsole(); err != 0 {
		return reached, err
	}
	reached = StageConsole

	if err := hooks.DevicesSuspendPhase1(); err != 0 {
		return reached, err
	}
	reached = StageDevicesPhase1

	if opts.Suspending {
		if err := hooks.ArchPrepare(); err != 0 {
			return reached, err
		}
	}
	reached = StageArchPrepare

	if err := hooks.AcquirePMLock(); err != 0 {
		return reached, err
	}
	reached = StagePMLock

	if opts.LateCPUHotplug {
		if err := hooks.DisableNonbootCPUs(); err != 0 {
			return reached, err
		}
	}
	reached = StageCPUHotplug

	hooks.DisableLocalIRQs()
	reached = StageIRQsOff

	if err := hooks.DevicesSuspendPhase2(); err != 0 {
		return reached, err
	}
	reached = StageDevicesPhase2

	if err := hooks.DevicesPowerDown(); err != 0 {
		return reached, err
	}
	reached = StagePowerDown

	return reached, 0
}

// EndAtomic walks backward from reached to StageNone, undoing exactly the
// steps GoAtomic performed — no more, no less (P7) — via a deliberately
// fall-through switch, mirroring end_atomic(stage, suspending, err)'s shape
// in §4.6.
func EndAtomic(hooks Hooks, reached Stage, opts Options) {
	switch reached {
	case StagePowerDown:
		hooks.DevicesPowerUp()
		fallthrough
	case StageDevicesPhase2:
		hooks.DevicesResumePhase2()
		fallthrough
	case StageIRQsOff:
		hooks.EnableLocalIRQs()
		fallthrough
	case StageCPUHotplug:
		if opts.LateCPUHotplug {
			hooks.EnableNonbootCPUs()
		}
		fallthrough
	case StagePMLock:
		hooks.ReleasePMLock()
		fallthrough
	case StageArchPrepare:
		if opts.Suspending {
			hooks.ArchUnprepare()
		}
		fallthrough
	case StageDevicesPhase1:
		hooks.DevicesResumePhase1()
		fallthrough
	case StageConsole:
		hooks.ResumeConsole()
		fallthrough
	case StagePlatformBegin:
		if opts.Suspending {
			hooks.PlatformEnd()
		}
		fallthrough
	case StageNone:
		// nothing ran; nothing to undo.
	}
}
