package atomiccopy

import "toi/internal/defs"

// HostExec is a host-process stand-in for Hooks: every step succeeds by
// default, records that it ran (and, on rollback, that it was undone), and
// can be configured to fail at a named step for exercising end_atomic's
// fallthrough rollback (P7).
type HostExec struct {
	FailAt Stage

	Ran      []Stage
	RolledBack []Stage

	Outcome SnapshotOutcome
}

// NewHostExec returns a HostExec where every step succeeds and
// ArchSnapshotJump reports Snapshotting.
func NewHostExec() *HostExec {
	return &HostExec{FailAt: StageNone, Outcome: Snapshotting}
}

func (h *HostExec) fails(s Stage) defs.Err_t {
	h.Ran = append(h.Ran, s)
	if h.FailAt == s {
		return -defs.EIO
	}
	return 0
}

func (h *HostExec) PlatformBegin() defs.Err_t        { return h.fails(StagePlatformBegin) }
func (h *HostExec) PlatformEnd()                     { h.RolledBack = append(h.RolledBack, StagePlatformBegin) }
func (h *HostExec) SuspendConsole() defs.Err_t        { return h.fails(StageConsole) }
func (h *HostExec) ResumeConsole()                    { h.RolledBack = append(h.RolledBack, StageConsole) }
func (h *HostExec) DevicesSuspendPhase1() defs.Err_t   { return h.fails(StageDevicesPhase1) }
func (h *HostExec) DevicesResumePhase1()               { h.RolledBack = append(h.RolledBack, StageDevicesPhase1) }
func (h *HostExec) ArchPrepare() defs.Err_t            { return h.fails(StageArchPrepare) }
func (h *HostExec) ArchUnprepare()                     { h.RolledBack = append(h.RolledBack, StageArchPrepare) }
func (h *HostExec) AcquirePMLock() defs.Err_t          { return h.fails(StagePMLock) }
func (h *HostExec) ReleasePMLock()                     { h.RolledBack = append(h.RolledBack, StagePMLock) }
func (h *HostExec) DisableNonbootCPUs() defs.Err_t     { return h.fails(StageCPUHotplug) }
func (h *HostExec) EnableNonbootCPUs()                 { h.RolledBack = append(h.RolledBack, StageCPUHotplug) }
func (h *HostExec) DisableLocalIRQs()                  { h.Ran = append(h.Ran, StageIRQsOff) }
func (h *HostExec) EnableLocalIRQs()                   { h.RolledBack = append(h.RolledBack, StageIRQsOff) }
func (h *HostExec) DevicesSuspendPhase2() defs.Err_t   { return h.fails(StageDevicesPhase2) }
func (h *HostExec) DevicesResumePhase2()               { h.RolledBack = append(h.RolledBack, StageDevicesPhase2) }
func (h *HostExec) DevicesPowerDown() defs.Err_t       { return h.fails(StagePowerDown) }
func (h *HostExec) DevicesPowerUp()                    { h.RolledBack = append(h.RolledBack, StagePowerDown) }
func (h *HostExec) SaveCPUContext()                    {}
func (h *HostExec) ArchSnapshotJump() SnapshotOutcome   { return h.Outcome }
func (h *HostExec) ArchResume()                        {}

var _ Hooks = (*HostExec)(nil)
