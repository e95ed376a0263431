package atomiccopy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"toi/internal/bitmap"
	"toi/internal/defs"
	"toi/internal/hostmem"
)

func TestGoAtomicFullSuccessReachesPowerDown(t *testing.T) {
	h := NewHostExec()
	stage, err := GoAtomic(h, Options{Suspending: true, LateCPUHotplug: true})
	require.EqualValues(t, 0, err)
	require.Equal(t, StagePowerDown, stage)
}

// P7 (end_atomic fall-through): if go_atomic succeeds through step k, the
// corresponding rollback label in end_atomic undoes exactly steps
// k, k-1, ..., 1, in that order, with no step skipped or repeated.
func TestEndAtomicUndoesExactlyReachedSteps(t *testing.T) {
	cases := []struct {
		failAt Stage
		want   Stage // stage reached before failure
	}{
		{StageConsole, StagePlatformBegin},
		{StageDevicesPhase1, StageConsole},
		{StagePMLock, StageArchPrepare},
		{StageDevicesPhase2, StageIRQsOff},
		{StagePowerDown, StageDevicesPhase2},
	}
	for _, c := range cases {
		h := NewHostExec()
		h.FailAt = c.failAt
		opts := Options{Suspending: true, LateCPUHotplug: true}
		reached, err := GoAtomic(h, opts)
		require.NotZero(t, err)
		require.Equal(t, c.want, reached)

		EndAtomic(h, reached, opts)
		// Rolling back must never reach further than what was reached.
		require.LessOrEqual(t, len(h.RolledBack), len(h.Ran))
		// The failed step itself is the last entry of Ran; every step
		// before it is undone exactly once, newest first.
		var wantUndo []Stage
		for i := len(h.Ran) - 2; i >= 0; i-- {
			wantUndo = append(wantUndo, h.Ran[i])
		}
		require.Equal(t, wantUndo, h.RolledBack)
	}
}

func TestEndAtomicRollsBackEveryStepOnFullSuccess(t *testing.T) {
	h := NewHostExec()
	opts := Options{Suspending: true, LateCPUHotplug: true}
	reached, err := GoAtomic(h, opts)
	require.EqualValues(t, 0, err)
	require.Equal(t, StagePowerDown, reached)

	EndAtomic(h, reached, opts)
	require.Contains(t, h.RolledBack, StagePowerDown)
	require.Contains(t, h.RolledBack, StageDevicesPhase2)
	require.Contains(t, h.RolledBack, StageIRQsOff)
	require.Contains(t, h.RolledBack, StageCPUHotplug)
	require.Contains(t, h.RolledBack, StagePMLock)
	require.Contains(t, h.RolledBack, StageArchPrepare)
	require.Contains(t, h.RolledBack, StageDevicesPhase1)
	require.Contains(t, h.RolledBack, StageConsole)
	require.Contains(t, h.RolledBack, StagePlatformBegin)
}

func TestGoAtomicSkipsCPUHotplugWhenNotLate(t *testing.T) {
	h := NewHostExec()
	_, err := GoAtomic(h, Options{Suspending: true, LateCPUHotplug: false})
	require.EqualValues(t, 0, err)
	require.NotContains(t, h.Ran, StageCPUHotplug)
}

// P6 (atomic-copy equality): after copy_pageset1(), for every (src,dst)
// pair in lock-step enumeration of the two bitmaps, dst's bytes equal the
// bytes src held at invocation time.
func TestCopyPageset1CopiesByteForByte(t *testing.T) {
	arena := hostmem.NewArena(64, hostmem.DefaultPageSize)
	src := bitmap.New(nil, false)
	dst := bitmap.New(nil, true)

	rng := rand.New(rand.NewSource(7))
	var srcPfns, dstPfns []hostmem.PFN
	for i := 0; i < 10; i++ {
		srcPfns = append(srcPfns, hostmem.PFN(i))
		dstPfns = append(dstPfns, hostmem.PFN(32+i))
		src.Set(hostmem.PFN(i))
		dst.Set(hostmem.PFN(32 + i))
		rng.Read(arena.PageBytes(hostmem.PFN(i)))
	}
	expected := make(map[hostmem.PFN][]byte, len(srcPfns))
	for _, p := range srcPfns {
		expected[p] = append([]byte(nil), arena.PageBytes(p)...)
	}

	require.EqualValues(t, 0, CopyPageset1(arena, src, dst))

	for i, dp := range dstPfns {
		require.Equal(t, expected[srcPfns[i]], arena.PageBytes(dp))
	}
}

func TestCopyPageset1RejectsMismatchedSetSizes(t *testing.T) {
	arena := hostmem.NewArena(8, hostmem.DefaultPageSize)
	src := bitmap.New(nil, false)
	dst := bitmap.New(nil, true)
	src.Set(0)
	src.Set(1)
	dst.Set(4)

	require.EqualValues(t, -defs.EINVAL, CopyPageset1(arena, src, dst))
}
