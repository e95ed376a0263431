// Package debugprofile turns one hibernation/resume cycle's
// internal/ioacct timings into a github.com/google/pprof/profile.Profile,
// the "debug profile" C8 names (§2, §6's `toictl debug profile`
// subcommand).
//
// Grounded on the pack's only consumer of google/pprof (the teacher's
// go.mod pulls it in transitively for its own profiling hooks); this
// package is the first thing in this repo to actually build a *Profile by
// hand rather than merely parsing one, modeled on profile.Profile's own
// documented field shape in the vendored copy of the package.
package debugprofile

import (
	"io"

	"github.com/google/pprof/profile"

	"toi/internal/ioacct"
)

// stepNames is the fixed set of "function" labels this package samples,
// one per internal/ioacct accumulator.
var stepNames = []string{"page_io", "header_io", "atomic_copy", "other"}

// Build renders snap as a single-sample-per-step pprof profile: one
// synthetic call stack per named step, its nanosecond total as the sample
// value, so `go tool pprof -top` shows exactly where a cycle spent its
// time.
func Build(snap ioacct.Snapshot) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "nanoseconds", Unit: "nanoseconds"}},
		PeriodType: &profile.ValueType{Type: "cycle", Unit: "nanoseconds"},
		Period:     1,
	}

	values := []int64{snap.PageIONs, snap.HeaderIONs, snap.AtomicCopyNs, snap.OtherNs}

	for i, name := range stepNames {
		fn := &profile.Function{ID: uint64(i + 1), Name: name, SystemName: name}
		loc := &profile.Location{ID: uint64(i + 1), Line: []profile.Line{{Function: fn, Line: 1}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{values[i]},
			Label:    map[string][]string{"step": {name}},
		})
	}
	return p
}

// Write renders snap's profile in pprof's gzip-compressed protobuf
// encoding to w, the format `go tool pprof` reads directly.
func Write(w io.Writer, snap ioacct.Snapshot) error {
	return Build(snap).Write(w)
}
