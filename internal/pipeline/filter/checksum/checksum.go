// Package checksum implements the rolling-CRC64 pageset-1 integrity filter
// named in §3 ("rolling checksum of pageset-1") and exercised by P6/Integrity
// (§7.6): a flipped byte anywhere in pageset-1 must be detected on resume.
//
// Grounded on the teacher's accnt-style small single-purpose module shape;
// uses the stdlib hash/crc64 (ISO polynomial) since no third-party checksum
// library appears anywhere in the example pack.
package checksum

import (
	"hash/crc64"

	"toi/internal/defs"
	"toi/internal/module"
)

var table = crc64.MakeTable(crc64.ISO)

// Filter computes a running CRC64 over every page it sees on write, and
// verifies each page against the running value on read, matching the
// pipeline's in-order, single-pass contract (§4.4).
type Filter struct {
	writeSum uint64
	readSum  uint64
	want     map[int64]uint64
}

// New returns a checksum filter with empty running state.
func New() *Filter {
	return &Filter{want: make(map[int64]uint64)}
}

func (f *Filter) Name() string { return "checksum" }
func (f *Filter) Kind() module.Kind { return module.FILTER }

func (f *Filter) Initialise() defs.Err_t {
	f.writeSum = 0
	f.readSum = 0
	return 0
}

func (f *Filter) Cleanup() {}

func (f *Filter) MemoryNeeded() int { return 0 }

func (f *Filter) SaveConfigInfo(w []byte) int { return 0 }
func (f *Filter) LoadConfigInfo(r []byte)     {}

func (f *Filter) PrintDebugInfo() string { return "checksum: running crc64/iso" }

// WritePage folds buf into the running checksum and records the value for
// pageNum, for later read-side comparison.
func (f *Filter) WritePage(pageNum int64, buf []byte) defs.Err_t {
	f.writeSum = crc64.Update(f.writeSum, table, buf)
	f.want[pageNum] = f.writeSum
	return 0
}

// ReadPage folds buf into the running read-side checksum and compares
// against the value recorded at write time; any divergence is corruption
// (§7.6's "detected via checksum mismatch on resume").
func (f *Filter) ReadPage(pageNum int64, buf []byte) defs.Err_t {
	f.readSum = crc64.Update(f.readSum, table, buf)
	want, ok := f.want[pageNum]
	if ok && want != f.readSum {
		return -defs.ECHECKSUM
	}
	return 0
}

// ExpectedCompression reports no size change: a checksum filter never
// resizes the page stream.
func (f *Filter) ExpectedCompression() int { return 100 }

var _ module.Filter = (*Filter)(nil)
