// Package compress implements the pipeline's compression filter via
// klauspost/compress/flate, falling back to a stored (uncompressed) block
// whenever compression would not shrink the page, matching §4.4's
// "negotiation" note.
package compress

import (
	"bytes"
	"io"
	"strconv"
	"sync"

	"github.com/klauspost/compress/flate"

	"toi/internal/defs"
	"toi/internal/module"
)

type pageState struct {
	compressed bool
	length     int
}

// Filter compresses each page independently (pageset-1 pages must decode
// without needing neighbors, since recalculation can resave a page out of
// the original stream order). Per-page compressed/stored state is kept
// out-of-band rather than embedded in the page bytes, so a page's full
// PageSize stays available to the compressor.
type Filter struct {
	level int

	mu      sync.Mutex
	state   map[int64]pageState
	totalIn, totalOut int64
}

// New returns a compress filter at the given flate level (flate.DefaultCompression if 0).
func New(level int) *Filter {
	if level == 0 {
		level = flate.DefaultCompression
	}
	return &Filter{level: level, state: make(map[int64]pageState)}
}

func (f *Filter) Name() string      { return "compress" }
func (f *Filter) Kind() module.Kind { return module.FILTER }

func (f *Filter) Initialise() defs.Err_t {
	f.totalIn, f.totalOut = 0, 0
	f.state = make(map[int64]pageState)
	return 0
}

func (f *Filter) Cleanup() {}

func (f *Filter) MemoryNeeded() int { return 64 * 1024 }

func (f *Filter) SaveConfigInfo(w []byte) int { return 0 }
func (f *Filter) LoadConfigInfo(r []byte)     {}

func (f *Filter) PrintDebugInfo() string {
	return "compress: flate level " + strconv.Itoa(f.level)
}

// WritePage compresses buf in place when the result is smaller, zero-padding
// the remainder; otherwise buf is left untouched. Either way the page stays
// exactly len(buf) bytes, as the pipeline contract requires.
func (f *Filter) WritePage(pageNum int64, buf []byte) defs.Err_t {
	var out bytes.Buffer
	zw, err := flate.NewWriter(&out, f.level)
	if err != nil {
		return -defs.EIO
	}
	if _, err := zw.Write(buf); err != nil {
		return -defs.EIO
	}
	if err := zw.Close(); err != nil {
		return -defs.EIO
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalIn += int64(len(buf))

	if out.Len() < len(buf) {
		n := copy(buf, out.Bytes())
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		f.state[pageNum] = pageState{compressed: true, length: n}
		f.totalOut += int64(n)
		return 0
	}

	f.state[pageNum] = pageState{compressed: false}
	f.totalOut += int64(len(buf))
	return 0
}

// ReadPage reverses WritePage: decompresses buf[:length] in place when
// pageNum's recorded state says it was compressed, leaves buf untouched
// when it was stored verbatim.
func (f *Filter) ReadPage(pageNum int64, buf []byte) defs.Err_t {
	f.mu.Lock()
	st, ok := f.state[pageNum]
	f.mu.Unlock()
	if !ok || !st.compressed {
		return 0
	}

	zr := flate.NewReader(bytes.NewReader(buf[:st.length]))
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	if err != nil {
		return -defs.EIO
	}
	copy(buf, decoded)
	return 0
}

// ExpectedCompression reports the observed output size as a percentage of
// the input size, defaulting to an optimistic 70% until the first page has
// been written.
func (f *Filter) ExpectedCompression() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totalIn == 0 {
		return 70
	}
	return int(f.totalOut * 100 / f.totalIn)
}

var _ module.Filter = (*Filter)(nil)
