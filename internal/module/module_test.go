package module

import (
	"testing"

	"github.com/stretchr/testify/require"

	"toi/internal/defs"
)

type fakeFilter struct {
	name string
	pct  int
}

func (f *fakeFilter) Name() string                  { return f.name }
func (f *fakeFilter) Kind() Kind                     { return FILTER }
func (f *fakeFilter) Initialise() defs.Err_t         { return 0 }
func (f *fakeFilter) Cleanup()                       {}
func (f *fakeFilter) MemoryNeeded() int              { return 0 }
func (f *fakeFilter) SaveConfigInfo(w []byte) int    { return 0 }
func (f *fakeFilter) LoadConfigInfo(r []byte)        {}
func (f *fakeFilter) PrintDebugInfo() string         { return f.name }
func (f *fakeFilter) WritePage(n int64, b []byte) defs.Err_t { return 0 }
func (f *fakeFilter) ReadPage(n int64, b []byte) defs.Err_t  { return 0 }
func (f *fakeFilter) ExpectedCompression() int       { return f.pct }

type fakeWriter struct{ name string }

func (w *fakeWriter) Name() string               { return w.name }
func (w *fakeWriter) Kind() Kind                 { return WRITER }
func (w *fakeWriter) Initialise() defs.Err_t     { return 0 }
func (w *fakeWriter) Cleanup()                   {}
func (w *fakeWriter) MemoryNeeded() int          { return 0 }
func (w *fakeWriter) SaveConfigInfo(b []byte) int { return 0 }
func (w *fakeWriter) LoadConfigInfo(b []byte)     {}
func (w *fakeWriter) PrintDebugInfo() string      { return w.name }
func (w *fakeWriter) StorageNeeded() int64        { return 0 }
func (w *fakeWriter) StorageAvailable() int64     { return 0 }
func (w *fakeWriter) StorageAllocated() int64     { return 0 }
func (w *fakeWriter) ReleaseStorage()             {}
func (w *fakeWriter) AllocateHeaderSpace(n int) defs.Err_t { return 0 }
func (w *fakeWriter) AllocateStorage(req int64) (int64, defs.Err_t) { return req, 0 }
func (w *fakeWriter) ImageExists() bool                    { return false }
func (w *fakeWriter) MarkResumeAttempted(bool)             {}
func (w *fakeWriter) RemoveImage() defs.Err_t              { return 0 }
func (w *fakeWriter) ParseSigLocation(string) defs.Err_t   { return 0 }
func (w *fakeWriter) WritePage(n int64, b []byte) defs.Err_t { return 0 }
func (w *fakeWriter) ReadPage(n int64, b []byte) defs.Err_t  { return 0 }
func (w *fakeWriter) RWInit(int, int) defs.Err_t           { return 0 }
func (w *fakeWriter) RWCleanup(int) defs.Err_t             { return 0 }
func (w *fakeWriter) RWHeaderChunk(int, []byte) defs.Err_t { return 0 }

func TestGetNextFilterWalksChainThenWriter(t *testing.T) {
	r := NewRegistry()
	a := &fakeFilter{name: "checksum", pct: 100}
	b := &fakeFilter{name: "compress", pct: 60}
	w := &fakeWriter{name: "swap"}

	r.RegisterFilter(a)
	r.RegisterFilter(b)
	require.NoError(t, r.RegisterWriter(w))

	require.Equal(t, Module(a), r.GetNextFilter(nil))
	require.Equal(t, Module(b), r.GetNextFilter(a))
	require.Equal(t, Module(w), r.GetNextFilter(b))
	require.Equal(t, 60, r.ExpectedCompression())
}

func TestRegisterWriterRejectsSecondActiveWriter(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterWriter(&fakeWriter{name: "first"}))
	require.Error(t, r.RegisterWriter(&fakeWriter{name: "second"}))
}

func TestGetNextFilterWithNoWriterReturnsNil(t *testing.T) {
	r := NewRegistry()
	f := &fakeFilter{name: "only", pct: 100}
	r.RegisterFilter(f)
	require.Nil(t, r.GetNextFilter(f))
}
