package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressRoundTripsCompressiblePage(t *testing.T) {
	f := New(0)
	require.EqualValues(t, 0, f.Initialise())

	page := bytes.Repeat([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), 128) // 4096 bytes, highly compressible
	orig := append([]byte(nil), page...)

	require.EqualValues(t, 0, f.WritePage(0, page))
	require.EqualValues(t, 0, f.ReadPage(0, page))
	require.Equal(t, orig, page)
}

func TestCompressFallsBackToStoredOnIncompressibleData(t *testing.T) {
	f := New(0)
	require.EqualValues(t, 0, f.Initialise())

	page := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(page)
	orig := append([]byte(nil), page...)

	require.EqualValues(t, 0, f.WritePage(0, page))
	require.Equal(t, orig, page) // stored verbatim, untouched
	require.EqualValues(t, 0, f.ReadPage(0, page))
	require.Equal(t, orig, page)
}

func TestExpectedCompressionReflectsObservedRatio(t *testing.T) {
	f := New(0)
	require.Equal(t, 70, f.ExpectedCompression())

	page := bytes.Repeat([]byte{0}, 4096)
	require.EqualValues(t, 0, f.WritePage(0, page))
	require.Less(t, f.ExpectedCompression(), 100)
}
