package blockdev

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceWriteReadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap0")
	d, err := Open(path, 4096)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Truncate(8))
	n, err := d.NumSlots()
	require.NoError(t, err)
	require.EqualValues(t, 8, n)

	page := bytes.Repeat([]byte{0x5a}, 4096)
	require.EqualValues(t, 0, d.WritePage(3, page))

	got := make([]byte, 4096)
	require.EqualValues(t, 0, d.ReadPage(3, got))
	require.Equal(t, page, got)
	require.EqualValues(t, 0, d.Sync())
}

func TestDeviceRejectsWrongSizedBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swap1")
	d, err := Open(path, 4096)
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Truncate(1))

	require.NotEqualValues(t, 0, d.WritePage(0, make([]byte, 100)))
	require.NotEqualValues(t, 0, d.ReadPage(0, make([]byte, 100)))
}
