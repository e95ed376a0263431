package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"toi/internal/blockdev"
	"toi/internal/defs"
)

type fakeSwap struct {
	dev       *blockdev.Device
	nextSlot  int64
	totalSlots int64
}

func (s *fakeSwap) GetSwapPage() (int, int64, bool) {
	if s.nextSlot >= s.totalSlots {
		return 0, 0, false
	}
	slot := s.nextSlot
	s.nextSlot++
	return 0, slot, true
}

func (s *fakeSwap) MapSwapPage(deviceID int, slot int64) int64 { return slot }
func (s *fakeSwap) Device(deviceID int) *blockdev.Device        { return s.dev }

func newFakeSwap(t *testing.T, totalSlots int64) *fakeSwap {
	t.Helper()
	dev, err := blockdev.Open(filepath.Join(t.TempDir(), "swap"), 4096)
	require.NoError(t, err)
	require.NoError(t, dev.Truncate(totalSlots))
	return &fakeSwap{dev: dev, totalSlots: totalSlots}
}

// P5 (storage allocator completeness).
func TestAllocateStorageMeetsCompletenessBound(t *testing.T) {
	src := newFakeSwap(t, 1000)
	a := New(src, 4096, 8)

	const requested = 100
	require.EqualValues(t, 0, a.AllocateStorage(requested))

	extra := ceildiv(requested*(sizeofUlong+sizeofInt), 4096)
	require.GreaterOrEqual(t, a.StorageAllocated(), requested+extra+8)
}

func TestAllocateStorageIsIdempotentOnRepeatWithinReservation(t *testing.T) {
	src := newFakeSwap(t, 1000)
	a := New(src, 4096, 8)
	require.EqualValues(t, 0, a.AllocateStorage(100))
	first := a.StorageAllocated()
	// Requesting the same or smaller amount again must not grow the
	// reservation (it's already covered).
	require.EqualValues(t, 0, a.AllocateStorage(50))
	require.Equal(t, first, a.StorageAllocated())
}

// Scenario C — reservation failure.
func TestAllocateStorageReturnsNoSpaceAndRollsBack(t *testing.T) {
	src := newFakeSwap(t, 100)
	a := New(src, 4096, 0)

	err := a.AllocateStorage(200)
	require.EqualValues(t, -defs.ENOSPC, err)
	require.EqualValues(t, 0, a.StorageAllocated())
	require.Nil(t, a.Chain(0))
}

func TestSignatureRoundTrips(t *testing.T) {
	buf := make([]byte, 4096)
	sig := Signature{DeviceID: 7, ResumeAttempted: true, HeaderSector: 12345}
	require.EqualValues(t, 0, EncodeSignature(buf, sig))

	got, res := DecodeSignature(buf)
	require.Equal(t, OursResumable, res)
	require.Equal(t, sig, got)
}

func TestSignatureRefusesSectorBeyond31Bits(t *testing.T) {
	buf := make([]byte, 4096)
	err := EncodeSignature(buf, Signature{HeaderSector: 1 << 31})
	require.EqualValues(t, -defs.EINVAL, err)
}

// Scenario D — foreign signature.
func TestDecodeSignatureRecognizesForeignHibernator(t *testing.T) {
	buf := make([]byte, 4096)
	copy(buf, "S1SUSPEND\x00")
	_, res := DecodeSignature(buf)
	require.Equal(t, Foreign, res)
}

func TestDecodeSignatureRecognizesPlainSwap(t *testing.T) {
	buf := make([]byte, 4096)
	copy(buf, swapMagic2)
	_, res := DecodeSignature(buf)
	require.Equal(t, PlainSwap, res)
}

func TestDecodeSignatureRecognizesNoSignature(t *testing.T) {
	buf := make([]byte, 4096)
	_, res := DecodeSignature(buf)
	require.Equal(t, NoSignature, res)
}

// Scenario E (partial) — remove_image restores the platform swap magic.
func TestRemoveImageRestoresSwapMagicThenImageExistsReportsPlainSwap(t *testing.T) {
	dev, err := blockdev.Open(filepath.Join(t.TempDir(), "resume"), 4096)
	require.NoError(t, err)
	require.NoError(t, dev.Truncate(1))

	buf := make([]byte, 4096)
	require.EqualValues(t, 0, EncodeSignature(buf, Signature{HeaderSector: 1}))
	require.EqualValues(t, 0, dev.WritePage(0, buf))

	require.EqualValues(t, 0, RemoveImage(dev, 4096))

	got := make([]byte, 4096)
	require.EqualValues(t, 0, dev.ReadPage(0, got))
	_, res := DecodeSignature(got)
	require.Equal(t, PlainSwap, res)
}
