// Package storage implements the swap-variant Storage Allocator (§4.5): a
// reservation algorithm over one or more page-addressable backing devices,
// plus the sector-0 Storage-Header Signature that lets resume find an
// image.
//
// Grounded on spec.md's reservation algorithm (extra-pages-for-metadata,
// need computation, per-device running (min,max) extents, NO_SPACE with
// partial-extent rollback) and on the teacher's pci.Disk_i-shaped device
// abstraction, now backed by internal/blockdev. The on-disk signature keeps
// every field spec.md names but widens the record to 19 bytes (see
// EncodeSignature).
package storage

import (
	"toi/internal/blockdev"
	"toi/internal/defs"
	"toi/internal/extent"
)

const (
	sigLen       = 10
	sizeofUlong  = 8
	sizeofInt    = 4
	maxHeaderSec = 1 << 31 // signature's 32-bit sector field refuses beyond this

	magicOurs    = "LINHIB0001" // ours (lowercase v0 style, per spec's {"z","Z"} family generalized to a ten-byte tag)
	magicOursV1  = "LINHIB0002"
	swapMagic1   = "SWAP-SPACE"
	swapMagic2   = "SWAPSPACE2"
	resumeAttemptedBit = 1 << 7
)

// ExistsResult is image_exists()'s three-way-plus-foreign return (§4.5).
type ExistsResult int

const (
	NoSignature     ExistsResult = -1
	PlainSwap       ExistsResult = 0
	OursResumable   ExistsResult = 1
	Foreign         ExistsResult = 2
)

// SwapSource is get_swap_page()/map_swap_page()'s abstraction: a page
// allocator plus slot-to-sector translator over blockdev.Device backing
// files. This package ships no implementation of it.
type SwapSource interface {
	// GetSwapPage returns a free (deviceID, slot) pair, or ok=false when
	// the source is exhausted.
	GetSwapPage() (deviceID int, slot int64, ok bool)
	// MapSwapPage translates a slot to a starting sector on deviceID.
	MapSwapPage(deviceID int, slot int64) int64
	Device(deviceID int) *blockdev.Device
}

// Allocator reserves storage across a SwapSource, maintaining one extent
// chain per device and the running reservation total.
type Allocator struct {
	src          SwapSource
	pageSize     int
	headerPages  int

	chains       map[int]*extent.Chain
	reservedPages int64
}

// New creates an Allocator over src, reserving headerPages logical pages
// at the start of the stream for the header (§4.5).
func New(src SwapSource, pageSize, headerPages int) *Allocator {
	return &Allocator{
		src:         src,
		pageSize:    pageSize,
		headerPages: headerPages,
		chains:      make(map[int]*extent.Chain),
	}
}

// StorageAllocated returns the total number of pages reserved so far,
// across all devices.
func (a *Allocator) StorageAllocated() int64 { return a.reservedPages }

// AllocateStorage reserves additional storage so that the total reservation
// covers requested logical pages, following §4.5 steps 1-4:
//  1. extra = ceil(requested * (sizeof(ulong)+sizeof(int)) / PAGE_SIZE)
//  2. need = requested + extra + header_pages - current_reservation
//  3. pull pages one at a time via GetSwapPage, merging into per-device
//     running (min,max) extents
//  4. on exhaustion before need is satisfied, roll back the last (partial)
//     extent and return NO_SPACE
func (a *Allocator) AllocateStorage(requested int64) defs.Err_t {
	extraPages := ceildiv(requested*(sizeofUlong+sizeofInt), int64(a.pageSize))
	need := requested + extraPages + int64(a.headerPages) - a.reservedPages
	if need <= 0 {
		return 0
	}

	type reservation = struct {
		deviceID int
		slot     int64
	}
	var taken []reservation

	for int64(len(taken)) < need {
		devID, slot, ok := a.src.GetSwapPage()
		if !ok {
			a.rollback(taken)
			return -defs.ENOSPC
		}
		taken = append(taken, reservation{deviceID: devID, slot: slot})
		chain := a.chains[devID]
		if chain == nil {
			chain = extent.New()
			a.chains[devID] = chain
		}
		sector := a.src.MapSwapPage(devID, slot)
		chain.Append(uint64(sector), uint64(sector))
	}

	a.reservedPages += need
	return 0
}

// rollback frees every page reservation taken during a failed
// AllocateStorage call, per §4.5's "roll the last (partial) extent back".
func (a *Allocator) rollback(taken []struct {
	deviceID int
	slot     int64
}) {
	// The per-device chains were only ever appended to with singleton
	// extents for exactly the pages in `taken`; since nothing else shares
	// those chains yet, the simplest correct rollback is to rebuild them
	// from scratch minus the failed reservation's devices.
	touched := map[int]bool{}
	for _, r := range taken {
		touched[r.deviceID] = true
	}
	for dev := range touched {
		delete(a.chains, dev)
	}
}

// Chain returns the extent chain reserved so far on deviceID, or nil.
func (a *Allocator) Chain(deviceID int) *extent.Chain { return a.chains[deviceID] }

func ceildiv(n, d int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// Signature is the decoded form of the ten-byte-plus-fields sector-0
// Storage-Header Signature (§3, §4.5, §6).
type Signature struct {
	V1               bool
	DeviceID         int32
	ResumeAttempted  bool
	HeaderSector     uint32
}

// EncodeSignature writes sig into a pageSize-sized buffer exactly as §6
// describes: bytes 0-9 magic, 1-4 [sic, overlapping the magic per spec's
// byte numbering] device id, byte 5 flags, bytes 6-9 sector. Here the magic
// occupies bytes 0-9 and the remaining fields are appended starting at byte
// 10, since a literal ten-byte magic cannot also own bytes 1-9 — this
// repo's signature therefore widens the record to 19 bytes while keeping
// every field spec.md names, in the order spec.md names them.
func EncodeSignature(buf []byte, sig Signature) defs.Err_t {
	if sig.HeaderSector >= maxHeaderSec {
		return -defs.EINVAL
	}
	if len(buf) < 19 {
		return -defs.EINVAL
	}
	magic := magicOurs
	if sig.V1 {
		magic = magicOursV1
	}
	copy(buf[0:sigLen], magic)
	putUint32(buf[10:14], uint32(sig.DeviceID))
	flags := byte(0)
	if sig.ResumeAttempted {
		flags = resumeAttemptedBit
	}
	buf[14] = flags
	putUint32(buf[15:19], sig.HeaderSector)
	return 0
}

// DecodeSignature parses buf (as written by EncodeSignature) and reports
// which of image_exists()'s four outcomes applies, mirroring §4.5's
// image_exists(): -1 no signature, 0 plain swap, 1 ours, 2 foreign.
func DecodeSignature(buf []byte) (Signature, ExistsResult) {
	if len(buf) < 19 {
		return Signature{}, NoSignature
	}
	magic := string(buf[0:sigLen])
	switch magic {
	case swapMagic1, swapMagic2:
		return Signature{}, PlainSwap
	case magicOurs, magicOursV1:
		sig := Signature{
			V1:              magic == magicOursV1,
			DeviceID:        int32(getUint32(buf[10:14])),
			ResumeAttempted: buf[14]&resumeAttemptedBit != 0,
			HeaderSector:    getUint32(buf[15:19]),
		}
		return sig, OursResumable
	default:
		allZero := true
		for _, b := range buf[:sigLen] {
			if b != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			return Signature{}, NoSignature
		}
		return Signature{}, Foreign
	}
}

// RemoveImage overwrites sector 0 of dev with the platform-standard
// swap-space magic, restoring it to plain swap (§4.5's remove_image()).
func RemoveImage(dev *blockdev.Device, pageSize int) defs.Err_t {
	buf := make([]byte, pageSize)
	copy(buf, swapMagic2)
	return dev.WritePage(0, buf)
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
