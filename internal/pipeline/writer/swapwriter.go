// Package writer implements the single concrete module.Writer this repo
// ships: a single-device swap-backed image store built directly on
// internal/blockdev and internal/storage (§4.4's "Writer" capability, §4.5's
// signature format).
//
// Layout: sector 0 carries the Storage-Header Signature (internal/storage),
// sectors [1, headerPages) carry the Image Header chunk, and sectors
// [headerPages, ...) carry page-stream data, one sector per logical page
// number. Grounded on the teacher's single-disk pci.Ahci_disk_t wiring
// (one backing device, no RAID/striping) generalized to the page-addressed
// image-store shape §4.4/§4.5 describe.
package writer

import (
	"toi/internal/blockdev"
	"toi/internal/defs"
	"toi/internal/module"
	"toi/internal/storage"
)

const deviceID = 0

// Swap is the concrete module.Writer: one blockdev.Device, a reserved
// header region, and a page-stream region addressed by logical page
// number.
type Swap struct {
	dev         *blockdev.Device
	pageSize    int
	headerPages int

	resumeAttempted bool
}

// New wraps dev as a Writer module with headerPages sectors reserved for
// the signature (sector 0) plus the Image Header chunk (sectors 1..headerPages-1).
func New(dev *blockdev.Device, pageSize, headerPages int) *Swap {
	if headerPages < 1 {
		headerPages = 1
	}
	return &Swap{dev: dev, pageSize: pageSize, headerPages: headerPages}
}

func (s *Swap) Name() string      { return "swap-writer" }
func (s *Swap) Kind() module.Kind { return module.WRITER }

func (s *Swap) Initialise() defs.Err_t { return 0 }
func (s *Swap) Cleanup()               {}
func (s *Swap) MemoryNeeded() int      { return s.pageSize }

func (s *Swap) SaveConfigInfo(buf []byte) int { return 0 }
func (s *Swap) LoadConfigInfo(buf []byte)     {}
func (s *Swap) PrintDebugInfo() string        { return "swap-writer: single device, header " }

// StorageNeeded reports a lower bound of zero: the real need is worked out
// per cycle by the storage allocator, not a fixed per-module figure.
func (s *Swap) StorageNeeded() int64 { return 0 }

func (s *Swap) StorageAvailable() int64 {
	n, err := s.dev.NumSlots()
	if err != nil {
		return 0
	}
	return n - int64(s.headerPages)
}

func (s *Swap) StorageAllocated() int64 { return 0 }
func (s *Swap) ReleaseStorage()         {}

// AllocateHeaderSpace grows the backing file if needed so the header
// region has n sectors available.
func (s *Swap) AllocateHeaderSpace(n int) defs.Err_t {
	if n > s.headerPages {
		s.headerPages = n
	}
	return s.ensureCapacity(int64(s.headerPages))
}

// AllocateStorage grows the backing file so the page-stream region can
// hold request logical pages, returning how many it actually secured.
func (s *Swap) AllocateStorage(request int64) (int64, defs.Err_t) {
	if err := s.ensureCapacity(int64(s.headerPages) + request); err != 0 {
		return 0, err
	}
	return request, 0
}

func (s *Swap) ensureCapacity(sectors int64) defs.Err_t {
	have, err := s.dev.NumSlots()
	if err != nil {
		return -defs.EIO
	}
	if have >= sectors {
		return 0
	}
	if err := s.dev.Truncate(sectors); err != nil {
		return -defs.EIO
	}
	return 0
}

// ImageExists implements image_exists() restricted to this repo's own
// signature (§4.5): OursResumable only.
func (s *Swap) ImageExists() bool {
	buf := make([]byte, s.pageSize)
	if err := s.dev.ReadPage(0, buf); err != 0 {
		return false
	}
	_, result := storage.DecodeSignature(buf)
	return result == storage.OursResumable
}

func (s *Swap) MarkResumeAttempted(attempted bool) { s.resumeAttempted = attempted }

// RemoveImage restores plain-swap magic at sector 0 (§4.5's remove_image()).
func (s *Swap) RemoveImage() defs.Err_t {
	return storage.RemoveImage(s.dev, s.pageSize)
}

// ParseSigLocation is a no-op: this single-device writer has nowhere else
// to look for the signature.
func (s *Swap) ParseSigLocation(str string) defs.Err_t { return 0 }

func (s *Swap) WritePage(pageNum int64, buf []byte) defs.Err_t {
	return s.dev.WritePage(int64(s.headerPages)+pageNum, buf)
}

func (s *Swap) ReadPage(pageNum int64, buf []byte) defs.Err_t {
	return s.dev.ReadPage(int64(s.headerPages)+pageNum, buf)
}

func (s *Swap) RWInit(rw int, flags int) defs.Err_t { return 0 }
func (s *Swap) RWCleanup(rw int) defs.Err_t         { return s.dev.Sync() }

// RWHeaderChunk writes (rw != 0) or reads (rw == 0) buf starting at sector
// 1, spanning as many sectors as buf needs, growing the reserved header
// region via AllocateHeaderSpace when buf does not fit in it.
func (s *Swap) RWHeaderChunk(rw int, buf []byte) defs.Err_t {
	needed := (len(buf) + s.pageSize - 1) / s.pageSize
	if needed+1 > s.headerPages {
		if err := s.AllocateHeaderSpace(needed + 1); err != 0 {
			return err
		}
	}
	sector := int64(1)
	for off := 0; off < len(buf); off += s.pageSize {
		end := off + s.pageSize
		page := make([]byte, s.pageSize)
		if rw != 0 {
			n := copy(page, buf[off:min(end, len(buf))])
			_ = n
			if err := s.dev.WritePage(sector, page); err != 0 {
				return err
			}
		} else {
			if err := s.dev.ReadPage(sector, page); err != 0 {
				return err
			}
			copy(buf[off:min(end, len(buf))], page)
		}
		sector++
	}
	return 0
}

// WriteSignature encodes and writes the Storage-Header Signature to sector
// 0, called once the header's location is known.
func (s *Swap) WriteSignature(sig storage.Signature) defs.Err_t {
	buf := make([]byte, s.pageSize)
	if err := storage.EncodeSignature(buf, sig); err != 0 {
		return err
	}
	return s.dev.WritePage(0, buf)
}

var _ module.Writer = (*Swap)(nil)
