// Package blockdev implements the host-process stand-in for
// bdev_page_io(rw, bdev, sector, page) (§4.5): one or more regular files,
// each treated as a "device" divided into page-sized slots, read and
// written with positioned I/O.
//
// Grounded on the teacher's pci.Disk_i contract (Start/Complete/Intr),
// generalized from an IDE-request-buffer-and-interrupt callback style to a
// direct positioned read/write, since this host substrate has no
// interrupt-driven completion path to model: golang.org/x/sys/unix.Pread
// and Pwrite give a single synchronous call where the teacher needed
// Start+Intr+Complete.
package blockdev

import (
	"os"

	"golang.org/x/sys/unix"

	"toi/internal/defs"
)

// Device is one page-addressable backing file.
type Device struct {
	f        *os.File
	pageSize int
}

// Open opens (creating if needed) path as a Device with the given page
// size.
func Open(path string, pageSize int) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return &Device{f: f, pageSize: pageSize}, nil
}

// Close closes the backing file.
func (d *Device) Close() error { return d.f.Close() }

// NumSlots returns how many page-sized slots the backing file currently
// holds.
func (d *Device) NumSlots() (int64, error) {
	st, err := d.f.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size() / int64(d.pageSize), nil
}

// Truncate grows (or shrinks) the backing file to hold exactly n
// page-sized slots.
func (d *Device) Truncate(n int64) error {
	return d.f.Truncate(n * int64(d.pageSize))
}

// ReadPage reads slot sector into buf, which must be exactly pageSize
// bytes, mirroring bdev_page_io(READ, ...).
func (d *Device) ReadPage(sector int64, buf []byte) defs.Err_t {
	if len(buf) != d.pageSize {
		return -defs.EINVAL
	}
	n, err := unix.Pread(int(d.f.Fd()), buf, sector*int64(d.pageSize))
	if err != nil || n != len(buf) {
		return -defs.EIO
	}
	return 0
}

// WritePage writes buf to slot sector, mirroring bdev_page_io(WRITE, ...).
func (d *Device) WritePage(sector int64, buf []byte) defs.Err_t {
	if len(buf) != d.pageSize {
		return -defs.EINVAL
	}
	n, err := unix.Pwrite(int(d.f.Fd()), buf, sector*int64(d.pageSize))
	if err != nil || n != len(buf) {
		return -defs.EIO
	}
	return 0
}

// Sync flushes the backing file to stable storage, used before marking a
// resume attempt in the signature (§4.5).
func (d *Device) Sync() defs.Err_t {
	if err := d.f.Sync(); err != nil {
		return -defs.EIO
	}
	return 0
}
