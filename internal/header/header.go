// Package header implements the Image Header (§3, §6): a fixed-size
// leading record, serialized big-endian for byte-exact, cross-machine
// stable on-disk layout, followed (at the stream level, built by
// internal/engine) by extent chains and module config blobs.
//
// Grounded on the teacher's stats/Stats_t fixed-field record shape
// (a flat struct of named counters serialized whole), adapted from
// unsafe.Pointer reinterpretation to explicit encoding/binary so the format
// is stable across architectures. The OS-version string field uses
// golang.org/x/text/encoding/charmap's fixed-width ASCII transform to
// guarantee the field is exactly OSVersionLen bytes regardless of input
// encoding, matching the teacher's own golang.org/x/text dependency.
package header

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"toi/internal/ioacct"
)

const (
	// Magic identifies this repo's image format; Version is bumped on any
	// wire-incompatible change to Record.
	Magic   uint32 = 0x544f4931 // "TOI1"
	Version uint32 = 1

	// OSVersionLen is the fixed width of the OS-version string field.
	OSVersionLen = 64
)

// Record is the Image Header's fixed leading record (§3): everything named
// there in order.
type Record struct {
	Magic   uint32
	Version uint32

	OSVersion string // truncated/padded to OSVersionLen on encode

	PhysPages  uint64
	NumCPUs    uint32
	PageSize   uint32
	Pageset2Size uint64

	// Policy holds the six integer policy parameters named in §3 (image
	// size limit, full_pageset2, no_pageset2, keep_image, late_cpu_hotplug,
	// extra_pages_allowance), in that order.
	Policy [6]int64

	IO ioacct.Snapshot

	// Pagedir1 is the pagedir-1 descriptor (§3): the PFN of pageset-1's
	// top-level page directory, opaque to this package.
	Pagedir1 uint64

	// RootDevice identifies the root filesystem's backing device, used on
	// resume to confirm the captured image matches the booted system.
	RootDevice uint64
}

var asciiEncoder = charmap.ISO8859_1.NewEncoder()

func padOSVersion(s string) ([OSVersionLen]byte, error) {
	var out [OSVersionLen]byte
	enc, err := asciiEncoder.String(s)
	if err != nil {
		return out, errors.Wrap(err, "header: encode os version")
	}
	if len(enc) > OSVersionLen {
		enc = enc[:OSVersionLen]
	}
	copy(out[:], enc)
	return out, nil
}

// Encode serializes r as the fixed leading record, big-endian.
func Encode(w *bytes.Buffer, r Record) error {
	osv, err := padOSVersion(r.OSVersion)
	if err != nil {
		return err
	}

	fields := []any{
		Magic, Version,
		osv,
		r.PhysPages, r.NumCPUs, r.PageSize, r.Pageset2Size,
		r.Policy,
		r.IO.PageIONs, r.IO.HeaderIONs, r.IO.AtomicCopyNs, r.IO.OtherNs,
		r.Pagedir1, r.RootDevice,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return errors.Wrap(err, "header: encode field")
		}
	}
	return nil
}

// Decode reconstructs a Record exactly as written by Encode, rejecting a
// magic/version mismatch (§7's EINVAL "malformed header").
func Decode(r *bytes.Reader) (Record, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return Record{}, errors.Wrap(err, "header: read magic")
	}
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return Record{}, errors.Wrap(err, "header: read version")
	}
	if magic != Magic {
		return Record{}, errors.Errorf("header: bad magic %#x", magic)
	}
	if version != Version {
		return Record{}, errors.Errorf("header: unsupported version %d", version)
	}

	var osv [OSVersionLen]byte
	if err := binary.Read(r, binary.BigEndian, &osv); err != nil {
		return Record{}, errors.Wrap(err, "header: read os version")
	}

	rec := Record{Magic: magic, Version: version, OSVersion: trimNulls(osv[:])}

	readInto := []any{
		&rec.PhysPages, &rec.NumCPUs, &rec.PageSize, &rec.Pageset2Size,
		&rec.Policy,
		&rec.IO.PageIONs, &rec.IO.HeaderIONs, &rec.IO.AtomicCopyNs, &rec.IO.OtherNs,
		&rec.Pagedir1, &rec.RootDevice,
	}
	for _, f := range readInto {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return Record{}, errors.Wrap(err, "header: read field")
		}
	}
	return rec, nil
}

func trimNulls(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
