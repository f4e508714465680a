// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	// MagicNewc is the signature of a header without payload checksum.
	MagicNewc = "070701"

	// MagicCRC is the signature of a header whose check field holds the sum
	// of the payload bytes.
	MagicCRC = "070702"

	// Trailer is the name of the entry which terminates every archive.
	Trailer = "TRAILER!!!"

	magicLen   = len(MagicNewc)
	fieldWidth = 8
	fieldCount = 13

	// HeaderSize is the width of an encoded header, excluding the name.
	HeaderSize = magicLen + fieldCount*fieldWidth

	// MaxFieldValue is the largest value a header field can represent.
	MaxFieldValue = 1<<(4*fieldWidth) - 1

	blockSize = 4
)

// Format selects between the two header signatures of the portable ASCII
// encoding.
type Format int

const (
	FormatNewc Format = iota
	FormatCRC
)

// Magic returns the six byte signature written for the format.
func (f Format) Magic() string {
	if f == FormatCRC {
		return MagicCRC
	}

	return MagicNewc
}

func (f Format) String() string {
	if f == FormatCRC {
		return "crc"
	}

	return "newc"
}

// Metadata holds the header fields of an entry which are not derived from
// its name or payload.
type Metadata struct {
	Inode     uint64
	Mode      uint64
	UID       uint64
	GID       uint64
	NLink     uint64
	MTime     uint64
	DevMajor  uint64
	DevMinor  uint64
	RDevMajor uint64
	RDevMinor uint64
}

// FileMode returns the mode field as a FileMode.
func (md Metadata) FileMode() FileMode {
	return FileMode(md.Mode)
}

// Header is the decoded form of one fixed-width header record.
type Header struct {
	Format Format
	Metadata

	FileSize uint64
	NameSize uint64
	Check    uint64
}

// fieldNames lists the numeric fields in the order they are encoded.
var fieldNames = [fieldCount]string{
	"ino",
	"mode",
	"uid",
	"gid",
	"nlink",
	"mtime",
	"filesize",
	"devmajor",
	"devminor",
	"rdevmajor",
	"rdevminor",
	"namesize",
	"check",
}

// fields returns pointers to the numeric fields in the order of fieldNames.
func (h *Header) fields() [fieldCount]*uint64 {
	return [fieldCount]*uint64{
		&h.Inode,
		&h.Mode,
		&h.UID,
		&h.GID,
		&h.NLink,
		&h.MTime,
		&h.FileSize,
		&h.DevMajor,
		&h.DevMinor,
		&h.RDevMajor,
		&h.RDevMinor,
		&h.NameSize,
		&h.Check,
	}
}

// DecodeHeader decodes the header record at the start of b and returns it
// along with the number of bytes consumed.  The name and payload which follow
// the record are not read.
func DecodeHeader(b []byte) (Header, int, error) {
	var hdr Header

	if len(b) < HeaderSize {
		return Header{}, 0, fmt.Errorf("%w: header needs %d bytes but %d remain", ErrTruncatedStream, HeaderSize, len(b))
	}

	switch magic := string(b[:magicLen]); magic {
	case MagicNewc:
		hdr.Format = FormatNewc
	case MagicCRC:
		hdr.Format = FormatCRC
	default:
		return Header{}, 0, fmt.Errorf("%w: unknown magic %q", ErrMalformedHeader, magic)
	}

	for i, field := range hdr.fields() {
		off := magicLen + i*fieldWidth
		raw := b[off : off+fieldWidth]

		v, err := decodeField(raw)
		if err != nil {
			return Header{}, 0, fmt.Errorf("%w: %s field %q is not hexadecimal", ErrMalformedHeader, fieldNames[i], raw)
		}

		*field = v
	}

	return hdr, HeaderSize, nil
}

func decodeField(raw []byte) (uint64, error) {
	var buf [fieldWidth / 2]byte

	if _, err := hex.Decode(buf[:], raw); err != nil {
		return 0, err
	}

	return uint64(binary.BigEndian.Uint32(buf[:])), nil
}

// DecodeName returns the entry name stored in the first namesize bytes of b,
// without its NUL terminator.
func DecodeName(b []byte, namesize uint64) (string, error) {
	if namesize == 0 {
		return "", fmt.Errorf("%w: namesize is zero", ErrMalformedHeader)
	}

	if uint64(len(b)) < namesize {
		return "", fmt.Errorf("%w: name needs %d bytes but %d remain", ErrTruncatedStream, namesize, len(b))
	}

	name := b[:namesize-1]
	if b[namesize-1] != 0 {
		return "", fmt.Errorf("%w: name %q is not NUL terminated", ErrMalformedHeader, name)
	}

	if bytes.IndexByte(name, 0) >= 0 {
		return "", fmt.Errorf("%w: name %q contains NUL", ErrMalformedHeader, name)
	}

	return string(name), nil
}

// Encode returns the fixed-width record for hdr.  Digits are written in
// upper case.
func (hdr Header) Encode() ([]byte, error) {
	b := make([]byte, 0, HeaderSize)
	b = append(b, hdr.Format.Magic()...)

	for i, field := range hdr.fields() {
		if *field > MaxFieldValue {
			return nil, fmt.Errorf("%w: %s value %d does not fit in %d hex digits", ErrFieldOverflow, fieldNames[i], *field, fieldWidth)
		}

		b = fmt.Appendf(b, "%0*X", fieldWidth, *field)
	}

	return b, nil
}

// PadLen returns the number of zero bytes which must follow n bytes so that
// the next block starts on a four byte boundary.
func PadLen(n int64) int {
	return int((blockSize - n%blockSize) % blockSize)
}

// trailerHeader returns the header of the terminating entry.
func trailerHeader() Header {
	return Header{
		Format:   FormatNewc,
		Metadata: Metadata{NLink: 1},
		NameSize: uint64(len(Trailer)) + 1,
	}
}
