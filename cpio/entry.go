// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"bytes"
	"time"
)

// Entry is one member of an archive.  Its size and name size are always
// derived from the path and payload it holds.
type Entry struct {
	Metadata

	// Format is the header signature the entry is written with.
	Format Format

	path    string
	payload []byte
}

// NewEntry returns an entry holding a copy of payload.
func NewEntry(path string, payload []byte, md Metadata) *Entry {
	return &Entry{
		Metadata: md,
		path:     path,
		payload:  ownPayload(payload),
	}
}

// ownPayload returns a private copy of b.  Empty payloads are stored as nil.
func ownPayload(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	return bytes.Clone(b)
}

// Path returns the name the entry is stored under.
func (e *Entry) Path() string {
	return e.path
}

// Payload returns a copy of the entry's data.
func (e *Entry) Payload() []byte {
	return bytes.Clone(e.payload)
}

// Size returns the length of the payload.
func (e *Entry) Size() int64 {
	return int64(len(e.payload))
}

// NameSize returns the length of the path including its NUL terminator.
func (e *Entry) NameSize() uint64 {
	return uint64(len(e.path)) + 1
}

// ModTime returns the mtime field as a time.
func (e *Entry) ModTime() time.Time {
	return time.Unix(int64(e.MTime), 0)
}

// Linkname returns the target of a symlink, which newc stores as the
// payload.  It is empty for every other type.
func (e *Entry) Linkname() string {
	if !e.FileMode().IsSymlink() {
		return ""
	}

	return string(e.payload)
}

// clone returns a shallow copy of e.  The payload is shared, which is safe
// since entries never modify their payload in place.
func (e *Entry) clone() *Entry {
	c := *e
	return &c
}

// header returns the record written for e with every derived field
// computed from the current path and payload.
func (e *Entry) header() Header {
	hdr := Header{
		Format:   e.Format,
		Metadata: e.Metadata,
		FileSize: uint64(len(e.payload)),
		NameSize: e.NameSize(),
	}

	if e.Format == FormatCRC {
		hdr.Check = uint64(Sum32(e.payload))
	}

	return hdr
}

// Listing is the metadata of an entry as shown by a listing.
type Listing struct {
	Path string
	Metadata

	Format Format
	Size   int64
}

// Member is an entry handed to an extraction collaborator.
type Member struct {
	Listing

	Payload []byte
}
