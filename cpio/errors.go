// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedHeader is returned when a header carries an unknown magic,
	// a numeric field that is not hexadecimal, or a name without its NUL
	// terminator.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrTruncatedStream is returned when the archive ends before the trailer
	// or before a declared length could be satisfied.
	ErrTruncatedStream = errors.New("truncated stream")

	// ErrChecksumMismatch is returned when the payload of a 070702 entry does
	// not sum to the checksum recorded in its header.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrDuplicatePath is returned when two entries share a path.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrNotFound is returned when an operation names a path that is not in
	// the archive.
	ErrNotFound = errors.New("not found")

	// ErrFieldOverflow is returned when a value does not fit in the eight
	// hexadecimal digits of its header field.
	ErrFieldOverflow = errors.New("field overflow")

	// ErrInvalidPath is returned when a path cannot be stored in an archive.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotRegular is returned when data is given for an entry which cannot
	// hold any.
	ErrNotRegular = errors.New("not a regular file")
)

// Error describes a failure at a specific entry or offset of an archive.
type Error struct {
	// Op is the operation which failed, e.g. "read", "write" or "add".
	Op string

	// Path of the entry concerned, if known.
	Path string

	// Offset in the uncompressed archive at which the failure was detected,
	// or -1 if it does not apply.
	Offset int64

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("cpio: ")
	b.WriteString(e.Op)

	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %#x", e.Offset)
	}

	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicatePath returns true if the error is or wraps ErrDuplicatePath.
func IsDuplicatePath(err error) bool {
	return errors.Is(err, ErrDuplicatePath)
}

// IsCorrupt returns true if the error reports a structural problem with the
// archive bytes themselves rather than a problem with the caller's request.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrMalformedHeader) ||
		errors.Is(err, ErrTruncatedStream) ||
		errors.Is(err, ErrChecksumMismatch)
}
