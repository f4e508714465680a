// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ReadOption configures Read.
type ReadOption func(*readOptions)

type readOptions struct {
	verify      bool
	concurrency int
}

// WithVerifyChecksums sets whether the payload of 070702 entries is checked
// against the checksum in their header.  Verification is on by default.
func WithVerifyChecksums(verify bool) ReadOption {
	return func(ro *readOptions) {
		ro.verify = verify
	}
}

// WithConcurrency sets the number of goroutines used to verify checksums.
// Values below one are treated as one.
func WithConcurrency(n int) ReadOption {
	return func(ro *readOptions) {
		ro.concurrency = max(n, 1)
	}
}

// cursor is the read position within an archive.
type cursor struct {
	data []byte
	off  int64
}

func (c *cursor) remaining() []byte {
	return c.data[c.off:]
}

// take consumes the next n bytes.
func (c *cursor) take(n uint64, what string) ([]byte, error) {
	left := uint64(len(c.data)) - uint64(c.off)
	if n > left {
		return nil, fmt.Errorf("%w: %s needs %d bytes but %d remain", ErrTruncatedStream, what, n, left)
	}

	b := c.data[c.off : c.off+int64(n)]
	c.off += int64(n)

	return b, nil
}

// align skips the padding up to the next block boundary.
func (c *cursor) align(what string) error {
	_, err := c.take(uint64(PadLen(c.off)), what+" padding")
	return err
}

// pendingCheck is a checksum to verify once the archive has been walked.
type pendingCheck struct {
	offset int64
	entry  *Entry
	want   uint32
}

// Read decodes a complete archive.  Decoding stops at the trailer; any bytes
// after it are ignored.  On failure no part of the archive is returned and
// the error is an *Error locating the problem.
func Read(data []byte, opts ...ReadOption) (*Store, error) {
	ro := readOptions{
		verify:      true,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&ro)
	}

	var checks []pendingCheck

	// Report the first failure in archive order: a bad checksum seen before
	// a structural error wins over it.
	fail := func(err error) (*Store, error) {
		if cerr := verify(checks, ro.concurrency); cerr != nil {
			return nil, cerr
		}

		return nil, err
	}

	store := NewStore()
	cur := &cursor{data: data}

	for {
		start := cur.off

		hdr, n, err := DecodeHeader(cur.remaining())
		if err != nil {
			return fail(&Error{Op: "read", Offset: start, Err: err})
		}
		cur.off += int64(n)

		name, err := DecodeName(cur.remaining(), hdr.NameSize)
		if err != nil {
			return fail(&Error{Op: "read", Offset: start, Err: err})
		}
		cur.off += int64(hdr.NameSize)

		if name == Trailer {
			break
		}

		if err := cur.align("name"); err != nil {
			return fail(&Error{Op: "read", Path: name, Offset: start, Err: err})
		}

		payload, err := cur.take(hdr.FileSize, "payload")
		if err != nil {
			return fail(&Error{Op: "read", Path: name, Offset: start, Err: err})
		}

		if err := cur.align("payload"); err != nil {
			return fail(&Error{Op: "read", Path: name, Offset: start, Err: err})
		}

		entry := &Entry{
			Metadata: hdr.Metadata,
			Format:   hdr.Format,
			path:     name,
			payload:  ownPayload(payload),
		}

		if err := store.push(entry); err != nil {
			return fail(&Error{Op: "read", Path: name, Offset: start, Err: err})
		}

		if ro.verify && hdr.Format == FormatCRC {
			checks = append(checks, pendingCheck{
				offset: start,
				entry:  entry,
				want:   uint32(hdr.Check),
			})
		}
	}

	if err := verify(checks, ro.concurrency); err != nil {
		return nil, err
	}

	return store, nil
}

// ReadFrom reads r to its end and decodes the archive it contains.
func ReadFrom(r io.Reader, opts ...ReadOption) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read archive: %w", err)
	}

	return Read(data, opts...)
}

// verify checks the given checksums in parallel and returns the error for
// the entry nearest the start of the archive, if any.
func verify(checks []pendingCheck, concurrency int) error {
	if len(checks) == 0 {
		return nil
	}

	errs := make([]error, len(checks))

	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))

	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			if got := Sum32(check.entry.payload); got != check.want {
				errs[i] = &Error{
					Op:     "read",
					Path:   check.entry.path,
					Offset: check.offset,
					Err:    fmt.Errorf("%w: header records %#08x, payload sums to %#08x", ErrChecksumMismatch, check.want, got),
				}
			}

			return nil
		})
	}

	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
