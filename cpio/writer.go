// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"bytes"
	"io"
)

var zeroPad [blockSize]byte

// Write encodes the store as an archive terminated by a trailer entry.  The
// name size, file size and checksum of every header are computed from the
// entry's current path and payload.
//
// Either the complete archive is returned or nothing is.
func Write(s *Store) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(s.encodedSize())

	for _, e := range s.entries {
		if err := writeEntry(&buf, e.header(), e.path, e.payload); err != nil {
			return nil, &Error{Op: "write", Path: e.path, Offset: int64(buf.Len()), Err: err}
		}
	}

	if err := writeEntry(&buf, trailerHeader(), Trailer, nil); err != nil {
		return nil, &Error{Op: "write", Path: Trailer, Offset: int64(buf.Len()), Err: err}
	}

	return buf.Bytes(), nil
}

// WriteTo encodes the store and writes it to w.  Nothing is written if the
// store cannot be encoded.
func WriteTo(w io.Writer, s *Store) (int64, error) {
	b, err := Write(s)
	if err != nil {
		return 0, err
	}

	n, err := w.Write(b)
	return int64(n), err
}

func writeEntry(buf *bytes.Buffer, hdr Header, path string, payload []byte) error {
	raw, err := hdr.Encode()
	if err != nil {
		return err
	}

	buf.Write(raw)
	buf.WriteString(path)
	buf.WriteByte(0)
	buf.Write(zeroPad[:PadLen(int64(buf.Len()))])

	if len(payload) > 0 {
		buf.Write(payload)
		buf.Write(zeroPad[:PadLen(int64(buf.Len()))])
	}

	return nil
}

// encodedSize returns an upper bound of the archive size.
func (s *Store) encodedSize() int {
	size := HeaderSize + len(Trailer) + 1 + blockSize
	for _, e := range s.entries {
		size += HeaderSize + len(e.path) + 1 + len(e.payload) + 2*blockSize
	}

	return size
}
