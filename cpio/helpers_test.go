// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// rawEntry describes an entry of a hand-built archive.
type rawEntry struct {
	magic   string
	name    string
	ino     uint64
	mode    uint64
	uid     uint64
	gid     uint64
	mtime   uint64
	payload []byte
	check   *uint64
}

func (r rawEntry) withCheck(check uint64) rawEntry {
	r.check = &check
	return r
}

// rawArchive assembles an archive byte by byte, independently of Write.
func rawArchive(entries ...rawEntry) []byte {
	var b bytes.Buffer

	emit := func(magic string, fields [13]uint64, name string, payload []byte) {
		b.WriteString(magic)
		for _, f := range fields {
			fmt.Fprintf(&b, "%08X", f)
		}
		b.WriteString(name)
		b.WriteByte(0)
		for b.Len()%4 != 0 {
			b.WriteByte(0)
		}
		b.Write(payload)
		for b.Len()%4 != 0 {
			b.WriteByte(0)
		}
	}

	for _, e := range entries {
		magic := e.magic
		if magic == "" {
			magic = MagicNewc
		}

		var check uint64
		if e.check != nil {
			check = *e.check
		} else if magic == MagicCRC {
			check = uint64(Sum32(e.payload))
		}

		emit(magic, [13]uint64{
			e.ino, e.mode, e.uid, e.gid, 1, e.mtime,
			uint64(len(e.payload)),
			0, 0, 0, 0,
			uint64(len(e.name) + 1),
			check,
		}, e.name, e.payload)
	}

	emit(MagicNewc, [13]uint64{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, uint64(len(Trailer) + 1), 0}, Trailer, nil)

	return b.Bytes()
}

func regular(name string, ino uint64, payload string) rawEntry {
	return rawEntry{
		name:    name,
		ino:     ino,
		mode:    uint64(TypeReg | 0o644),
		payload: []byte(payload),
	}
}

// requireWellFormed walks an encoded archive and fails the test unless every
// block is aligned and every size field matches the data it describes.
func requireWellFormed(t *testing.T, data []byte) {
	t.Helper()

	var off int
	for {
		require.Zero(t, off%4, "header at %#x is not aligned", off)

		hdr, n, err := DecodeHeader(data[off:])
		require.NoError(t, err)
		off += n

		name, err := DecodeName(data[off:], hdr.NameSize)
		require.NoError(t, err)
		require.Equal(t, uint64(len(name)+1), hdr.NameSize, "namesize of %s", name)
		off += int(hdr.NameSize)
		off += PadLen(int64(off))

		if name == Trailer {
			require.Zero(t, hdr.FileSize)
			require.Equal(t, len(data), off, "bytes follow the trailer")
			return
		}

		require.LessOrEqual(t, off+int(hdr.FileSize), len(data))
		if hdr.Format == FormatCRC {
			require.Equal(t, uint64(Sum32(data[off:off+int(hdr.FileSize)])), hdr.Check)
		}

		off += int(hdr.FileSize)
		off += PadLen(int64(off))
	}
}

func mustRead(t *testing.T, data []byte) *Store {
	t.Helper()

	store, err := Read(data)
	require.NoError(t, err)

	return store
}

func mustWrite(t *testing.T, s *Store) []byte {
	t.Helper()

	data, err := Write(s)
	require.NoError(t, err)

	return data
}
