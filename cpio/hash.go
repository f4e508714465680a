// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"encoding/binary"
	"hash"
)

// Size of a checksum in bytes.
const checksumSize = 4

type checksum uint32

// NewHash returns a hash.Hash32 computing the checksum stored in the check
// field of 070702 headers: the sum of all payload bytes, truncated to 32 bits.
func NewHash() hash.Hash32 {
	return new(checksum)
}

func (c *checksum) Write(p []byte) (int, error) {
	s := uint32(*c)
	for _, b := range p {
		s += uint32(b)
	}
	*c = checksum(s)

	return len(p), nil
}

func (c *checksum) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(*c))
}

func (c *checksum) Sum32() uint32  { return uint32(*c) }
func (c *checksum) Reset()         { *c = 0 }
func (c *checksum) Size() int      { return checksumSize }
func (c *checksum) BlockSize() int { return 1 }

// Sum32 returns the 070702 checksum of p.
func Sum32(p []byte) uint32 {
	var c checksum
	_, _ = c.Write(p)

	return c.Sum32()
}
