// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

//go:build linux

package archive

import (
	"golang.org/x/sys/unix"

	"kraftkit.sh/cpiokit/cpio"
)

func mknod(path string, mode cpio.FileMode, major, minor uint64) error {
	perm := uint32(mode.Perm())

	switch mode.Type() {
	case cpio.TypeFifo:
		return unix.Mkfifo(path, perm)
	case cpio.TypeChar:
		return unix.Mknod(path, unix.S_IFCHR|perm, int(unix.Mkdev(uint32(major), uint32(minor))))
	case cpio.TypeBlock:
		return unix.Mknod(path, unix.S_IFBLK|perm, int(unix.Mkdev(uint32(major), uint32(minor))))
	}

	return errUnsupported
}
