// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2024, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

//go:build linux

package initrd

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"

	"kraftkit.sh/cpiokit/cpio"
)

func populate(fi fs.FileInfo, md *cpio.Metadata) {
	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}

	md.UID = uint64(stat.Uid)
	md.GID = uint64(stat.Gid)
	md.NLink = uint64(stat.Nlink)
	md.DevMajor = uint64(unix.Major(uint64(stat.Dev)))
	md.DevMinor = uint64(unix.Minor(uint64(stat.Dev)))
	md.RDevMajor = uint64(unix.Major(uint64(stat.Rdev)))
	md.RDevMinor = uint64(unix.Minor(uint64(stat.Rdev)))
}
