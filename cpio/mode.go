// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"io/fs"
	"strconv"
)

// FileMode is the value of the mode field of an entry: the file type in the
// upper bits and the permission bits, including setuid, setgid and sticky,
// in the lower twelve.
type FileMode uint32

const (
	ModeType FileMode = 0o170000
	ModePerm FileMode = 0o7777

	TypeFifo    FileMode = 0o010000
	TypeChar    FileMode = 0o020000
	TypeDir     FileMode = 0o040000
	TypeBlock   FileMode = 0o060000
	TypeReg     FileMode = 0o100000
	TypeSymlink FileMode = 0o120000
	TypeSocket  FileMode = 0o140000

	ModeSetuid FileMode = 0o4000
	ModeSetgid FileMode = 0o2000
	ModeSticky FileMode = 0o1000
)

// Type returns the file type bits of m.
func (m FileMode) Type() FileMode {
	return m & ModeType
}

// Perm returns the permission bits of m.
func (m FileMode) Perm() FileMode {
	return m & ModePerm
}

func (m FileMode) IsDir() bool     { return m.Type() == TypeDir }
func (m FileMode) IsRegular() bool { return m.Type() == TypeReg }
func (m FileMode) IsSymlink() bool { return m.Type() == TypeSymlink }

// TypeName returns a short human readable name for the file type.
func (m FileMode) TypeName() string {
	switch m.Type() {
	case TypeFifo:
		return "fifo"
	case TypeChar:
		return "char device"
	case TypeDir:
		return "directory"
	case TypeBlock:
		return "block device"
	case TypeReg:
		return "regular file"
	case TypeSymlink:
		return "symlink"
	case TypeSocket:
		return "socket"
	}

	return "unknown"
}

// Octal returns the mode as an unprefixed octal string, e.g. "100644".
func (m FileMode) Octal() string {
	return strconv.FormatUint(uint64(m), 8)
}

// String returns the mode formatted as its io/fs equivalent.
func (m FileMode) String() string {
	return m.OS().String()
}

// OS converts m to an io/fs.FileMode.
func (m FileMode) OS() fs.FileMode {
	mode := fs.FileMode(m & 0o777)

	switch m.Type() {
	case TypeFifo:
		mode |= fs.ModeNamedPipe
	case TypeChar:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case TypeDir:
		mode |= fs.ModeDir
	case TypeBlock:
		mode |= fs.ModeDevice
	case TypeSymlink:
		mode |= fs.ModeSymlink
	case TypeSocket:
		mode |= fs.ModeSocket
	}

	if m&ModeSetuid != 0 {
		mode |= fs.ModeSetuid
	}
	if m&ModeSetgid != 0 {
		mode |= fs.ModeSetgid
	}
	if m&ModeSticky != 0 {
		mode |= fs.ModeSticky
	}

	return mode
}

// FileModeFromOS converts an io/fs.FileMode to its cpio representation.
func FileModeFromOS(fm fs.FileMode) FileMode {
	mode := FileMode(fm.Perm())

	switch {
	case fm&fs.ModeDir != 0:
		mode |= TypeDir
	case fm&fs.ModeSymlink != 0:
		mode |= TypeSymlink
	case fm&fs.ModeNamedPipe != 0:
		mode |= TypeFifo
	case fm&fs.ModeSocket != 0:
		mode |= TypeSocket
	case fm&fs.ModeCharDevice != 0:
		mode |= TypeChar
	case fm&fs.ModeDevice != 0:
		mode |= TypeBlock
	default:
		mode |= TypeReg
	}

	if fm&fs.ModeSetuid != 0 {
		mode |= ModeSetuid
	}
	if fm&fs.ModeSetgid != 0 {
		mode |= ModeSetgid
	}
	if fm&fs.ModeSticky != 0 {
		mode |= ModeSticky
	}

	return mode
}
