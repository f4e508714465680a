// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package initrd

import "kraftkit.sh/cpiokit/cpio"

type DirectoryOptions struct {
	ignoreFile string
	owner      *[2]uint64
	format     cpio.Format
}

type DirectoryOption func(*DirectoryOptions) error

// WithIgnoreFile sets the name of the file, relative to the root of the
// directory, which lists patterns of paths to leave out.  An empty name
// disables ignore files.
func WithIgnoreFile(name string) DirectoryOption {
	return func(opts *DirectoryOptions) error {
		opts.ignoreFile = name
		return nil
	}
}

// WithOwner records every entry as owned by uid and gid instead of the
// owner on the host.
func WithOwner(uid, gid uint64) DirectoryOption {
	return func(opts *DirectoryOptions) error {
		opts.owner = &[2]uint64{uid, gid}
		return nil
	}
}

// WithFormat sets the header format of every entry.
func WithFormat(format cpio.Format) DirectoryOption {
	return func(opts *DirectoryOptions) error {
		opts.format = format
		return nil
	}
}
