// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package archive

type UnpackOptions struct {
	force     bool
	ownership bool
	tempDir   string
}

type UnpackOption func(*UnpackOptions) error

// WithForce allows unpacking into a non-empty destination, replacing any
// file which is in the way.
func WithForce(force bool) UnpackOption {
	return func(uo *UnpackOptions) error {
		uo.force = force
		return nil
	}
}

// WithOwnership applies the uid and gid of each member.  This usually
// requires elevated privileges.
func WithOwnership(ownership bool) UnpackOption {
	return func(uo *UnpackOptions) error {
		uo.ownership = ownership
		return nil
	}
}

// WithTempDir sets the parent of the temporary directory created when no
// destination is given.
func WithTempDir(dir string) UnpackOption {
	return func(uo *UnpackOptions) error {
		uo.tempDir = dir
		return nil
	}
}
