// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

//go:build !linux

package archive

import "kraftkit.sh/cpiokit/cpio"

func mknod(string, cpio.FileMode, uint64, uint64) error {
	return errUnsupported
}
