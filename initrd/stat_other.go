// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2024, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

//go:build !linux

package initrd

import (
	"io/fs"

	"kraftkit.sh/cpiokit/cpio"
)

func populate(fs.FileInfo, *cpio.Metadata) {}
