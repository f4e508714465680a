// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2023, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package matchers contains additional Gomega matchers.
package matchers

import (
	"github.com/onsi/gomega/types"

	"kraftkit.sh/cpiokit/archive"
)

// ContainEntries succeeds if a file is a readable archive holding entries
// with exactly the provided paths, in that order.
// Actual must be a string representing the path to the archive.
func ContainEntries(paths ...string) types.GomegaMatcher {
	return &containEntriesMatcher{paths: paths}
}

// BeCompressedWith succeeds if a file starts with the magic bytes of the
// given compression.
// Actual must be a string representing the path to the file.
func BeCompressedWith(c archive.Compression) types.GomegaMatcher {
	return &beCompressedWithMatcher{compression: c}
}

// ContainFiles succeeds if a directory exists and contains regular files at
// the provided relative paths.
// Actual must be a string representing the path to the directory.
func ContainFiles(files ...string) types.GomegaMatcher {
	return &containFilesMatcher{fileNames: files}
}
