// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2023, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package matchers

import (
	"fmt"
	"os"
	"slices"

	"github.com/onsi/gomega/format"
	"github.com/onsi/gomega/types"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/cpio"
)

// containEntriesMatcher asserts the paths stored in an archive.
type containEntriesMatcher struct {
	paths  []string
	actual []string
	err    error
}

var _ types.GomegaMatcher = (*containEntriesMatcher)(nil)

func (matcher *containEntriesMatcher) Match(actual any) (success bool, err error) {
	path, ok := actual.(string)
	if !ok {
		return false, fmt.Errorf("ContainEntries matcher expects an archive path")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		matcher.err = fmt.Errorf("reading archive: %w", err)
		return false, nil
	}

	data, _, err := archive.Decompress(raw)
	if err != nil {
		matcher.err = err
		return false, nil
	}

	store, err := cpio.Read(data)
	if err != nil {
		matcher.err = err
		return false, nil
	}

	matcher.actual = store.Paths()
	if !slices.Equal(matcher.actual, matcher.paths) {
		matcher.err = fmt.Errorf("archive holds %q", matcher.actual)
		return false, nil
	}

	return true, nil
}

func (matcher *containEntriesMatcher) FailureMessage(actual any) string {
	return format.Message(actual, fmt.Sprintf("to contain the entries %q: %s", matcher.paths, matcher.err))
}

func (matcher *containEntriesMatcher) NegatedFailureMessage(actual any) string {
	return format.Message(actual, fmt.Sprintf("not to contain the entries %q", matcher.paths))
}

// beCompressedWithMatcher asserts the compression of a file.
type beCompressedWithMatcher struct {
	compression archive.Compression
	detected    archive.Compression
	err         error
}

var _ types.GomegaMatcher = (*beCompressedWithMatcher)(nil)

func (matcher *beCompressedWithMatcher) Match(actual any) (success bool, err error) {
	path, ok := actual.(string)
	if !ok {
		return false, fmt.Errorf("BeCompressedWith matcher expects a file path")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		matcher.err = fmt.Errorf("reading file: %w", err)
		return false, nil
	}

	matcher.detected = archive.Detect(raw)
	if matcher.detected != matcher.compression {
		matcher.err = fmt.Errorf("file is compressed with %s", matcher.detected)
		return false, nil
	}

	return true, nil
}

func (matcher *beCompressedWithMatcher) FailureMessage(actual any) string {
	return format.Message(actual, fmt.Sprintf("to be compressed with %s: %s", matcher.compression, matcher.err))
}

func (matcher *beCompressedWithMatcher) NegatedFailureMessage(actual any) string {
	return format.Message(actual, fmt.Sprintf("not to be compressed with %s", matcher.compression))
}
