// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/initrd"
	"kraftkit.sh/cpiokit/internal/testutil"
)

func rootfs(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range map[string]string{
		"bin/busybox":         "\x7fELF",
		"etc/hostname":        "initrd\n",
		"tmp/scratch.log":     "noise",
		initrd.IgnoreFileName: "*.log\n",
	} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return root
}

func TestPack(t *testing.T) {
	output := filepath.Join(t.TempDir(), "initrd.cpio.gz")
	ctx, _, _ := testutil.Context(t)

	require.NoError(t, testutil.Execute(ctx, NewCmd(), "--owner", "0:0", "-o", output, rootfs(t)))

	store, c := testutil.ReadArchive(t, output)
	assert.Equal(t, archive.CompressionGzip, c)
	assert.Equal(t, []string{"bin", "bin/busybox", "etc", "etc/hostname", "tmp"}, store.Paths())

	for _, e := range store.Entries() {
		assert.Equal(t, uint64(0), e.UID, e.Path())
		assert.Equal(t, cpio.FormatNewc, e.Format, e.Path())
	}
}

func TestPackFormatAndNoIgnore(t *testing.T) {
	output := filepath.Join(t.TempDir(), "initrd.cpio")
	ctx, _, _ := testutil.Context(t)

	require.NoError(t, testutil.Execute(ctx, NewCmd(), "--format", "crc", "--no-ignore", "-o", output, rootfs(t)))

	store, c := testutil.ReadArchive(t, output)
	assert.Equal(t, archive.CompressionNone, c)
	assert.True(t, store.Has("tmp/scratch.log"))
	assert.True(t, store.Has(initrd.IgnoreFileName))

	for _, e := range store.Entries() {
		assert.Equal(t, cpio.FormatCRC, e.Format, e.Path())
	}
}

func TestPackInvalidFlags(t *testing.T) {
	root := rootfs(t)
	output := filepath.Join(t.TempDir(), "initrd.cpio")

	for _, args := range [][]string{
		{root},
		{"--format", "odc", "-o", output, root},
		{"--owner", "root", "-o", output, root},
		{"-o", output, filepath.Join(root, "nope")},
	} {
		ctx, _, _ := testutil.Context(t)

		var flagErr *cmdfactory.FlagError
		assert.ErrorAs(t, testutil.Execute(ctx, NewCmd(), args...), &flagErr, args)
	}

	assert.NoFileExists(t, output)
}
