// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package modify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/internal/testutil"
)

func TestModify(t *testing.T) {
	path := testutil.WriteArchive(t, "initrd.cpio.gz", testutil.Initrd(t), archive.CompressionGzip)
	data := filepath.Join(t.TempDir(), "init.sh")
	require.NoError(t, os.WriteFile(data, []byte("#!/bin/busybox sh\n"), 0o600))

	ctx, _, _ := testutil.Context(t)
	require.NoError(t, testutil.Execute(ctx, NewCmd(),
		"-u", "1000", "-m", "0700", "-d", data, "--mtime", "0", "--format", "crc",
		path, "init",
	))

	store, c := testutil.ReadArchive(t, path)
	assert.Equal(t, archive.CompressionGzip, c)
	assert.Equal(t, testutil.Initrd(t).Paths(), store.Paths())

	e, ok := store.Get("init")
	require.True(t, ok)
	assert.Equal(t, uint64(1000), e.UID)
	assert.Equal(t, uint64(0), e.GID)
	assert.Equal(t, cpio.TypeReg|0o700, e.FileMode())
	assert.Equal(t, uint64(0), e.MTime)
	assert.Equal(t, cpio.FormatCRC, e.Format)
	assert.Equal(t, []byte("#!/bin/busybox sh\n"), e.Payload())
}

func TestModifyKeepsType(t *testing.T) {
	path := testutil.WriteArchive(t, "initrd.cpio", testutil.Initrd(t), archive.CompressionNone)

	ctx, _, _ := testutil.Context(t)
	require.NoError(t, testutil.Execute(ctx, NewCmd(), "-m", "755", path, "etc"))

	store, _ := testutil.ReadArchive(t, path)
	e, ok := store.Get("etc")
	require.True(t, ok)
	assert.Equal(t, cpio.TypeDir|0o755, e.FileMode())
}

func TestModifyNotFound(t *testing.T) {
	path := testutil.WriteArchive(t, "initrd.cpio", testutil.Initrd(t), archive.CompressionNone)

	ctx, _, _ := testutil.Context(t)
	err := testutil.Execute(ctx, NewCmd(), "-u", "0", path, "nope")
	assert.True(t, cpio.IsNotFound(err))
}

func TestModifyInvalidFlags(t *testing.T) {
	path := testutil.WriteArchive(t, "initrd.cpio", testutil.Initrd(t), archive.CompressionNone)

	for _, args := range [][]string{
		{path, "init"},
		{"-m", "9", path, "init"},
		{"--format", "odc", path, "init"},
		{"--mtime", "later", path, "init"},
		{"-g", "-5", path, "init"},
		{"-u", "0", path},
	} {
		ctx, _, _ := testutil.Context(t)

		var flagErr *cmdfactory.FlagError
		assert.ErrorAs(t, testutil.Execute(ctx, NewCmd(), args...), &flagErr, args)
	}
}
