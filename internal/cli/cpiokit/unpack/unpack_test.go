// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package unpack

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/internal/testutil"
)

func TestUnpack(t *testing.T) {
	path := testutil.WriteArchive(t, "initrd.cpio.zst", testutil.Initrd(t), archive.CompressionZstd)
	dst := filepath.Join(t.TempDir(), "rootfs")
	ctx, out, _ := testutil.Context(t)

	require.NoError(t, testutil.Execute(ctx, NewCmd(), "-o", dst, path))
	assert.Equal(t, dst, strings.TrimSpace(out.String()))

	data, err := os.ReadFile(filepath.Join(dst, "etc", "hostname"))
	require.NoError(t, err)
	assert.Equal(t, "initrd\n", string(data))

	target, err := os.Readlink(filepath.Join(dst, "bin", "sh"))
	require.NoError(t, err)
	assert.Equal(t, "busybox", target)

	fi, err := os.Stat(filepath.Join(dst, "bin", "busybox"))
	require.NoError(t, err)
	assert.Equal(t, os.ModeSetuid|0o755, fi.Mode()&(os.ModeSetuid|os.ModePerm))
}

func TestUnpackTemporary(t *testing.T) {
	path := testutil.WriteArchive(t, "initrd.cpio", testutil.Initrd(t), archive.CompressionNone)
	ctx, out, _ := testutil.Context(t)

	require.NoError(t, testutil.Execute(ctx, NewCmd(), path))

	dst := strings.TrimSpace(out.String())
	t.Cleanup(func() { os.RemoveAll(dst) })

	assert.FileExists(t, filepath.Join(dst, "init"))
}

func TestUnpackNotEmpty(t *testing.T) {
	path := testutil.WriteArchive(t, "initrd.cpio", testutil.Initrd(t), archive.CompressionNone)
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "init"), []byte("old"), 0o644))

	ctx, _, _ := testutil.Context(t)
	err := testutil.Execute(ctx, NewCmd(), "-o", dst, path)
	assert.ErrorIs(t, err, archive.ErrNotEmpty)

	ctx, _, _ = testutil.Context(t)
	require.NoError(t, testutil.Execute(ctx, NewCmd(), "-f", "-o", dst, path))

	data, err := os.ReadFile(filepath.Join(dst, "init"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nexec /bin/sh\n", string(data))
}

func TestUnpackMissing(t *testing.T) {
	ctx, _, _ := testutil.Context(t)
	err := testutil.Execute(ctx, NewCmd(), filepath.Join(t.TempDir(), "nope.cpio"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
