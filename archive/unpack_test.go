// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package archive

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kraftkit.sh/cpiokit/cpio"
)

var mtime = time.Date(2023, 5, 17, 12, 0, 0, 0, time.UTC)

func member(path string, mode cpio.FileMode, payload string) cpio.Member {
	m := cpio.Member{
		Listing: cpio.Listing{
			Path: path,
			Metadata: cpio.Metadata{
				Mode:  uint64(mode),
				NLink: 1,
				MTime: uint64(mtime.Unix()),
			},
			Size: int64(len(payload)),
		},
	}

	if payload != "" {
		m.Payload = []byte(payload)
	}

	return m
}

func tree() []cpio.Member {
	return []cpio.Member{
		member(".", cpio.TypeDir|0o755, ""),
		member("bin", cpio.TypeDir|0o755, ""),
		member("bin/busybox", cpio.TypeReg|0o4755, "\x7fELF"),
		member("bin/sh", cpio.TypeSymlink|0o777, "busybox"),
		member("etc", cpio.TypeDir|0o700, ""),
		member("etc/hostname", cpio.TypeReg|0o644, "initrd\n"),
		member("init", cpio.TypeReg|0o755, "#!/bin/sh\n"),
	}
}

func TestUnpack(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "root")

	out, err := Unpack(context.Background(), tree(), dst)
	require.NoError(t, err)
	assert.Equal(t, dst, out)

	content, err := os.ReadFile(filepath.Join(dst, "etc", "hostname"))
	require.NoError(t, err)
	assert.Equal(t, "initrd\n", string(content))

	link, err := os.Readlink(filepath.Join(dst, "bin", "sh"))
	require.NoError(t, err)
	assert.Equal(t, "busybox", link)

	fi, err := os.Stat(filepath.Join(dst, "bin", "busybox"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o755)|fs.ModeSetuid, fi.Mode())
	assert.True(t, fi.ModTime().Equal(mtime))

	fi, err = os.Stat(filepath.Join(dst, "etc"))
	require.NoError(t, err)
	assert.Equal(t, fs.ModeDir|0o700, fi.Mode())
	assert.True(t, fi.ModTime().Equal(mtime), "directory mtime survives its children")

	fi, err = os.Stat(filepath.Join(dst, "init"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), fi.Size())
}

func TestUnpackTempDir(t *testing.T) {
	parent := t.TempDir()

	out, err := Unpack(context.Background(), tree(), "", WithTempDir(parent))
	require.NoError(t, err)
	assert.Equal(t, parent, filepath.Dir(out))
	assert.FileExists(t, filepath.Join(out, "init"))
}

func TestUnpackNotEmpty(t *testing.T) {
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "init"), []byte("old"), 0o644))

	_, err := Unpack(context.Background(), tree(), dst)
	assert.ErrorIs(t, err, ErrNotEmpty)

	_, err = Unpack(context.Background(), tree(), dst, WithForce(true))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dst, "init"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(content))
}

func TestUnpackConfined(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "dst")

	members := []cpio.Member{
		member("../escape", cpio.TypeReg|0o644, "x"),
		member("up", cpio.TypeSymlink|0o777, "../.."),
		member("up/through-link", cpio.TypeReg|0o644, "y"),
	}

	_, err := Unpack(context.Background(), members, dst)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "escape"))
	assert.FileExists(t, filepath.Join(dst, "escape"))
	assert.NoFileExists(t, filepath.Join(root, "through-link"))
	assert.FileExists(t, filepath.Join(dst, "through-link"))
}

// victim returns a directory outside of any destination along with its
// original mode and mtime.
func victim(t *testing.T, root string) (string, fs.FileInfo) {
	t.Helper()

	dir := filepath.Join(root, "victim")
	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.Chmod(dir, 0o700))

	fi, err := os.Stat(dir)
	require.NoError(t, err)

	return dir, fi
}

func requireUntouched(t *testing.T, dir string, before fs.FileInfo) {
	t.Helper()

	after, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, before.Mode(), after.Mode())
	assert.True(t, before.ModTime().Equal(after.ModTime()))
}

func TestUnpackDirectoryOverSymlink(t *testing.T) {
	root := t.TempDir()
	outside, before := victim(t, root)

	members := []cpio.Member{
		member("./x", cpio.TypeSymlink|0o777, outside),
		member("x", cpio.TypeDir|0o777, ""),
	}

	_, err := Unpack(context.Background(), members, filepath.Join(root, "dst"))
	assert.ErrorIs(t, err, fs.ErrExist)
	requireUntouched(t, outside, before)

	dst := filepath.Join(root, "forced")
	_, err = Unpack(context.Background(), members, dst, WithForce(true))
	require.NoError(t, err)
	requireUntouched(t, outside, before)

	fi, err := os.Lstat(filepath.Join(dst, "x"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestUnpackSymlinkOverDirectory(t *testing.T) {
	root := t.TempDir()
	outside, before := victim(t, root)

	members := []cpio.Member{
		member("x", cpio.TypeDir|0o777, ""),
		member("x", cpio.TypeSymlink|0o777, outside),
	}

	_, err := Unpack(context.Background(), members, filepath.Join(root, "dst"), WithForce(true))
	assert.Error(t, err)
	requireUntouched(t, outside, before)
}

func TestUnpackFifo(t *testing.T) {
	dst := t.TempDir()

	_, err := Unpack(context.Background(), []cpio.Member{
		member("pipe", cpio.TypeFifo|0o600, ""),
	}, dst)
	require.NoError(t, err)

	fi, err := os.Lstat(filepath.Join(dst, "pipe"))
	if err != nil {
		// Platforms without mknod skip the member.
		assert.ErrorIs(t, err, fs.ErrNotExist)
		return
	}

	assert.Equal(t, fs.ModeNamedPipe, fi.Mode().Type())
}

func TestUnpackCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Unpack(ctx, tree(), t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
