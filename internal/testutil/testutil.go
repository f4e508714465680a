// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package testutil builds archives and command contexts for tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/iostreams"
	"kraftkit.sh/cpiokit/log"
)

// Initrd returns a small root filesystem as a store.
func Initrd(t *testing.T) *cpio.Store {
	t.Helper()

	store := cpio.NewStore()
	for _, e := range []struct {
		path string
		mode cpio.FileMode
		data string
	}{
		{"bin", cpio.TypeDir | 0o755, ""},
		{"bin/busybox", cpio.TypeReg | cpio.ModeSetuid | 0o755, "\x7fELF"},
		{"bin/sh", cpio.TypeSymlink | 0o777, "busybox"},
		{"etc", cpio.TypeDir | 0o755, ""},
		{"etc/hostname", cpio.TypeReg | 0o644, "initrd\n"},
		{"init", cpio.TypeReg | 0o755, "#!/bin/sh\nexec /bin/sh\n"},
	} {
		var err error
		store, err = store.Add(e.path, []byte(e.data), cpio.Metadata{
			Mode:  uint64(e.mode),
			MTime: 1700000000,
		})
		require.NoError(t, err)
	}

	return store
}

// WriteArchive serialises store with the given compression into a file
// named name in a new temporary directory and returns its path.
func WriteArchive(t *testing.T, name string, store *cpio.Store, c archive.Compression) string {
	t.Helper()

	data, err := cpio.Write(store)
	require.NoError(t, err)

	data, err = archive.Compress(data, c, 0)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

// ReadArchive parses the possibly compressed archive at path.
func ReadArchive(t *testing.T, path string) (*cpio.Store, archive.Compression) {
	t.Helper()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	data, c, err := archive.Decompress(raw)
	require.NoError(t, err)

	store, err := cpio.Read(data)
	require.NoError(t, err)

	return store, c
}

// Context returns a context with test streams and a logger writing to the
// returned error buffer.
func Context(t *testing.T) (context.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	streams, _, out, errOut := iostreams.Test()

	logger := logrus.New()
	logger.SetOutput(errOut)
	logger.SetLevel(logrus.DebugLevel)

	ctx := iostreams.WithIOStreams(context.Background(), streams)
	ctx = log.WithLogger(ctx, logger)

	return ctx, out, errOut
}

// Execute runs cmd with args in ctx.
func Execute(ctx context.Context, cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
