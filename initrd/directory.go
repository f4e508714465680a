// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package initrd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/log"
)

// Directory is a root filesystem on the host which can be turned into a
// store.
type Directory struct {
	opts   DirectoryOptions
	path   string
	ignore *ignoreList
}

// NewFromDirectory prepares the directory at path for packing.  The ignore
// file at its root, if any, is read immediately.
func NewFromDirectory(ctx context.Context, path string, opts ...DirectoryOption) (*Directory, error) {
	path = strings.TrimRight(path, string(filepath.Separator))
	dir := Directory{
		opts: DirectoryOptions{
			ignoreFile: IgnoreFileName,
		},
		path:   path,
		ignore: &ignoreList{},
	}

	for _, opt := range opts {
		if err := opt(&dir.opts); err != nil {
			return nil, err
		}
	}

	fi, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", path)
	} else if err != nil {
		return nil, fmt.Errorf("could not check path: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("supplied path is not a directory: %s", path)
	}

	if dir.opts.ignoreFile != "" {
		dir.ignore, err = loadIgnoreFile(ctx, filepath.Join(path, dir.opts.ignoreFile))
		if err != nil {
			return nil, err
		}
	}

	return &dir, nil
}

// Path returns the location of the directory on the host.
func (dir *Directory) Path() string {
	return dir.path
}

// Store walks the directory in lexical order, so every directory precedes
// its contents, and returns a store holding one entry per file.  Sockets
// and ignored paths are left out.
func (dir *Directory) Store(ctx context.Context) (*cpio.Store, error) {
	store := cpio.NewStore()

	err := filepath.WalkDir(dir.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("received error before parsing path: %w", err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir.path, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if rel == dir.opts.ignoreFile || dir.ignore.Match(rel) {
			log.G(ctx).WithField("path", rel).Trace("ignoring")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSocket != 0 {
			log.G(ctx).Warnf("unsupported file: %s", path)
			return nil
		}

		payload, md, err := FromFile(ctx, path)
		if err != nil {
			return err
		}

		if dir.opts.owner != nil {
			md.UID, md.GID = dir.opts.owner[0], dir.opts.owner[1]
		}

		if store, err = store.Add(rel, payload, md); err != nil {
			return err
		}

		if dir.opts.format != cpio.FormatNewc {
			if store, err = store.Modify(rel, cpio.WithFormat(dir.opts.format)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk %s: %w", dir.path, err)
	}

	return store, nil
}
