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

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/log"
)

// FromFile returns the payload and metadata of the local file at path
// without following a final symlink.  Regular files carry their content and
// symlinks their target.  The inode is left zero so that the store assigns
// one.
func FromFile(ctx context.Context, path string) ([]byte, cpio.Metadata, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil, cpio.Metadata{}, err
	}

	md := metadata(fi)

	var payload []byte
	switch {
	case fi.Mode().IsRegular():
		payload, err = os.ReadFile(path)
	case fi.Mode()&fs.ModeSymlink != 0:
		var target string
		target, err = os.Readlink(path)
		payload = []byte(target)
	}
	if err != nil {
		return nil, cpio.Metadata{}, fmt.Errorf("could not read %s: %w", path, err)
	}

	log.G(ctx).WithFields(logrus.Fields{
		"file": path,
		"mode": md.FileMode().Octal(),
		"size": humanize.IBytes(uint64(len(payload))),
	}).Trace("read local file")

	return payload, md, nil
}

// metadata converts the portable part of fi and fills the rest from the
// platform's stat structure where available.
func metadata(fi fs.FileInfo) cpio.Metadata {
	md := cpio.Metadata{
		Mode:  uint64(cpio.FileModeFromOS(fi.Mode())),
		NLink: 1,
	}

	if mtime := fi.ModTime().Unix(); mtime > 0 {
		md.MTime = uint64(mtime)
	}

	populate(fi, &md)

	return md
}
