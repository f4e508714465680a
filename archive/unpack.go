// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/log"
)

// ErrNotEmpty is returned when unpacking into a directory which already has
// content without WithForce.
var ErrNotEmpty = errors.New("destination is not empty")

// errUnsupported is returned by mknod on platforms without device nodes.
var errUnsupported = errors.New("unsupported on this platform")

// attrs are the attributes applied to a path once all content is written.
type attrs struct {
	path  string
	mode  cpio.FileMode
	mtime time.Time
	uid   int
	gid   int
}

// Unpack materialises members below dst and returns the directory used.  An
// empty dst unpacks into a new temporary directory.
func Unpack(ctx context.Context, members []cpio.Member, dst string, opts ...UnpackOption) (string, error) {
	uo := UnpackOptions{}
	for _, opt := range opts {
		if err := opt(&uo); err != nil {
			return "", err
		}
	}

	dst, err := prepare(dst, uo)
	if err != nil {
		return "", err
	}

	var pending []attrs

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return dst, err
		}

		target, err := resolve(dst, m.Path)
		if err != nil {
			return dst, err
		}

		mode := m.FileMode()

		log.G(ctx).WithFields(logrus.Fields{
			"path": m.Path,
			"type": mode.TypeName(),
			"size": humanize.IBytes(uint64(m.Size)),
		}).Trace("unpacking")

		if target == dst {
			// The archive root itself, commonly stored as ".".
			if mode.IsDir() {
				pending = append(pending, attrsOf(dst, m))
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return dst, fmt.Errorf("could not create parent of %s: %w", m.Path, err)
		}

		if mode.Type() == cpio.TypeDir {
			if err := replaceNonDir(target, uo.force); err != nil {
				return dst, fmt.Errorf("could not replace %s: %w", m.Path, err)
			}
		} else if err := replaceExisting(target, uo.force); err != nil {
			return dst, fmt.Errorf("could not replace %s: %w", m.Path, err)
		}

		switch mode.Type() {
		case cpio.TypeDir:
			if err := os.MkdirAll(target, 0o700); err != nil {
				return dst, fmt.Errorf("could not create directory %s: %w", m.Path, err)
			}

		case cpio.TypeReg:
			if err := os.WriteFile(target, m.Payload, 0o600); err != nil {
				return dst, fmt.Errorf("could not write %s: %w", m.Path, err)
			}

		case cpio.TypeSymlink:
			if err := os.Symlink(string(m.Payload), target); err != nil {
				return dst, fmt.Errorf("could not create symlink %s: %w", m.Path, err)
			}

		case cpio.TypeFifo, cpio.TypeChar, cpio.TypeBlock:
			err := mknod(target, mode, m.RDevMajor, m.RDevMinor)
			if errors.Is(err, errUnsupported) || errors.Is(err, fs.ErrPermission) {
				log.G(ctx).WithField("path", m.Path).Warnf("skipping %s: %v", mode.TypeName(), err)
				continue
			} else if err != nil {
				return dst, fmt.Errorf("could not create %s %s: %w", mode.TypeName(), m.Path, err)
			}

		default:
			log.G(ctx).WithField("path", m.Path).Warnf("skipping %s", mode.TypeName())
			continue
		}

		pending = append(pending, attrsOf(target, m))
	}

	// Attributes are applied deepest first so that setting a directory's
	// mode or mtime happens after everything inside it was written.
	slices.SortStableFunc(pending, func(a, b attrs) int {
		return len(b.path) - len(a.path)
	})

	for _, a := range pending {
		if err := apply(a, uo.ownership); err != nil {
			return dst, err
		}
	}

	return dst, nil
}

func attrsOf(target string, m cpio.Member) attrs {
	return attrs{
		path:  target,
		mode:  m.FileMode(),
		mtime: time.Unix(int64(m.MTime), 0),
		uid:   int(m.UID),
		gid:   int(m.GID),
	}
}

// prepare creates the destination, or a temporary one when dst is empty.
func prepare(dst string, uo UnpackOptions) (string, error) {
	if dst == "" {
		return os.MkdirTemp(uo.tempDir, "cpiokit-")
	}

	entries, err := os.ReadDir(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return dst, os.MkdirAll(dst, 0o755)
	} else if err != nil {
		return "", err
	}

	if len(entries) > 0 && !uo.force {
		return "", fmt.Errorf("%s: %w", dst, ErrNotEmpty)
	}

	return dst, nil
}

// resolve returns the location of name below dst.  Symlinks in the parent
// directories are followed without leaving dst while the final element is
// kept as is, so that symlink members are created rather than followed.
func resolve(dst, name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return dst, nil
	}

	parent, err := securejoin.SecureJoin(dst, path.Dir(clean))
	if err != nil {
		return "", fmt.Errorf("could not resolve %s: %w", name, err)
	}

	return filepath.Join(parent, path.Base(clean)), nil
}

// replaceExisting removes whatever is at target when force is set.
func replaceExisting(target string, force bool) error {
	if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	if !force {
		return fs.ErrExist
	}

	return os.RemoveAll(target)
}

// replaceNonDir makes way for a directory at target.  An existing directory
// is kept; anything else, symlinks included, is only removed when force is
// set.
func replaceNonDir(target string, force bool) error {
	fi, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	if fi.IsDir() {
		return nil
	}

	if !force {
		return fs.ErrExist
	}

	return os.RemoveAll(target)
}

func apply(a attrs, ownership bool) error {
	// A later member may have replaced the path with a symlink, which chmod
	// and chtimes would follow out of the destination.
	fi, err := os.Lstat(a.path)
	if err != nil {
		return fmt.Errorf("could not stat %s: %w", a.path, err)
	}
	if fi.Mode()&fs.ModeSymlink != 0 && !a.mode.IsSymlink() {
		return fmt.Errorf("%s is no longer a %s", a.path, a.mode.TypeName())
	}

	if ownership {
		if err := os.Lchown(a.path, a.uid, a.gid); err != nil {
			return fmt.Errorf("could not change owner of %s: %w", a.path, err)
		}
	}

	// Symlinks carry no mode of their own and os.Chtimes would follow them.
	if a.mode.IsSymlink() {
		return nil
	}

	perm := a.mode.OS() & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)
	if err := os.Chmod(a.path, perm); err != nil {
		return fmt.Errorf("could not change mode of %s: %w", a.path, err)
	}

	if err := os.Chtimes(a.path, a.mtime, a.mtime); err != nil {
		return fmt.Errorf("could not change times of %s: %w", a.path, err)
	}

	return nil
}
