// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/initrd"
	"kraftkit.sh/cpiokit/log"
)

// ErrMissingParent is returned when adding below a directory the archive
// does not contain.
var ErrMissingParent = errors.New("parent directory is not in the archive")

// Edit is one change to an archive.
type Edit func(*cpio.Store) (*cpio.Store, error)

// AddSpec describes a local file added to an archive.
type AddSpec struct {
	// Path the file is stored under.
	Path string `yaml:"path"`

	// File is the local file providing content and metadata.
	File string `yaml:"file"`

	UID  *uint64 `yaml:"uid,omitempty"`
	GID  *uint64 `yaml:"gid,omitempty"`
	Mode string  `yaml:"mode,omitempty"`

	// Force skips the check for the parent directory.
	Force bool `yaml:"force,omitempty"`

	// Replace removes an entry already stored under Path.  Its inode is
	// reused.
	Replace bool `yaml:"replace,omitempty"`
}

// Edit returns the change described by spec.
func (spec AddSpec) Edit(ctx context.Context) Edit {
	return func(store *cpio.Store) (*cpio.Store, error) {
		if spec.File == "" {
			return nil, fmt.Errorf("add %s: no local file given", spec.Path)
		}

		payload, md, err := initrd.FromFile(ctx, spec.File)
		if err != nil {
			return nil, err
		}

		if !spec.Force {
			if err := checkParent(store, spec.Path); err != nil {
				return nil, err
			}
		}

		if existing, ok := store.Get(spec.Path); ok && spec.Replace {
			md.Inode = existing.Inode

			if store, err = store.Delete(spec.Path); err != nil {
				return nil, err
			}
		}

		if spec.UID != nil {
			md.UID = *spec.UID
		}
		if spec.GID != nil {
			md.GID = *spec.GID
		}
		if spec.Mode != "" {
			perm, err := ParseMode(spec.Mode)
			if err != nil {
				return nil, err
			}

			md.Mode = uint64(md.FileMode().Type() | perm)
		}

		log.G(ctx).WithFields(logrus.Fields{
			"path": spec.Path,
			"file": spec.File,
			"type": md.FileMode().TypeName(),
			"size": humanize.IBytes(uint64(len(payload))),
		}).Debug("adding")

		return store.Add(spec.Path, payload, md)
	}
}

// checkParent requires the directory containing name to be in the store,
// unless name is at the top level.
func checkParent(store *cpio.Store, name string) error {
	parent := path.Dir(strings.TrimPrefix(path.Clean(name), "/"))
	if parent == "." {
		return nil
	}

	for _, candidate := range []string{parent, "./" + parent, "/" + parent} {
		e, ok := store.Get(candidate)
		if !ok {
			continue
		}

		if !e.FileMode().IsDir() {
			return fmt.Errorf("cannot add %s: %s is a %s", name, candidate, e.FileMode().TypeName())
		}

		return nil
	}

	return fmt.Errorf("cannot add %s: %s: %w", name, parent, ErrMissingParent)
}

// DeleteSpec describes entries removed from an archive.
type DeleteSpec struct {
	Paths []string `yaml:"paths"`

	// Recursive also removes every entry below each path.
	Recursive bool `yaml:"recursive,omitempty"`
}

// Edit returns the change described by spec.
func (spec DeleteSpec) Edit(ctx context.Context) Edit {
	return func(store *cpio.Store) (*cpio.Store, error) {
		if len(spec.Paths) == 0 {
			return nil, fmt.Errorf("delete: no paths given")
		}

		removed := map[string]bool{}

		for _, name := range spec.Paths {
			// Already gone with a directory named earlier.
			if removed[name] {
				continue
			}

			if !store.Has(name) {
				return nil, &cpio.Error{Op: "delete", Path: name, Offset: -1, Err: cpio.ErrNotFound}
			}

			targets := []string{name}
			if spec.Recursive {
				prefix := strings.TrimSuffix(name, "/") + "/"
				for _, p := range store.Paths() {
					if strings.HasPrefix(p, prefix) {
						targets = append(targets, p)
					}
				}
			}

			for _, target := range targets {
				var err error
				if store, err = store.Delete(target); err != nil {
					return nil, err
				}

				removed[target] = true
				log.G(ctx).WithField("path", target).Debug("deleted")
			}
		}

		return store, nil
	}
}

// ModifySpec describes a change to the fields of one entry.  Empty fields
// are left as they are.
type ModifySpec struct {
	Path string `yaml:"path"`

	UID  *uint64 `yaml:"uid,omitempty"`
	GID  *uint64 `yaml:"gid,omitempty"`
	Mode string  `yaml:"mode,omitempty"`

	// Data names a local file whose content replaces the payload.
	Data string `yaml:"data,omitempty"`

	MTime  string `yaml:"mtime,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Options converts spec into modify options.
func (spec ModifySpec) Options() ([]cpio.ModifyOption, error) {
	var opts []cpio.ModifyOption

	if spec.UID != nil {
		opts = append(opts, cpio.WithUID(*spec.UID))
	}

	if spec.GID != nil {
		opts = append(opts, cpio.WithGID(*spec.GID))
	}

	if spec.Mode != "" {
		perm, err := ParseMode(spec.Mode)
		if err != nil {
			return nil, err
		}

		opts = append(opts, cpio.WithMode(perm))
	}

	if spec.MTime != "" {
		t, err := ParseTime(spec.MTime)
		if err != nil {
			return nil, err
		}

		opts = append(opts, cpio.WithMTime(t))
	}

	if spec.Format != "" {
		f, err := ParseFormat(spec.Format)
		if err != nil {
			return nil, err
		}

		opts = append(opts, cpio.WithFormat(f))
	}

	if spec.Data != "" {
		data, err := os.ReadFile(spec.Data)
		if err != nil {
			return nil, fmt.Errorf("could not read data: %w", err)
		}

		opts = append(opts, cpio.WithPayload(data))
	}

	if len(opts) == 0 {
		return nil, fmt.Errorf("modify %s: nothing to change", spec.Path)
	}

	return opts, nil
}

// Edit returns the change described by spec.
func (spec ModifySpec) Edit(ctx context.Context) Edit {
	return func(store *cpio.Store) (*cpio.Store, error) {
		opts, err := spec.Options()
		if err != nil {
			return nil, err
		}

		log.G(ctx).WithField("path", spec.Path).Debug("modifying")

		return store.Modify(spec.Path, opts...)
	}
}

// Formats returns the header formats which can be written.
func Formats() []cpio.Format {
	return []cpio.Format{cpio.FormatNewc, cpio.FormatCRC}
}

// ParseFormat returns the header format with the given name.
func ParseFormat(name string) (cpio.Format, error) {
	i := slices.IndexFunc(Formats(), func(f cpio.Format) bool {
		return f.String() == name
	})
	if i < 0 {
		return 0, fmt.Errorf("unknown format %q: expected newc or crc", name)
	}

	return Formats()[i], nil
}
