// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package session loads an archive file into a store, applies edits to it
// and writes the result back.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/log"
)

// Session is one archive file opened for editing.
type Session struct {
	path        string
	output      string
	create      bool
	compression archive.Compression
	level       int
	readOpts    []cpio.ReadOption

	detected archive.Compression
	mode     fs.FileMode
	store    *cpio.Store
	changed  bool
}

type Option func(*Session) error

// WithOutput saves to path instead of overwriting the opened archive.
func WithOutput(path string) Option {
	return func(s *Session) error {
		s.output = path
		return nil
	}
}

// WithCompression sets the compression used when saving.  The default,
// archive.CompressionAuto, keeps the compression of the opened archive.
func WithCompression(c archive.Compression) Option {
	return func(s *Session) error {
		s.compression = c
		return nil
	}
}

// WithCompressionLevel sets the level passed to the compressor.
func WithCompressionLevel(level int) Option {
	return func(s *Session) error {
		if level < 0 {
			return fmt.Errorf("invalid compression level: %d", level)
		}

		s.level = level
		return nil
	}
}

// WithReadOptions sets the options the archive is parsed with.
func WithReadOptions(opts ...cpio.ReadOption) Option {
	return func(s *Session) error {
		s.readOpts = append(s.readOpts, opts...)
		return nil
	}
}

// WithCreate starts from an empty archive when the file does not exist.
func WithCreate(create bool) Option {
	return func(s *Session) error {
		s.create = create
		return nil
	}
}

// Open reads, decompresses and parses the archive at path.
func Open(ctx context.Context, path string, opts ...Option) (*Session, error) {
	s := &Session{
		path:        path,
		compression: archive.CompressionAuto,
		detected:    archive.CompressionNone,
		mode:        0o644,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && s.create {
		log.G(ctx).WithField("archive", path).Debug("starting new archive")
		s.store = cpio.NewStore()
		s.changed = true
		return s, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not read archive: %w", err)
	}

	if fi, err := os.Stat(path); err == nil {
		s.mode = fi.Mode().Perm()
	}

	data, detected, err := archive.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s.detected = detected

	s.store, err = cpio.Read(data, s.readOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.G(ctx).WithFields(logrus.Fields{
		"archive":     path,
		"compression": detected,
		"entries":     s.store.Len(),
		"size":        humanize.IBytes(uint64(len(data))),
	}).Debug("opened archive")

	return s, nil
}

// New returns a session for store which does not exist on disk yet.  Unless
// WithCompression says otherwise it is compressed according to the
// extension of path when saved.
func New(ctx context.Context, path string, store *cpio.Store, opts ...Option) (*Session, error) {
	s := &Session{
		path:        path,
		compression: archive.CompressionAuto,
		detected:    archive.FromExtension(path),
		mode:        0o644,
		store:       store,
		changed:     true,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	log.G(ctx).WithFields(logrus.Fields{
		"archive": path,
		"entries": store.Len(),
	}).Debug("new archive")

	return s, nil
}

// Path returns the location the archive was opened from.
func (s *Session) Path() string {
	return s.path
}

// Store returns the current state of the archive.
func (s *Session) Store() *cpio.Store {
	return s.store
}

// Detected returns the compression of the opened archive.
func (s *Session) Detected() archive.Compression {
	return s.detected
}

// Changed reports whether any edit has been applied.
func (s *Session) Changed() bool {
	return s.changed
}

// Apply replaces the store with the result of fn.  The store is left as it
// was when fn fails.
func (s *Session) Apply(fn func(*cpio.Store) (*cpio.Store, error)) error {
	next, err := fn(s.store)
	if err != nil {
		return err
	}

	s.store = next
	s.changed = true

	return nil
}

// Destination returns the path Save writes to.
func (s *Session) Destination() string {
	if s.output != "" {
		return s.output
	}

	return s.path
}

// Save writes the archive when it was changed or an output other than the
// opened file was requested.  The file is replaced atomically.  It returns
// the path written, or an empty string when there was nothing to do.
func (s *Session) Save(ctx context.Context) (string, error) {
	dest := s.Destination()
	if !s.changed && dest == s.path {
		log.G(ctx).WithField("archive", dest).Debug("archive unchanged, not saving")
		return "", nil
	}

	data, err := cpio.Write(s.store)
	if err != nil {
		return "", err
	}

	compression := s.compression.Resolve(s.detected)
	out, err := archive.Compress(data, compression, s.level)
	if err != nil {
		return "", err
	}

	if err := writeAtomic(dest, out, s.mode); err != nil {
		return "", err
	}

	log.G(ctx).WithFields(logrus.Fields{
		"archive":     dest,
		"compression": compression,
		"entries":     s.store.Len(),
		"size":        humanize.IBytes(uint64(len(out))),
	}).Debug("saved archive")

	s.path = dest
	s.output = ""
	s.changed = false

	return dest, nil
}

// writeAtomic writes data to a temporary file next to dest and renames it
// into place.
func writeAtomic(dest string, data []byte, mode fs.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}

	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("could not write %s: %w", tmp, err)
	}

	if err := f.Chmod(mode); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("could not replace %s: %w", dest, err)
	}

	return nil
}
