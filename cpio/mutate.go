// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"fmt"
	"strings"
	"time"
)

// Add returns a store with a new entry appended after all existing entries.
// The payload is copied.
//
// Metadata left at zero is defaulted: the inode to NextInode, the link count
// to one and a mode without file type bits to a regular file.  Owner and
// permission bits are taken as given.
func (s *Store) Add(path string, payload []byte, md Metadata) (*Store, error) {
	if err := validatePath(path); err != nil {
		return nil, &Error{Op: "add", Path: path, Offset: -1, Err: err}
	}

	if s.Has(path) {
		return nil, &Error{Op: "add", Path: path, Offset: -1, Err: ErrDuplicatePath}
	}

	if md.Inode == 0 {
		md.Inode = s.NextInode()
	}
	if md.NLink == 0 {
		md.NLink = 1
	}
	if md.FileMode().Type() == 0 {
		md.Mode |= uint64(TypeReg)
	}

	next := s.clone()
	if err := next.push(NewEntry(path, payload, md)); err != nil {
		return nil, &Error{Op: "add", Path: path, Offset: -1, Err: err}
	}

	return next, nil
}

// Delete returns a store without the entry at path.  The order of the
// remaining entries is kept.
func (s *Store) Delete(path string) (*Store, error) {
	i, ok := s.index[path]
	if !ok {
		return nil, &Error{Op: "delete", Path: path, Offset: -1, Err: ErrNotFound}
	}

	next := s.clone()
	next.remove(i)

	return next, nil
}

// ModifyOption changes one field of an entry.
type ModifyOption func(*Entry) error

// WithUID sets the owner.
func WithUID(uid uint64) ModifyOption {
	return func(e *Entry) error {
		e.UID = uid
		return nil
	}
}

// WithGID sets the group.
func WithGID(gid uint64) ModifyOption {
	return func(e *Entry) error {
		e.GID = gid
		return nil
	}
}

// WithMode replaces the permission bits, including setuid, setgid and
// sticky.  The file type of the entry is kept.
func WithMode(perm FileMode) ModifyOption {
	return func(e *Entry) error {
		if perm.Type() != 0 {
			return fmt.Errorf("mode %s has file type bits set", perm.Octal())
		}

		e.Mode = uint64(e.FileMode().Type() | perm)
		return nil
	}
}

// WithMTime sets the modification time.
func WithMTime(t time.Time) ModifyOption {
	return func(e *Entry) error {
		if t.Unix() < 0 {
			return fmt.Errorf("mtime %s precedes the epoch", t)
		}

		e.MTime = uint64(t.Unix())
		return nil
	}
}

// WithPayload replaces the data of the entry with a copy of payload.  Only
// regular files carry data.
func WithPayload(payload []byte) ModifyOption {
	return func(e *Entry) error {
		if !e.FileMode().IsRegular() {
			return fmt.Errorf("%w: %s", ErrNotRegular, e.FileMode().TypeName())
		}

		e.payload = ownPayload(payload)
		return nil
	}
}

// WithFormat selects the header signature the entry is written with.
func WithFormat(f Format) ModifyOption {
	return func(e *Entry) error {
		if f != FormatNewc && f != FormatCRC {
			return fmt.Errorf("unknown format %d", f)
		}

		e.Format = f
		return nil
	}
}

// Modify returns a store in which the entry at path has the given options
// applied.  Fields not named by an option are unchanged; the path cannot be
// changed.
func (s *Store) Modify(path string, opts ...ModifyOption) (*Store, error) {
	i, ok := s.index[path]
	if !ok {
		return nil, &Error{Op: "modify", Path: path, Offset: -1, Err: ErrNotFound}
	}

	entry := s.entries[i].clone()
	for _, opt := range opts {
		if err := opt(entry); err != nil {
			return nil, &Error{Op: "modify", Path: path, Offset: -1, Err: err}
		}
	}

	next := s.clone()
	next.entries[i] = entry

	return next, nil
}

func validatePath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	case path == Trailer:
		return fmt.Errorf("%w: %s is reserved for the trailer", ErrInvalidPath, Trailer)
	case strings.IndexByte(path, 0) >= 0:
		return fmt.Errorf("%w: contains NUL", ErrInvalidPath)
	case uint64(len(path))+1 > MaxFieldValue:
		return fmt.Errorf("%w: too long", ErrInvalidPath)
	}

	return nil
}
