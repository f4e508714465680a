// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"fmt"
	"slices"
)

// Store is the ordered set of entries of an archive.  Order is the order in
// which entries appear on disk; paths are unique.
//
// The zero value is an empty store.  A Store is never changed once it has
// been returned to a caller.
type Store struct {
	entries []*Entry
	index   map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of entries, excluding the trailer.
func (s *Store) Len() int {
	return len(s.entries)
}

// Get returns a copy of the entry stored under path.  Changing it does not
// affect the store.
func (s *Store) Get(path string) (*Entry, bool) {
	i, ok := s.index[path]
	if !ok {
		return nil, false
	}

	return s.entries[i].clone(), true
}

// Has returns whether an entry is stored under path.
func (s *Store) Has(path string) bool {
	_, ok := s.index[path]
	return ok
}

// Entries returns copies of the entries in archive order.
func (s *Store) Entries() []*Entry {
	entries := make([]*Entry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = e.clone()
	}

	return entries
}

// Paths returns the entry paths in archive order.
func (s *Store) Paths() []string {
	paths := make([]string, len(s.entries))
	for i, e := range s.entries {
		paths[i] = e.path
	}

	return paths
}

// NextInode returns an inode number greater than any used by the store.
func (s *Store) NextInode() uint64 {
	var highest uint64
	for _, e := range s.entries {
		highest = max(highest, e.Inode)
	}

	return highest + 1
}

// List returns the path and metadata of every entry in archive order.
func (s *Store) List() []Listing {
	list := make([]Listing, len(s.entries))
	for i, e := range s.entries {
		list[i] = e.listing()
	}

	return list
}

// Unpack returns every entry along with a copy of its payload, in archive
// order.  Parents precede their children whenever they do so in the archive.
func (s *Store) Unpack() []Member {
	members := make([]Member, len(s.entries))
	for i, e := range s.entries {
		members[i] = Member{
			Listing: e.listing(),
			Payload: e.Payload(),
		}
	}

	return members
}

func (e *Entry) listing() Listing {
	return Listing{
		Path:     e.path,
		Metadata: e.Metadata,
		Format:   e.Format,
		Size:     e.Size(),
	}
}

// clone returns a store sharing s's entries which can be changed without
// affecting s.  Shared entries are never modified; Modify replaces them.
func (s *Store) clone() *Store {
	c := &Store{
		entries: slices.Clone(s.entries),
		index:   make(map[string]int, len(s.entries)+1),
	}

	for k, v := range s.index {
		c.index[k] = v
	}

	return c
}

// push appends e.  It must only be called on a store not yet handed out.
func (s *Store) push(e *Entry) error {
	if _, ok := s.index[e.path]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, e.path)
	}

	if s.index == nil {
		s.index = make(map[string]int)
	}

	s.index[e.path] = len(s.entries)
	s.entries = append(s.entries, e)

	return nil
}

// remove deletes the entry at i, compacting the remaining entries so their
// relative order is kept.
func (s *Store) remove(i int) {
	s.entries = slices.Delete(s.entries, i, i+1)
	s.reindex()
}

func (s *Store) reindex() {
	clear(s.index)
	if s.index == nil {
		s.index = make(map[string]int, len(s.entries))
	}

	for i, e := range s.entries {
		s.index[e.path] = i
	}
}
