// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioArchive() []byte {
	return rawArchive(
		regular("a", 1, strings.Repeat("A", 100)),
		regular("b", 2, ""),
	)
}

func TestAddAppends(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Add("0-first-alphabetically", []byte("new"), Metadata{Mode: uint64(TypeReg | 0o600), UID: 1000, GID: 1000})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "0-first-alphabetically"}, next.Paths())
	assert.Equal(t, []string{"a", "b"}, store.Paths())

	e, ok := next.Get("0-first-alphabetically")
	require.True(t, ok)
	assert.Equal(t, uint64(3), e.Inode)
	assert.Equal(t, uint64(1), e.NLink)
	assert.Equal(t, uint64(1000), e.UID)
	assert.Equal(t, TypeReg|0o600, e.FileMode())
	assert.Equal(t, int64(3), e.Size())

	requireWellFormed(t, mustWrite(t, next))
}

func TestAddDefaults(t *testing.T) {
	store, err := NewStore().Add("file", nil, Metadata{})
	require.NoError(t, err)

	e, _ := store.Get("file")
	assert.Equal(t, Metadata{Inode: 1, Mode: uint64(TypeReg), NLink: 1}, e.Metadata)

	store, err = store.Add("dir", nil, Metadata{Inode: 40, Mode: uint64(TypeDir | 0o755), NLink: 2})
	require.NoError(t, err)

	e, _ = store.Get("dir")
	assert.Equal(t, Metadata{Inode: 40, Mode: uint64(TypeDir | 0o755), NLink: 2}, e.Metadata)
	assert.Equal(t, uint64(41), store.NextInode())
}

func TestAddDuplicatePath(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Add("b", []byte("again"), Metadata{})
	require.ErrorIs(t, err, ErrDuplicatePath)
	assert.Nil(t, next)
	assert.Equal(t, scenarioArchive(), mustWrite(t, store))
}

func TestAddInvalidPath(t *testing.T) {
	for _, path := range []string{"", Trailer, "a\x00b"} {
		_, err := NewStore().Add(path, nil, Metadata{})
		assert.ErrorIs(t, err, ErrInvalidPath, "%q", path)
	}
}

func TestAddCopiesPayload(t *testing.T) {
	payload := []byte("original")

	store, err := NewStore().Add("a", payload, Metadata{})
	require.NoError(t, err)

	copy(payload, "mutated!")

	e, _ := store.Get("a")
	assert.Equal(t, "original", string(e.Payload()))

	out := e.Payload()
	out[0] = 'X'
	assert.Equal(t, "original", string(e.Payload()))
}

func TestAddThenDeleteRestores(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	added, err := store.Add("c", []byte("transient"), Metadata{})
	require.NoError(t, err)

	restored, err := added.Delete("c")
	require.NoError(t, err)

	if diff := cmp.Diff(store.List(), restored.List()); diff != "" {
		t.Errorf("store not restored (-want +got):\n%s", diff)
	}
	assert.Equal(t, scenarioArchive(), mustWrite(t, restored))
}

func TestDeleteScenario(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Delete("b")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, next.Paths())

	out := mustWrite(t, next)
	assert.Equal(t, rawArchive(regular("a", 1, strings.Repeat("A", 100))), out)
	assert.NotContains(t, string(out), "b\x00")
	requireWellFormed(t, out)
}

func TestDeleteKeepsOrder(t *testing.T) {
	var entries []rawEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, regular(fmt.Sprintf("f%d", i), uint64(i+1), strings.Repeat("x", i)))
	}

	store := mustRead(t, rawArchive(entries...))

	next, err := store.Delete("f4")
	require.NoError(t, err)
	next, err = next.Delete("f0")
	require.NoError(t, err)

	assert.Equal(t, []string{"f1", "f2", "f3", "f5", "f6", "f7", "f8", "f9"}, next.Paths())

	for _, p := range next.Paths() {
		e, ok := next.Get(p)
		require.True(t, ok, p)
		assert.Equal(t, p, e.Path())
	}
}

func TestDeleteNotFound(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Delete("c")
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.Nil(t, next)

	assert.Equal(t, []string{"a", "b"}, store.Paths())
	assert.Equal(t, scenarioArchive(), mustWrite(t, store))
}

func TestModifyModeScenario(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Modify("a", WithMode(0o4777))
	require.NoError(t, err)

	list := next.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Path)
	assert.Equal(t, "4777", list[0].FileMode().Perm().Octal())
	assert.Equal(t, TypeReg, list[0].FileMode().Type())
	assert.Equal(t, int64(100), list[0].Size)

	a, _ := next.Get("a")
	assert.Equal(t, strings.Repeat("A", 100), string(a.Payload()))

	orig, _ := store.Get("a")
	assert.Equal(t, TypeReg|0o644, orig.FileMode())
}

func TestModifyOwnership(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Modify("b", WithUID(1000), WithGID(50), WithMTime(time.Unix(1700000000, 0)))
	require.NoError(t, err)

	b, _ := next.Get("b")
	assert.Equal(t, uint64(1000), b.UID)
	assert.Equal(t, uint64(50), b.GID)
	assert.Equal(t, uint64(1700000000), b.MTime)
	assert.Equal(t, uint64(2), b.Inode)
	assert.Equal(t, TypeReg|0o644, b.FileMode())
}

func TestModifyIdempotent(t *testing.T) {
	data := scenarioArchive()
	store := mustRead(t, data)

	next, err := store.Modify("a",
		WithUID(0),
		WithGID(0),
		WithMode(0o644),
		WithPayload([]byte(strings.Repeat("A", 100))),
	)
	require.NoError(t, err)
	assert.Equal(t, data, mustWrite(t, next))

	next, err = store.Modify("a")
	require.NoError(t, err)
	assert.Equal(t, data, mustWrite(t, next))
}

func TestModifyPayload(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Modify("b", WithPayload([]byte("now b has content")))
	require.NoError(t, err)

	b, _ := next.Get("b")
	assert.Equal(t, int64(17), b.Size())
	assert.Equal(t, uint64(2), b.NameSize())

	out := mustWrite(t, next)
	requireWellFormed(t, out)

	reread := mustRead(t, out)
	b, _ = reread.Get("b")
	assert.Equal(t, "now b has content", string(b.Payload()))

	b, _ = store.Get("b")
	assert.Zero(t, b.Size())
}

func TestModifyPayloadNotRegular(t *testing.T) {
	store, err := NewStore().Add("etc", nil, Metadata{Mode: uint64(TypeDir | 0o755)})
	require.NoError(t, err)

	_, err = store.Modify("etc", WithPayload([]byte("hello")))
	require.ErrorIs(t, err, ErrNotRegular)

	etc, _ := store.Get("etc")
	assert.True(t, etc.FileMode().IsDir())
	assert.Zero(t, etc.Size())
}

func TestEntriesDoNotAlias(t *testing.T) {
	s1 := mustRead(t, scenarioArchive())

	s2, err := s1.Modify("a", WithUID(1))
	require.NoError(t, err)
	s3, err := s2.Add("c", nil, Metadata{})
	require.NoError(t, err)

	a, _ := s3.Get("a")
	a.UID = 99
	for _, e := range s3.Entries() {
		e.GID = 99
	}

	for _, s := range []*Store{s2, s3} {
		a, _ := s.Get("a")
		assert.Equal(t, uint64(1), a.UID)
		assert.Zero(t, a.GID)
	}

	assert.Equal(t, scenarioArchive(), mustWrite(t, s1))
}

func TestModifyNotFound(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	_, err := store.Modify("c", WithUID(1))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestModifyRejectsFileType(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	_, err := store.Modify("a", WithMode(TypeDir|0o755))
	require.Error(t, err)

	a, _ := store.Get("a")
	assert.Equal(t, TypeReg|0o644, a.FileMode())
}

func TestChainedMutationsStayWellFormed(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	store := NewStore()

	for step := 0; step < 500; step++ {
		paths := store.Paths()
		name := fmt.Sprintf("dir/%s", strings.Repeat("n", rng.Intn(9)+1))
		payload := []byte(strings.Repeat("p", rng.Intn(17)))

		var err error
		switch op := rng.Intn(3); {
		case op == 0 || len(paths) == 0:
			if store.Has(name) {
				continue
			}
			store, err = store.Add(name, payload, Metadata{Mode: uint64(rng.Intn(0o7777))})
		case op == 1:
			store, err = store.Delete(paths[rng.Intn(len(paths))])
		default:
			store, err = store.Modify(paths[rng.Intn(len(paths))], WithPayload(payload), WithMode(FileMode(rng.Intn(0o7777))))
		}
		require.NoError(t, err, "step %d", step)

		out := mustWrite(t, store)
		requireWellFormed(t, out)
		require.Equal(t, store.Paths(), mustRead(t, out).Paths(), "step %d", step)
	}
}

func TestModifyFormat(t *testing.T) {
	store := mustRead(t, scenarioArchive())

	next, err := store.Modify("a", WithFormat(FormatCRC))
	require.NoError(t, err)

	data := mustWrite(t, next)
	assert.Equal(t, MagicCRC, string(data[:6]))

	back := mustRead(t, data)
	e, ok := back.Get("a")
	require.True(t, ok)
	assert.Equal(t, FormatCRC, e.Format)

	_, err = store.Modify("a", WithFormat(Format(7)))
	assert.Error(t, err)
}
