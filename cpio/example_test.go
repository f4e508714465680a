// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpio_test

import (
	"fmt"
	"log"

	"kraftkit.sh/cpiokit/cpio"
)

func Example() {
	// Start from an empty archive.
	store := cpio.NewStore()

	// Add some files to the archive.
	files := []struct {
		Name, Body string
	}{
		{"readme.txt", "This archive contains some text files."},
		{"gopher.txt", "Gopher names:\nGeorge\nGeoffrey\nGonzo"},
		{"todo.txt", "Get animal handling license."},
	}
	for _, file := range files {
		var err error
		store, err = store.Add(file.Name, []byte(file.Body), cpio.Metadata{
			Mode: uint64(cpio.TypeReg | 0o600),
		})
		if err != nil {
			log.Fatalln(err)
		}
	}

	// Encode the archive.
	data, err := cpio.Write(store)
	if err != nil {
		log.Fatalln(err)
	}

	// Decode it again.
	store, err = cpio.Read(data)
	if err != nil {
		log.Fatalln(err)
	}

	// Iterate through the files in the archive.
	for _, e := range store.Entries() {
		fmt.Printf("Contents of %s:\n%s\n", e.Path(), e.Payload())
	}
	// Output:
	// Contents of readme.txt:
	// This archive contains some text files.
	// Contents of gopher.txt:
	// Gopher names:
	// George
	// Geoffrey
	// Gonzo
	// Contents of todo.txt:
	// Get animal handling license.
}

func ExampleStore_Modify() {
	store, err := cpio.NewStore().Add("bin/busybox", []byte("\x7fELF"), cpio.Metadata{
		Mode: uint64(cpio.TypeReg | 0o755),
	})
	if err != nil {
		log.Fatalln(err)
	}

	// Modifications return a new store and leave the receiver untouched.
	modified, err := store.Modify("bin/busybox", cpio.WithMode(0o4755), cpio.WithUID(0))
	if err != nil {
		log.Fatalln(err)
	}

	for _, s := range []*cpio.Store{store, modified} {
		for _, l := range s.List() {
			fmt.Printf("%s %s %d\n", l.FileMode().Octal(), l.Path, l.Size)
		}
	}
	// Output:
	// 100755 bin/busybox 4
	// 104755 bin/busybox 4
}

func ExampleStore_Delete() {
	store := cpio.NewStore()
	for _, name := range []string{"a", "b", "c"} {
		store, _ = store.Add(name, nil, cpio.Metadata{})
	}

	store, err := store.Delete("b")
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Println(store.Paths())

	_, err = store.Delete("b")
	fmt.Println(cpio.IsNotFound(err))
	// Output:
	// [a c]
	// true
}
