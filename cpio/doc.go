// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

/*
Package cpio reads, edits and writes cpio archives in the portable ASCII
"newc" encoding (magic 070701) and its checksummed variant (magic 070702).

Unlike a streaming reader, the archive is decoded in full into an ordered
Store of entries keyed by path.  A Store is never modified in place: Add,
Delete and Modify each return a new Store, so operations can be chained and
only the final result handed to Write.

	store, err := cpio.Read(data)
	if err != nil {
		return err
	}

	store, err = store.Modify("init", cpio.WithMode(0o755))
	if err != nil {
		return err
	}

	out, err := cpio.Write(store)

Decompression of the stream and extraction of entries to a filesystem are
left to the caller.

See the cpio man page: https://www.freebsd.org/cgi/man.cgi?query=cpio&sektion=5
*/
package cpio
