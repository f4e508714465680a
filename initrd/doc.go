// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package initrd turns files and directories of the host into cpio entries,
// either one file at a time for adding to an existing archive or a whole
// root filesystem at once.
package initrd
