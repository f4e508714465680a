// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package main

import (
	"os"

	"kraftkit.sh/cpiokit/internal/cli/cpiokit"
)

func main() {
	os.Exit(cpiokit.Main(os.Args[1:]))
}
