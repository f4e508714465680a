// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package version

import (
	"fmt"
	"runtime"
)

// Set at link time through -ldflags "-X kraftkit.sh/cpiokit/internal/version.version=...".
var (
	version   = "No version provided"
	commit    = "No commit provided"
	buildTime = "No build timestamp provided"
)

// Version returns cpiokit's version string.
func Version() string {
	return version
}

// Commit return cpiokit's HEAD Git commit SHA.
func Commit() string {
	return commit
}

// BuildTime returns the time in which the package or binary was built.
func BuildTime() string {
	return buildTime
}

// String returns all version information.
func String() string {
	return fmt.Sprintf("%s (%s) %s %s/%s %s",
		version,
		commit,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
		buildTime,
	)
}
