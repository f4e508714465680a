// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
)

const (
	CPIOKIT_CONFIG_DIR = "CPIOKIT_CONFIG_DIR"
	XDG_CONFIG_HOME    = "XDG_CONFIG_HOME"
	APP_DATA           = "AppData"

	configFileName = "config.yaml"
)

// ConfigDir returns the directory holding the configuration file.
//
// Config path precedence
// 1. CPIOKIT_CONFIG_DIR
// 2. XDG_CONFIG_HOME
// 3. AppData (windows only)
// 4. HOME
func ConfigDir() string {
	if a := os.Getenv(CPIOKIT_CONFIG_DIR); a != "" {
		return a
	}

	if b := os.Getenv(XDG_CONFIG_HOME); b != "" {
		return filepath.Join(b, "cpiokit")
	}

	if c := os.Getenv(APP_DATA); runtime.GOOS == "windows" && c != "" {
		return filepath.Join(c, "CpioKit")
	}

	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".config", "cpiokit")
	}

	return filepath.Join(home, ".config", "cpiokit")
}

// DefaultConfigFile returns the path of the configuration file.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// ExpandPath resolves a leading "~" in a configured path.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

func fileExists(path string) bool {
	f, err := os.Stat(path)
	return err == nil && !f.IsDir()
}
