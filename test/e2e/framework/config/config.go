// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2023, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package config provides facilities for manipulating cpiokit configuration
// files on the local filesystem.
package config

import (
	"os"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	"gopkg.in/yaml.v3"
)

// Config is a YAML-serializable cpiokit configuration.
// It provides facilities for reading and writing individual configuration
// attributes from/to a file.
//
// This type is purposely decoupled from cpiokit's internal configuration
// facilities to allow testing the CLI from an outside perspective.
type Config struct {
	path string
	dir  string
}

// NewTempConfig creates a temporary cpiokit configuration file on the local
// filesystem which logs without colors and unpacks below a temporary
// directory.
//
// A ginkgo cleanup node is automatically created to handle the removal of the
// (temporary) parent directory of this configuration file.
func NewTempConfig() *Config {
	const offset = 1

	tmpDir, err := os.MkdirTemp("", "cpiokit-e2e-*")
	if err != nil {
		ginkgo.Fail("Error creating temporary directory for configuration: "+err.Error(), offset)
	}
	ginkgo.DeferCleanup(
		func() error {
			return os.RemoveAll(tmpDir)
		},
		ginkgo.Offset(offset),
	)

	for _, sub := range []string{"config", "unpack"} {
		if err := os.Mkdir(filepath.Join(tmpDir, sub), 0o755); err != nil {
			ginkgo.Fail("Error creating temporary subdirectory "+sub+": "+err.Error(), offset)
		}
	}

	c := &Config{
		path: filepath.Join(tmpDir, "config", "config.yaml"),
		dir:  tmpDir,
	}

	c.write(map[string]any{
		"log": map[string]any{
			"type":  "basic",
			"level": "info",
		},
		"paths": map[string]any{
			"unpack": filepath.Join(tmpDir, "unpack"),
		},
	}, offset+1)

	return c
}

// Path returns the path to the cpiokit configuration.
func (c *Config) Path() string {
	return c.path
}

// Dir returns the temporary directory holding the configuration.
func (c *Config) Dir() string {
	return c.dir
}

// Read returns the value at the given path of keys, or nil.
func (c *Config) Read(keys ...string) any {
	var v any = c.read(2)

	for _, key := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}

		v = m[key]
	}

	return v
}

// Set sets the value at the given path of keys, creating intermediate
// sections as needed.
func (c *Config) Set(value any, keys ...string) {
	const offset = 1

	if len(keys) == 0 {
		ginkgo.Fail("No configuration key given", offset)
	}

	doc := c.read(offset + 1)

	m := doc
	for _, key := range keys[:len(keys)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}

		m = next
	}

	m[keys[len(keys)-1]] = value

	c.write(doc, offset+1)
}

func (c *Config) read(offset int) map[string]any {
	b, err := os.ReadFile(c.path)
	if err != nil {
		ginkgo.Fail("Error reading configuration file: "+err.Error(), offset)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		ginkgo.Fail("Error parsing configuration file: "+err.Error(), offset)
	}

	return doc
}

func (c *Config) write(doc map[string]any, offset int) {
	b, err := yaml.Marshal(doc)
	if err != nil {
		ginkgo.Fail("Error creating configuration YAML: "+err.Error(), offset)
	}

	if err := os.WriteFile(c.path, b, 0o644); err != nil {
		ginkgo.Fail("Error writing configuration file: "+err.Error(), offset)
	}
}
