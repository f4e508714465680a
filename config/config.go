// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package config holds the user configuration of cpiokit, read from a YAML
// file and overridden by environment variables and command-line flags.
package config

import (
	"fmt"
	"slices"
)

type CpioKit struct {
	NoColor          bool   `yaml:"no_color" env:"CPIOKIT_NO_COLOR" long:"no-color" usage:"Disable colored output" default:"false"`
	Compression      string `yaml:"compression" env:"CPIOKIT_COMPRESSION" long:"compression" usage:"Compression of written archives (auto, gzip, zstd, none)" default:"auto"`
	CompressionLevel int    `yaml:"compression_level" env:"CPIOKIT_COMPRESSION_LEVEL" long:"compression-level" usage:"Compression level of written archives, 0 selects the codec default" default:"0"`
	Concurrency      int    `yaml:"concurrency" env:"CPIOKIT_CONCURRENCY" long:"concurrency" usage:"Number of workers verifying checksums, 0 selects one per CPU" default:"0"`

	Paths struct {
		Config string `yaml:"config,omitempty" env:"CPIOKIT_PATHS_CONFIG" long:"config-dir" usage:"Path to the cpiokit config directory" noattribute:"true"`
		Unpack string `yaml:"unpack,omitempty" env:"CPIOKIT_PATHS_UNPACK" long:"unpack-dir" usage:"Parent directory of temporary unpack destinations"`
	} `yaml:"paths,omitempty"`

	Log struct {
		Level      string `yaml:"level" env:"CPIOKIT_LOG_LEVEL" long:"log-level" usage:"Log level verbosity" default:"info"`
		Timestamps bool   `yaml:"timestamps" env:"CPIOKIT_LOG_TIMESTAMPS" long:"log-timestamps" usage:"Enable log timestamps"`
		Type       string `yaml:"type" env:"CPIOKIT_LOG_TYPE" long:"log-type" usage:"Log type" default:"fancy"`
	} `yaml:"log"`
}

type ConfigDetail struct {
	Key           string
	Description   string
	AllowedValues []string
}

var configDetails = []ConfigDetail{
	{
		Key:           "compression",
		Description:   "the compression applied when saving an archive; auto keeps the input's",
		AllowedValues: []string{"auto", "gzip", "zstd", "none"},
	},
	{
		Key:         "compression_level",
		Description: "the level passed to the compressor",
	},
	{
		Key:         "concurrency",
		Description: "the number of workers verifying payload checksums",
	},
	{
		Key:           "log.level",
		Description:   "Set the logging verbosity",
		AllowedValues: []string{"fatal", "error", "warn", "info", "debug", "trace"},
	},
	{
		Key:           "log.type",
		Description:   "Set the logging output style",
		AllowedValues: []string{"quiet", "basic", "fancy", "json"},
	},
	{
		Key:         "log.timestamps",
		Description: "Show timestamps with log output",
	},
}

func ConfigDetails() []ConfigDetail {
	return configDetails
}

// AllowedValues returns the values accepted for key, or nil if any value is.
func AllowedValues(key string) []string {
	for _, details := range configDetails {
		if details.Key == key {
			return details.AllowedValues
		}
	}

	return nil
}

// Validate checks every enumerated setting against its allowed values.
func (c *CpioKit) Validate() error {
	for key, value := range map[string]string{
		"compression": c.Compression,
		"log.level":   c.Log.Level,
		"log.type":    c.Log.Type,
	} {
		if allowed := AllowedValues(key); !slices.Contains(allowed, value) {
			return fmt.Errorf("invalid value %q for %s: expected one of %v", value, key, allowed)
		}
	}

	if c.CompressionLevel < 0 {
		return fmt.Errorf("invalid value %d for compression_level: must not be negative", c.CompressionLevel)
	}

	return nil
}
