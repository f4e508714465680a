// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Feeder reads configuration from, and writes it back to, a source.
type Feeder interface {
	Feed(structure interface{}) error
	Write(structure interface{}, merge bool) error
}

// ConfigManager holds the configuration and the feeders it is read from.
type ConfigManager struct {
	Config     *CpioKit
	ConfigFile string
	Feeders    []Feeder
}

type ConfigManagerOption func(cm *ConfigManager) error

func WithFeeder(feeder Feeder) ConfigManagerOption {
	return func(cm *ConfigManager) error {
		cm.Feeders = append(cm.Feeders, feeder)
		return nil
	}
}

// WithFile reads configuration from a YAML file.  A missing file is written
// with the current configuration if forceCreate is set and skipped
// otherwise.
func WithFile(file string, forceCreate bool) ConfigManagerOption {
	return func(cm *ConfigManager) error {
		switch ext := strings.ToLower(filepath.Ext(file)); ext {
		case ".yaml", ".yml":
		case "":
			return fmt.Errorf("unknown file extension for config file: %s", file)
		default:
			return fmt.Errorf("unsupported file extension: %s", file)
		}

		yml := YamlFeeder{File: file}

		if !fileExists(file) {
			if !forceCreate {
				return nil
			}

			if err := yml.Write(cm.Config, false); err != nil {
				return fmt.Errorf("could not write initial config: %v", err)
			}
		}

		cm.ConfigFile = file

		return WithFeeder(yml)(cm)
	}
}

// WithDefaultConfigFile reads the configuration file in ConfigDir, if it
// exists.
func WithDefaultConfigFile() ConfigManagerOption {
	return func(cm *ConfigManager) error {
		return WithFile(DefaultConfigFile(), false)(cm)
	}
}

func NewConfigManager(opts ...ConfigManagerOption) (*ConfigManager, error) {
	c, err := NewDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("could not seed default values for config: %s", err)
	}

	cm := &ConfigManager{Config: c}

	for _, o := range opts {
		if err := o(cm); err != nil {
			return nil, fmt.Errorf("could not apply config manager option: %v", err)
		}
	}

	// The manager is returned even if feeding fails since it still holds the
	// defaults.
	if err := cm.Feed(); err != nil {
		return cm, fmt.Errorf("could not feed config: %v", err)
	}

	return cm, nil
}

// Feed reads every feeder into the configuration, later feeders overriding
// earlier ones.
func (cm *ConfigManager) Feed() error {
	for _, f := range cm.Feeders {
		if err := f.Feed(cm.Config); err != nil {
			return fmt.Errorf("failed to feed config: %v", err)
		}
	}

	return nil
}

// Write saves the configuration through every feeder.
func (cm *ConfigManager) Write(merge bool) error {
	for _, f := range cm.Feeders {
		if err := f.Write(cm.Config, merge); err != nil {
			return err
		}
	}

	return nil
}
