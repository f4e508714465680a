// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cli

import (
	"github.com/sirupsen/logrus"

	"kraftkit.sh/cpiokit/config"
	"kraftkit.sh/cpiokit/iostreams"
	"kraftkit.sh/cpiokit/log"
)

// CliOptions holds the shared facilities every command finds in its context.
type CliOptions struct {
	IOStreams     *iostreams.IOStreams
	Logger        *logrus.Logger
	ConfigManager *config.ConfigManager
}

type CliOption func(*CliOptions) error

// WithDefaultConfigManager reads the configuration file in the default
// location, if there is one.
func WithDefaultConfigManager() CliOption {
	return func(copts *CliOptions) error {
		if copts.ConfigManager != nil {
			return nil
		}

		cfgm, err := config.NewConfigManager(
			config.WithDefaultConfigFile(),
		)
		if err != nil {
			return err
		}

		copts.ConfigManager = cfgm
		return nil
	}
}

// WithConfigManager sets a previously instantiate ConfigManager to be used as
// part of the CLI options.
func WithConfigManager(cfgm *config.ConfigManager) CliOption {
	return func(copts *CliOptions) error {
		copts.ConfigManager = cfgm
		return nil
	}
}

// WithIOStreams sets a previously instantiated iostreams.IOStreams structure to
// be used within the command.
func WithIOStreams(streams *iostreams.IOStreams) CliOption {
	return func(copts *CliOptions) error {
		copts.IOStreams = streams
		return nil
	}
}

// WithDefaultIOStreams instantiates ta new IO streams using environmental
// variables and host-provided configuration.
func WithDefaultIOStreams() CliOption {
	return func(copts *CliOptions) error {
		if copts.IOStreams != nil {
			return nil
		}

		copts.IOStreams = iostreams.System()

		if copts.ConfigManager != nil && copts.ConfigManager.Config.NoColor {
			copts.IOStreams.SetColorEnabled(false)
		}

		return nil
	}
}

// WithDefaultLogger sets up the built in logger based on provided config found
// from the ConfigManager.
func WithDefaultLogger() CliOption {
	return func(copts *CliOptions) error {
		if copts.Logger != nil {
			return nil
		}

		copts.Logger = logrus.New()

		if copts.ConfigManager == nil {
			return nil
		}

		ConfigureLogger(copts.Logger, copts.ConfigManager.Config, copts.IOStreams)
		return nil
	}
}

// ConfigureLogger applies the log settings of cfg to logger.  It is called
// once on start up and again after flags have been parsed.
func ConfigureLogger(logger *logrus.Logger, cfg *config.CpioKit, streams *iostreams.IOStreams) {
	switch log.LoggerTypeFromString(cfg.Log.Type) {
	case log.QUIET:
		logger.Formatter = new(logrus.TextFormatter)

	case log.BASIC:
		formatter := &log.TextFormatter{
			FullTimestamp:    true,
			DisableTimestamp: !cfg.Log.Timestamps,
			DisableColors:    true,
		}
		logger.Formatter = formatter

	case log.FANCY:
		formatter := &log.TextFormatter{
			FullTimestamp:    true,
			DisableTimestamp: !cfg.Log.Timestamps,
			DisableColors:    cfg.NoColor,
		}
		logger.Formatter = formatter

	case log.JSON:
		logger.Formatter = &logrus.JSONFormatter{
			DisableTimestamp: !cfg.Log.Timestamps,
		}
	}

	level, ok := log.Levels()[cfg.Log.Level]
	if !ok {
		level = logrus.InfoLevel
	}
	if log.LoggerTypeFromString(cfg.Log.Type) == log.QUIET {
		level = logrus.ErrorLevel
	}
	logger.SetLevel(level)

	if streams != nil {
		logger.SetOutput(streams.ErrOut)
	}
}
