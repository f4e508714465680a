// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package log carries a logrus logger through a context.Context.
package log

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// G is an alias for FromContext.
	G = FromContext

	// L is the logger used when none has been attached to a context.
	L = logrus.StandardLogger()
)

type contextKey struct{}

// WithLogger returns a new context carrying the provided logger.
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger in the context, or the standard logger if
// there is none.
func FromContext(ctx context.Context) *logrus.Logger {
	l, ok := ctx.Value(contextKey{}).(*logrus.Logger)
	if !ok || l == nil {
		return L
	}

	return l
}

// Levels returns a map of log level names to their logrus equivalent.
func Levels() map[string]logrus.Level {
	return map[string]logrus.Level{
		"panic":   logrus.PanicLevel,
		"fatal":   logrus.FatalLevel,
		"error":   logrus.ErrorLevel,
		"warning": logrus.WarnLevel,
		"warn":    logrus.WarnLevel,
		"info":    logrus.InfoLevel,
		"debug":   logrus.DebugLevel,
		"trace":   logrus.TraceLevel,
	}
}

// LoggerType controls how log statements are output.
type LoggerType uint

const (
	QUIET LoggerType = iota
	BASIC
	FANCY
	JSON
)

var loggerTypeNames = map[LoggerType]string{
	QUIET: "quiet",
	BASIC: "basic",
	FANCY: "fancy",
	JSON:  "json",
}

// LoggerTypeFromString parses a logger type, falling back to BASIC.
func LoggerTypeFromString(name string) LoggerType {
	name = strings.ToLower(name)
	for t, n := range loggerTypeNames {
		if n == name {
			return t
		}
	}

	return BASIC
}

func (t LoggerType) String() string {
	if name, ok := loggerTypeNames[t]; ok {
		return name
	}

	return loggerTypeNames[BASIC]
}

// LoggerTypeNames returns the accepted logger type names.
func LoggerTypeNames() []string {
	return []string{"quiet", "basic", "fancy", "json"}
}
