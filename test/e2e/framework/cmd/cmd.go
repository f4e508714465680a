// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2023, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	gomegafmt "github.com/onsi/gomega/format"

	"kraftkit.sh/cpiokit/config"
	"kraftkit.sh/cpiokit/internal/cli"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit"
	"kraftkit.sh/cpiokit/iostreams"
)

// NewCpioKit returns a cpiokit invocation that uses the given IO streams and
// reads its configuration from cfgPath.
func NewCpioKit(stdout, stderr *IOStream, cfgPath string) *Cmd {
	return &Cmd{
		Stdout:     stdout,
		Stderr:     stderr,
		ConfigPath: cfgPath,
	}
}

// Cmd is one invocation of the cpiokit command line, run within the test
// process.
type Cmd struct {
	Args       []string
	Stdin      io.Reader
	Stdout     *IOStream
	Stderr     *IOStream
	ConfigPath string
}

// Run runs the command and returns an ExitError carrying the content of
// stderr if it exits with a non-zero status.
func (c *Cmd) Run() error {
	var opts []config.ConfigManagerOption
	if c.ConfigPath != "" {
		opts = append(opts, config.WithFile(c.ConfigPath, false))
	}

	cfgm, err := config.NewConfigManager(opts...)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	stdin := c.Stdin
	if stdin == nil {
		stdin = &bytes.Buffer{}
	}

	streams := &iostreams.IOStreams{
		In:     io.NopCloser(stdin),
		Out:    c.Stdout,
		ErrOut: c.Stderr,
	}

	code := cpiokit.Execute(context.Background(), c.Args,
		cli.WithIOStreams(streams),
		cli.WithConfigManager(cfgm),
	)
	if code != 0 {
		return &ExitError{Code: code, Stderr: c.Stderr.String()}
	}

	return nil
}

// IOStream represents an IO stream to be used by commands and suitable for
// assertions and reporting in tests.
type IOStream struct {
	b *bytes.Buffer
}

var (
	_ io.ReadWriter            = (*IOStream)(nil)
	_ fmt.Stringer             = (*IOStream)(nil)
	_ gomegafmt.GomegaStringer = (*IOStream)(nil)
)

// NewIOStream returns an initialized IOStream.
func NewIOStream() *IOStream {
	return &IOStream{
		b: &bytes.Buffer{},
	}
}

func (s *IOStream) Read(p []byte) (n int, err error) {
	return s.b.Read(p)
}

func (s *IOStream) Write(p []byte) (n int, err error) {
	return s.b.Write(p)
}

func (s *IOStream) String() string {
	return s.b.String()
}

func (s *IOStream) GomegaString() string {
	return s.String()
}

// ExitError is returned for a non-zero exit status and can be pretty-printed
// through a gomega matcher.
type ExitError struct {
	Code   int
	Stderr string
}

var (
	_ error                    = (*ExitError)(nil)
	_ gomegafmt.GomegaStringer = (*ExitError)(nil)
)

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) GomegaString() string {
	return e.Stderr
}
