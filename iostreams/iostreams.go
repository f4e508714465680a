// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package iostreams holds the standard streams of the program along with
// what is known about the terminal behind them.
package iostreams

import (
	"bytes"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const defaultTerminalWidth = 80

type IOStreams struct {
	In     io.ReadCloser
	Out    io.Writer
	ErrOut io.Writer

	colorEnabled bool
	is256enabled bool
	hasTrueColor bool

	stdinTTY  bool
	stdoutTTY bool
	stderrTTY bool

	termWidthOverride int
}

// System returns the streams of the running process.
func System() *IOStreams {
	stdoutIsTTY := isTerminal(os.Stdout)
	stderrIsTTY := isTerminal(os.Stderr)

	streams := &IOStreams{
		In:           os.Stdin,
		Out:          colorable.NewColorable(os.Stdout),
		ErrOut:       colorable.NewColorable(os.Stderr),
		colorEnabled: EnvColorForced() || (!EnvColorDisabled() && stdoutIsTTY),
		is256enabled: Is256ColorSupported(),
		hasTrueColor: IsTrueColorSupported(),
		stdinTTY:     isTerminal(os.Stdin),
		stdoutTTY:    stdoutIsTTY,
		stderrTTY:    stderrIsTTY,
	}

	return streams
}

// Test returns streams backed by buffers, along with the buffers.
func Test() (*IOStreams, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	return &IOStreams{
		In:     io.NopCloser(in),
		Out:    out,
		ErrOut: errOut,
	}, in, out, errOut
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *IOStreams) ColorEnabled() bool {
	return s.colorEnabled
}

// SetColorEnabled forces colored output on or off.
func (s *IOStreams) SetColorEnabled(enabled bool) {
	s.colorEnabled = enabled
}

func (s *IOStreams) IsStdinTTY() bool  { return s.stdinTTY }
func (s *IOStreams) IsStdoutTTY() bool { return s.stdoutTTY }
func (s *IOStreams) IsStderrTTY() bool { return s.stderrTTY }

// SetStdoutTTY overrides terminal detection of the output stream.
func (s *IOStreams) SetStdoutTTY(isTTY bool) {
	s.stdoutTTY = isTTY
}

// TerminalWidth returns the width of the terminal attached to the output
// stream, or a default if there is none.
func (s *IOStreams) TerminalWidth() int {
	if s.termWidthOverride > 0 {
		return s.termWidthOverride
	}

	if f, ok := s.Out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}

	return defaultTerminalWidth
}

// ForceTerminal makes the streams behave as if attached to a terminal of the
// given width.
func (s *IOStreams) ForceTerminal(width int) {
	s.stdoutTTY = true
	s.termWidthOverride = width
}

func (s *IOStreams) ColorScheme() *ColorScheme {
	return NewColorScheme(s.colorEnabled, s.is256enabled, s.hasTrueColor)
}
