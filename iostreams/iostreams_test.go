// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package iostreams

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestStreams(t *testing.T) {
	ios, _, out, errOut := Test()

	fmt.Fprint(ios.Out, "stdout")
	fmt.Fprint(ios.ErrOut, "stderr")

	assert.Equal(t, "stdout", out.String())
	assert.Equal(t, "stderr", errOut.String())
	assert.False(t, ios.IsStdoutTTY())
	assert.False(t, ios.ColorEnabled())
	assert.Equal(t, 120, func() int { ios.ForceTerminal(120); return ios.TerminalWidth() }())
	assert.True(t, ios.IsStdoutTTY())
}

func TestColorScheme(t *testing.T) {
	disabled := NewColorScheme(false, false, false)
	assert.Equal(t, "dir", disabled.Blue("dir"))
	assert.Equal(t, "x", disabled.ColorFromString("red+b")("x"))

	enabled := NewColorScheme(true, false, false)
	assert.Equal(t, Blue("dir"), enabled.Blue("dir"))
	assert.NotEqual(t, "dir", enabled.Blue("dir"))
	assert.Equal(t, Gray("x"), enabled.Gray("x"))

	enabled256 := NewColorScheme(true, true, false)
	assert.Equal(t, Gray256("x"), enabled256.Gray("x"))
}

func TestContext(t *testing.T) {
	assert.Same(t, IO, G(context.Background()))

	ios, _, _, _ := Test()
	ctx := WithIOStreams(context.Background(), ios)
	assert.Same(t, ios, G(ctx))
}
