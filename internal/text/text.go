// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package text measures and shapes terminal text which may contain ANSI
// escape sequences and wide runes.
package text

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
)

const ellipsis = "..."

// DisplayWidth returns the number of terminal cells s occupies, ignoring
// escape sequences.
func DisplayWidth(s string) int {
	return ansi.PrintableRuneWidth(s)
}

// Truncate shortens s to at most max cells, marking the cut with an
// ellipsis when there is room for one.
func Truncate(max int, s string) string {
	if max <= 0 || DisplayWidth(s) <= max {
		return s
	}

	if max <= len(ellipsis) {
		return runewidth.Truncate(s, max, "")
	}

	return truncate.StringWithTail(s, uint(max), ellipsis)
}

// PadRight appends spaces to s until it occupies width cells.
func PadRight(width int, s string) string {
	if pad := width - DisplayWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}

	return s
}

// Indent prefixes every line of s with n spaces.
func Indent(s string, n uint) string {
	return indent.String(s, n)
}

// Pluralize returns "1 entry" or "n entries" style phrases.
func Pluralize(num int, thing string) string {
	if num == 1 {
		return fmt.Sprintf("%d %s", num, thing)
	}

	if strings.HasSuffix(thing, "y") {
		return fmt.Sprintf("%d %sies", num, strings.TrimSuffix(thing, "y"))
	}

	return fmt.Sprintf("%d %ss", num, thing)
}
