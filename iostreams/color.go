// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package iostreams

import (
	"fmt"
	"os"
	"strings"

	"github.com/mgutz/ansi"
)

var (
	Magenta = ansi.ColorFunc("magenta")
	Cyan    = ansi.ColorFunc("cyan")
	Red     = ansi.ColorFunc("red")
	Yellow  = ansi.ColorFunc("yellow")
	Blue    = ansi.ColorFunc("blue")
	Green   = ansi.ColorFunc("green")
	Gray    = ansi.ColorFunc("black+h")
	Bold    = ansi.ColorFunc("default+b")

	Gray256 = func(t string) string {
		return fmt.Sprintf("\x1b[%d;5;%dm%s\x1b[m", 38, 242, t)
	}
)

func EnvColorDisabled() bool {
	return os.Getenv("NO_COLOR") != "" || os.Getenv("CLICOLOR") == "0"
}

func EnvColorForced() bool {
	return os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0"
}

func Is256ColorSupported() bool {
	return IsTrueColorSupported() ||
		strings.Contains(os.Getenv("TERM"), "256") ||
		strings.Contains(os.Getenv("COLORTERM"), "256")
}

func IsTrueColorSupported() bool {
	for _, v := range []string{os.Getenv("TERM"), os.Getenv("COLORTERM")} {
		if strings.Contains(v, "24bit") || strings.Contains(v, "truecolor") {
			return true
		}
	}

	return false
}

type ColorScheme struct {
	enabled      bool
	is256enabled bool
	hasTrueColor bool
}

func NewColorScheme(enabled, is256enabled, trueColor bool) *ColorScheme {
	return &ColorScheme{
		enabled:      enabled,
		is256enabled: is256enabled,
		hasTrueColor: trueColor,
	}
}

func (c *ColorScheme) apply(fn func(string) string, t string) string {
	if !c.enabled {
		return t
	}

	return fn(t)
}

func (c *ColorScheme) Bold(t string) string    { return c.apply(Bold, t) }
func (c *ColorScheme) Red(t string) string     { return c.apply(Red, t) }
func (c *ColorScheme) Yellow(t string) string  { return c.apply(Yellow, t) }
func (c *ColorScheme) Green(t string) string   { return c.apply(Green, t) }
func (c *ColorScheme) Magenta(t string) string { return c.apply(Magenta, t) }
func (c *ColorScheme) Cyan(t string) string    { return c.apply(Cyan, t) }
func (c *ColorScheme) Blue(t string) string    { return c.apply(Blue, t) }

func (c *ColorScheme) Gray(t string) string {
	if c.is256enabled {
		return c.apply(Gray256, t)
	}

	return c.apply(Gray, t)
}

func (c *ColorScheme) Boldf(t string, args ...interface{}) string {
	return c.Bold(fmt.Sprintf(t, args...))
}

func (c *ColorScheme) SuccessIcon() string {
	return c.Green("✓")
}

func (c *ColorScheme) WarningIcon() string {
	return c.Yellow("!")
}

func (c *ColorScheme) FailureIcon() string {
	return c.Red("X")
}

// ColorFromString returns the function coloring text in the named color,
// or any mgutz/ansi style such as "red+b".
func (c *ColorScheme) ColorFromString(s string) func(string) string {
	switch strings.ToLower(s) {
	case "bold":
		return c.Bold
	case "red":
		return c.Red
	case "yellow":
		return c.Yellow
	case "green":
		return c.Green
	case "gray":
		return c.Gray
	case "magenta":
		return c.Magenta
	case "cyan":
		return c.Cyan
	case "blue":
		return c.Blue
	}

	if !c.enabled {
		return func(s string) string { return s }
	}

	return ansi.ColorFunc(s)
}
