// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const defaultTimestampFormat = time.RFC3339

var baseTimestamp = time.Now()

type renderFunc func(...string) string

// levelStyle is the badge printed in front of each formatted entry.
type levelStyle struct {
	text   string
	render renderFunc
}

func badge(bg string) renderFunc {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.AdaptiveColor{Light: "15", Dark: "0"}).
		Render
}

var (
	coloredLevels = map[logrus.Level]levelStyle{
		logrus.PanicLevel: {"X", badge("9")},
		logrus.FatalLevel: {"!", badge("9")},
		logrus.ErrorLevel: {"E", badge("9")},
		logrus.WarnLevel:  {"W", badge("11")},
		logrus.InfoLevel:  {"i", badge("8")},
		logrus.DebugLevel: {"D", badge("12")},
		logrus.TraceLevel: {"T", lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("15")).Render},
	}

	plain = lipgloss.NewStyle().Render
)

// TextFormatter renders entries as a short level badge followed by the
// message and its sorted fields when attached to a terminal, and as
// logfmt-style key=value pairs otherwise.
type TextFormatter struct {
	// Set to true to bypass checking for a TTY before outputting colors.
	ForceColors bool

	// Force disabling colors.
	DisableColors bool

	// Force formatted layout, even for non-TTY output.
	ForceFormatting bool

	// Disable timestamp logging.
	DisableTimestamp bool

	// Print the full timestamp instead of the seconds elapsed since start.
	FullTimestamp bool

	// Timestamp format used when a full timestamp is printed.
	TimestampFormat string

	isTerminal bool
	once       sync.Once
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Format implements logrus.Formatter.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	f.once.Do(func() {
		if entry.Logger != nil {
			f.isTerminal = isTerminal(entry.Logger.Out)
		}
	})

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}

	if f.ForceFormatting || f.isTerminal {
		f.printFormatted(b, entry, keys, tsFormat)
	} else {
		f.printPlain(b, entry, keys, tsFormat)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *TextFormatter) printFormatted(b *bytes.Buffer, entry *logrus.Entry, keys []string, tsFormat string) {
	style, ok := coloredLevels[entry.Level]
	if !ok {
		style = coloredLevels[logrus.DebugLevel]
	}

	render := style.render
	if !(f.ForceColors || f.isTerminal) || f.DisableColors {
		render = plain
	}

	b.WriteString(render(" " + style.text + " "))

	if !f.DisableTimestamp {
		if f.FullTimestamp {
			fmt.Fprintf(b, " %s", entry.Time.Format(tsFormat))
		} else {
			fmt.Fprintf(b, " [%04d]", int(time.Since(baseTimestamp)/time.Second))
		}
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	for _, k := range keys {
		fmt.Fprintf(b, " %s=%+v", render(k), entry.Data[k])
	}
}

func (f *TextFormatter) printPlain(b *bytes.Buffer, entry *logrus.Entry, keys []string, tsFormat string) {
	if !f.DisableTimestamp {
		appendKeyValue(b, "time", entry.Time.Format(tsFormat))
		b.WriteByte(' ')
	}

	appendKeyValue(b, "level", entry.Level.String())

	if entry.Message != "" {
		b.WriteByte(' ')
		appendKeyValue(b, "msg", entry.Message)
	}

	for _, k := range keys {
		b.WriteByte(' ')
		appendKeyValue(b, k, entry.Data[k])
	}
}

func appendKeyValue(b *bytes.Buffer, key string, value interface{}) {
	b.WriteString(key)
	b.WriteByte('=')

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case error:
		s = v.Error()
	default:
		fmt.Fprint(b, v)
		return
	}

	if needsQuoting(s) {
		b.WriteString(strconv.Quote(s))
	} else {
		b.WriteString(s)
	}
}

func needsQuoting(text string) bool {
	if len(text) == 0 {
		return true
	}

	for _, ch := range text {
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '.' || ch == '/' || ch == '_') {
			return true
		}
	}

	return false
}
