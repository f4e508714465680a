// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package tableprinter renders rows of fields as an aligned table, a list of
// key/value blocks, JSON or YAML.  The first row holds the column headers.
package tableprinter

import (
	"fmt"
	"io"
	"strings"

	"kraftkit.sh/cpiokit/internal/text"
)

type TableOutputFormat string

const (
	OutputFormatTable = TableOutputFormat("table")
	OutputFormatJSON  = TableOutputFormat("json")
	OutputFormatYAML  = TableOutputFormat("yaml")
	OutputFormatList  = TableOutputFormat("list")

	DefaultDelimeter = "  "
)

// OutputFormats returns the names of all output formats.
func OutputFormats() []string {
	return []string{
		string(OutputFormatTable),
		string(OutputFormatList),
		string(OutputFormatJSON),
		string(OutputFormatYAML),
	}
}

type TableField struct {
	text  string
	color func(string) string
}

func (f *TableField) DisplayWidth() int {
	return text.DisplayWidth(f.text)
}

type TablePrinter struct {
	format       TableOutputFormat
	rows         [][]TableField
	maxWidth     int
	delimeter    string
	truncateFunc func(int, string) string
}

// NewTablePrinter returns a printer configured by the given options.
func NewTablePrinter(topts ...TablePrinterOption) (*TablePrinter, error) {
	printer := TablePrinter{
		format:       OutputFormatTable,
		delimeter:    DefaultDelimeter,
		truncateFunc: text.Truncate,
	}

	for _, opt := range topts {
		if err := opt(&printer); err != nil {
			return nil, err
		}
	}

	return &printer, nil
}

// AddField adds a new field to the current row.
func (printer *TablePrinter) AddField(s string, colorFunc func(string) string) {
	if printer.rows == nil {
		printer.rows = make([][]TableField, 1)
	}

	last := len(printer.rows) - 1
	printer.rows[last] = append(printer.rows[last], TableField{
		text:  s,
		color: colorFunc,
	})
}

// EndRow ends the current row.
func (printer *TablePrinter) EndRow() {
	printer.rows = append(printer.rows, []TableField{})
}

// Render writes all rows to w in the configured format.
func (printer *TablePrinter) Render(w io.Writer) error {
	// Drop the empty row left behind by a trailing EndRow.
	rows := printer.rows
	if n := len(rows); n > 0 && len(rows[n-1]) == 0 {
		rows = rows[:n-1]
	}

	if len(rows) == 0 {
		return nil
	}

	switch printer.format {
	case OutputFormatTable, "":
		return printer.renderTable(w, rows)
	case OutputFormatList:
		return printer.renderList(w, rows)
	case OutputFormatJSON:
		return printer.renderJSON(w, rows)
	case OutputFormatYAML:
		return printer.renderYAML(w, rows)
	}

	return fmt.Errorf("unsupported output format: %s", printer.format)
}

// columnWidths returns the width of every column.  All columns but the last
// are as wide as their widest field; the last takes what remains of the
// maximum width, if one is set.
func (printer *TablePrinter) columnWidths(rows [][]TableField) []int {
	widths := make([]int, len(rows[0]))

	for _, row := range rows {
		for col, field := range row {
			if col < len(widths) {
				widths[col] = max(widths[col], field.DisplayWidth())
			}
		}
	}

	if printer.maxWidth <= 0 {
		return widths
	}

	used := len(printer.delimeter) * (len(widths) - 1)
	for _, w := range widths[:len(widths)-1] {
		used += w
	}

	if avail := printer.maxWidth - used; avail > 0 && avail < widths[len(widths)-1] {
		widths[len(widths)-1] = avail
	}

	return widths
}

// records converts every row after the header into a map keyed by the
// lower-cased, underscore separated header text.
func records(rows [][]TableField) []map[string]string {
	header := rows[0]
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = strings.ReplaceAll(strings.ToLower(h.text), " ", "_")
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(row))
		for i, field := range row {
			if i < len(keys) {
				m[keys[i]] = field.text
			}
		}

		out = append(out, m)
	}

	return out
}
