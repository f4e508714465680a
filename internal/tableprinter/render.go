// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package tableprinter

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"kraftkit.sh/cpiokit/internal/text"
)

func (printer *TablePrinter) renderTable(w io.Writer, rows [][]TableField) error {
	widths := printer.columnWidths(rows)
	last := len(widths) - 1

	bw := bufio.NewWriter(w)

	for _, row := range rows {
		for col, field := range row {
			if col > last {
				break
			}

			if col > 0 {
				bw.WriteString(printer.delimeter)
			}

			val := printer.truncateFunc(widths[col], field.text)
			if col < last {
				val = text.PadRight(widths[col], val)
			}

			if field.color != nil {
				val = field.color(val)
			}

			bw.WriteString(val)
		}

		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func (printer *TablePrinter) renderList(w io.Writer, rows [][]TableField) error {
	header := rows[0]

	width := 0
	for _, field := range header {
		width = max(width, text.DisplayWidth(field.text))
	}

	bw := bufio.NewWriter(w)

	for i, row := range rows[1:] {
		if i > 0 {
			bw.WriteByte('\n')
		}

		for col, field := range row {
			if col >= len(header) {
				break
			}

			key := strings.ToLower(header[col].text)
			bw.WriteString(strings.Repeat(" ", width-text.DisplayWidth(key)+1))

			if header[col].color != nil {
				key = header[col].color(key)
			}

			bw.WriteString(key)
			bw.WriteString(": ")

			val := field.text
			if field.color != nil {
				val = field.color(val)
			}

			bw.WriteString(val)
			bw.WriteByte('\n')
		}
	}

	return bw.Flush()
}

func (printer *TablePrinter) renderJSON(w io.Writer, rows [][]TableField) error {
	return json.NewEncoder(w).Encode(records(rows))
}

func (printer *TablePrinter) renderYAML(w io.Writer, rows [][]TableField) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(records(rows)); err != nil {
		return err
	}

	return enc.Close()
}
