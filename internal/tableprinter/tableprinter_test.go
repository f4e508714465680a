// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package tableprinter

import (
	"bytes"
	"testing"
)

func fill(t *testing.T, opts ...TablePrinterOption) *TablePrinter {
	t.Helper()

	printer, err := NewTablePrinter(opts...)
	if err != nil {
		t.Fatal(err)
	}

	for _, row := range [][]string{
		{"MODE", "SIZE", "PATH"},
		{"40755", "0", "etc"},
		{"100644", "1234", "etc/hostname"},
	} {
		for _, field := range row {
			printer.AddField(field, nil)
		}
		printer.EndRow()
	}

	return printer
}

func render(t *testing.T, printer *TablePrinter) string {
	t.Helper()

	var buf bytes.Buffer
	if err := printer.Render(&buf); err != nil {
		t.Fatal(err)
	}

	return buf.String()
}

func TestRenderTable(t *testing.T) {
	want := "" +
		"MODE    SIZE  PATH\n" +
		"40755   0     etc\n" +
		"100644  1234  etc/hostname\n"

	if got := render(t, fill(t)); got != want {
		t.Errorf("unexpected table:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTableMaxWidth(t *testing.T) {
	want := "" +
		"MODE    SIZE  PATH\n" +
		"40755   0     etc\n" +
		"100644  1234  etc/ho...\n"

	if got := render(t, fill(t, WithMaxWidth(23))); got != want {
		t.Errorf("unexpected table:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderList(t *testing.T) {
	want := "" +
		" mode: 40755\n" +
		" size: 0\n" +
		" path: etc\n" +
		"\n" +
		" mode: 100644\n" +
		" size: 1234\n" +
		" path: etc/hostname\n"

	if got := render(t, fill(t, WithOutputFormat(OutputFormatList))); got != want {
		t.Errorf("unexpected list:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderJSON(t *testing.T) {
	want := `[{"mode":"40755","path":"etc","size":"0"},{"mode":"100644","path":"etc/hostname","size":"1234"}]` + "\n"

	if got := render(t, fill(t, WithOutputFormat(OutputFormatJSON))); got != want {
		t.Errorf("unexpected json:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderYAML(t *testing.T) {
	want := "" +
		"- mode: \"40755\"\n" +
		"  path: etc\n" +
		"  size: \"0\"\n" +
		"- mode: \"100644\"\n" +
		"  path: etc/hostname\n" +
		"  size: \"1234\"\n"

	if got := render(t, fill(t, WithOutputFormatFromString("yaml"))); got != want {
		t.Errorf("unexpected yaml:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := NewTablePrinter(WithOutputFormatFromString("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}
