// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package tableprinter

import (
	"fmt"
	"slices"
)

// TablePrinterOption configures a TablePrinter.
type TablePrinterOption func(*TablePrinter) error

// WithOutputFormat sets the output format.
func WithOutputFormat(format TableOutputFormat) TablePrinterOption {
	return func(opts *TablePrinter) error {
		opts.format = format
		return nil
	}
}

// WithOutputFormatFromString sets the output format by name.
func WithOutputFormatFromString(format string) TablePrinterOption {
	return func(opts *TablePrinter) error {
		if !slices.Contains(OutputFormats(), format) {
			return fmt.Errorf("unsupported output format: %q", format)
		}

		opts.format = TableOutputFormat(format)
		return nil
	}
}

// WithTableDelimeter sets the string printed between table columns.
func WithTableDelimeter(delim string) TablePrinterOption {
	return func(opts *TablePrinter) error {
		opts.delimeter = delim
		return nil
	}
}

// WithFieldTruncateFunc sets the function used to shorten table fields.
func WithFieldTruncateFunc(truncateFunc func(int, string) string) TablePrinterOption {
	return func(opts *TablePrinter) error {
		opts.truncateFunc = truncateFunc
		return nil
	}
}

// WithMaxWidth limits the width of rendered tables.  Zero means unlimited.
func WithMaxWidth(maxWidth int) TablePrinterOption {
	return func(opts *TablePrinter) error {
		opts.maxWidth = maxWidth
		return nil
	}
}
