// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package archive

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the stream compression wrapped around an archive.
type Compression string

const (
	CompressionNone = Compression("none")
	CompressionGzip = Compression("gzip")
	CompressionZstd = Compression("zstd")

	// CompressionAuto keeps whatever compression the input archive had.
	CompressionAuto = Compression("auto")
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Compressions returns every selectable compression.
func Compressions() []Compression {
	return []Compression{
		CompressionAuto,
		CompressionGzip,
		CompressionZstd,
		CompressionNone,
	}
}

func (c Compression) String() string {
	return string(c)
}

// ParseCompression returns the compression with the given name.
func ParseCompression(name string) (Compression, error) {
	for _, c := range Compressions() {
		if string(c) == name {
			return c, nil
		}
	}

	return "", fmt.Errorf("unknown compression: %q", name)
}

// Resolve returns c, or detected when c is CompressionAuto.
func (c Compression) Resolve(detected Compression) Compression {
	if c == CompressionAuto || c == "" {
		return detected
	}

	return c
}

// Detect reports the compression of b from its leading magic bytes.
func Detect(b []byte) Compression {
	switch {
	case bytes.HasPrefix(b, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(b, zstdMagic):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// FromExtension guesses the compression of a file from its name.
func FromExtension(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Decompress detects the compression of b and returns the decompressed
// bytes along with the detected compression.
func Decompress(b []byte) ([]byte, Compression, error) {
	c := Detect(b)

	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, c, fmt.Errorf("could not open gzip stream: %w", err)
		}
		defer zr.Close()

		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, c, fmt.Errorf("could not decompress gzip stream: %w", err)
		}

		return out, c, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, c, err
		}
		defer dec.Close()

		out, err := dec.DecodeAll(b, nil)
		if err != nil {
			return nil, c, fmt.Errorf("could not decompress zstd stream: %w", err)
		}

		return out, c, nil
	}

	return b, CompressionNone, nil
}

// Compress wraps b in the given compression.  A level of zero selects the
// codec's default.
func Compress(b []byte, c Compression, level int) ([]byte, error) {
	switch c {
	case CompressionGzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}

		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, err
		}

		if _, err := zw.Write(b); err != nil {
			return nil, err
		}

		if err := zw.Close(); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil

	case CompressionZstd:
		opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
		if level != 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}

		enc, err := zstd.NewWriter(nil, opts...)
		if err != nil {
			return nil, err
		}
		defer enc.Close()

		return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil

	case CompressionNone:
		return b, nil
	}

	return nil, fmt.Errorf("cannot compress with %q", c)
}
