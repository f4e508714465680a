// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2024, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package initrd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"kraftkit.sh/cpiokit/log"
)

// IgnoreFileName is the default name of the file listing paths which are
// left out when packing a directory.
const IgnoreFileName = ".cpioignore"

type ignorePattern struct {
	glob glob.Glob

	// base is set for unanchored patterns without a slash, which are
	// matched against the last element of a path as well as the whole path.
	base bool
}

// ignoreList holds the patterns of an ignore file.  The zero value ignores
// nothing.
type ignoreList struct {
	patterns []ignorePattern
}

// loadIgnoreFile parses the ignore file at file.  A missing file yields an
// empty list.
func loadIgnoreFile(ctx context.Context, file string) (*ignoreList, error) {
	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return &ignoreList{}, nil
	} else if err != nil {
		return nil, err
	}

	defer f.Close()

	list, err := parseIgnore(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	log.G(ctx).
		WithField("file", file).
		Debugf("loaded %d ignore patterns", len(list.patterns))

	return list, nil
}

// parseIgnore reads one pattern per line.  Blank lines and lines starting
// with '#' are skipped.  Patterns use '/' as separator so that '*' stays
// within one path element and '**' crosses them.
func parseIgnore(r io.Reader) (*ignoreList, error) {
	list := &ignoreList{}

	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// A leading slash anchors the pattern at the root.
		anchored := strings.HasPrefix(line, "/") || strings.HasPrefix(line, "./")
		if strings.HasPrefix(line, "./") {
			line = line[1:]
		}
		line = strings.Trim(line, "/")
		if line == "" {
			continue
		}

		g, err := glob.Compile(line, '/')
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid pattern %q: %w", lineNum, line, err)
		}

		list.patterns = append(list.patterns, ignorePattern{
			glob: g,
			base: !anchored && !strings.Contains(line, "/"),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// Match reports whether the slash separated relative path rel is ignored.
func (l *ignoreList) Match(rel string) bool {
	for _, p := range l.patterns {
		if p.glob.Match(rel) {
			return true
		}
		if p.base && p.glob.Match(path.Base(rel)) {
			return true
		}
	}

	return false
}
