// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package list

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
	"kraftkit.sh/cpiokit/internal/tableprinter"
	"kraftkit.sh/cpiokit/iostreams"
)

const outputTree = "tree"

type ListOptions struct {
	Human  bool     `long:"human" short:"H" usage:"Print sizes in human readable units"`
	Long   bool     `long:"long" short:"l" usage:"Also show inode, link count, modification time and digest"`
	Match  []string `long:"match" short:"m" usage:"Only show entries whose path matches the glob pattern" split:"false"`
	Output string   `long:"output" short:"o" usage:"Set output format. Options: table,list,json,yaml,tree" default:"table"`

	matchers []glob.Glob
}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&ListOptions{}, cobra.Command{
		Short:   "List the entries of an archive",
		Use:     "list [FLAGS] ARCHIVE",
		Aliases: []string{"ls"},
		Args:    cmdfactory.ExactArgs(1, "expected the path to an archive"),
		Long: heredoc.Doc(`
			List the entries of a cpio archive in the order in which they are stored.

			Compressed archives (gzip, zstd) are detected automatically.
		`),
		Example: heredoc.Doc(`
			# List the entries of an initramfs
			$ cpiokit list initrd.cpio.gz

			# Show every header field along with the digest of each payload
			$ cpiokit list --long initrd.cpio

			# Show only the binaries as a tree
			$ cpiokit list -m 'bin/*' -m 'usr/bin/*' -o tree initrd.cpio
		`),
		Annotations: map[string]string{
			cmdfactory.AnnotationHelpGroup: "inspect",
		},
	})
	if err != nil {
		panic(err)
	}

	return cmd
}

func (opts *ListOptions) Pre(cmd *cobra.Command, _ []string) error {
	if opts.Output != outputTree && !slices.Contains(tableprinter.OutputFormats(), opts.Output) {
		return cmdfactory.FlagErrorf("unknown output format %q, expected one of: %s, %s",
			opts.Output,
			strings.Join(tableprinter.OutputFormats(), ", "),
			outputTree,
		)
	}

	opts.matchers = nil
	for _, pattern := range opts.Match {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return cmdfactory.FlagErrorf("invalid pattern %q: %v", pattern, err)
		}

		opts.matchers = append(opts.matchers, g)
	}

	return nil
}

func (opts *ListOptions) Run(ctx context.Context, args []string) error {
	sess, err := utils.OpenArchive(ctx, args[0])
	if err != nil {
		return err
	}

	store := sess.Store()

	var entries []*cpio.Entry
	for _, e := range store.Entries() {
		if opts.matches(e.Path()) {
			entries = append(entries, e)
		}
	}

	out := iostreams.G(ctx).Out

	if opts.Output == outputTree {
		_, err := fmt.Fprint(out, tree(args[0], entries).String())
		return err
	}

	return opts.table(ctx, entries)
}

// matches reports whether name is selected by --match.
func (opts *ListOptions) matches(name string) bool {
	if len(opts.matchers) == 0 {
		return true
	}

	for _, g := range opts.matchers {
		if g.Match(name) {
			return true
		}
	}

	return false
}

func (opts *ListOptions) table(ctx context.Context, entries []*cpio.Entry) error {
	streams := iostreams.G(ctx)
	cs := streams.ColorScheme()

	topts := []tableprinter.TablePrinterOption{
		tableprinter.WithOutputFormatFromString(opts.Output),
	}
	if streams.IsStdoutTTY() {
		topts = append(topts, tableprinter.WithMaxWidth(streams.TerminalWidth()))
	}

	table, err := tableprinter.NewTablePrinter(topts...)
	if err != nil {
		return err
	}

	header := []string{"MODE", "OWNER", "SIZE", "TYPE"}
	if opts.Long {
		header = append(header, "INODE", "NLINK", "MTIME", "DIGEST")
	}
	header = append(header, "PATH")

	for _, h := range header {
		table.AddField(h, cs.Bold)
	}
	table.EndRow()

	for _, e := range entries {
		mode := e.FileMode()

		table.AddField(mode.Octal(), nil)
		table.AddField(fmt.Sprintf("%d:%d", e.UID, e.GID), nil)
		table.AddField(opts.size(e.Size()), nil)
		table.AddField(mode.TypeName(), typeColor(cs, mode))

		if opts.Long {
			table.AddField(strconv.FormatUint(e.Inode, 10), nil)
			table.AddField(strconv.FormatUint(e.NLink, 10), nil)
			table.AddField(e.ModTime().UTC().Format(time.RFC3339), nil)

			if mode.IsRegular() {
				table.AddField(digest.FromBytes(e.Payload()).String(), cs.Gray)
			} else {
				table.AddField("", nil)
			}
		}

		name := e.Path()
		if target := e.Linkname(); target != "" {
			name += " -> " + target
		}
		table.AddField(name, nil)

		table.EndRow()
	}

	return table.Render(streams.Out)
}

func (opts *ListOptions) size(n int64) string {
	if opts.Human {
		return humanize.IBytes(uint64(n))
	}

	return strconv.FormatInt(n, 10)
}

func typeColor(cs *iostreams.ColorScheme, mode cpio.FileMode) func(string) string {
	switch mode.Type() {
	case cpio.TypeDir:
		return cs.Blue
	case cpio.TypeSymlink:
		return cs.Cyan
	case cpio.TypeChar, cpio.TypeBlock, cpio.TypeFifo:
		return cs.Yellow
	}

	return nil
}

// tree arranges entries by their path below a root node named after the
// archive.  Parents missing from the archive are shown as plain branches.
func tree(root string, entries []*cpio.Entry) treeprint.Tree {
	t := treeprint.NewWithRoot(root)
	branches := map[string]treeprint.Tree{".": t}

	var branch func(dir string) treeprint.Tree
	branch = func(dir string) treeprint.Tree {
		if b, ok := branches[dir]; ok {
			return b
		}

		b := branch(path.Dir(dir)).AddBranch(path.Base(dir))
		branches[dir] = b
		return b
	}

	for _, e := range entries {
		name := path.Clean(strings.TrimPrefix(e.Path(), "/"))
		if name == "." {
			continue
		}

		if e.FileMode().IsDir() {
			branch(name)
			continue
		}

		label := path.Base(name)
		if target := e.Linkname(); target != "" {
			label += " -> " + target
		}

		branch(path.Dir(name)).AddNode(label)
	}

	return t
}
