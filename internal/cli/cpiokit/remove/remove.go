// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package remove

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
	"kraftkit.sh/cpiokit/internal/session"
)

type RemoveOptions struct {
	Output    string `long:"output" short:"o" usage:"Write the result to this file instead of replacing ARCHIVE"`
	Recursive bool   `long:"recursive" short:"r" usage:"Also delete every entry below each PATH"`
}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&RemoveOptions{}, cobra.Command{
		Short:   "Delete entries from an archive",
		Use:     "delete [FLAGS] ARCHIVE PATH [PATH...]",
		Aliases: []string{"rm", "remove"},
		Args:    cmdfactory.MinimumArgs(2, "expected an archive and at least one path"),
		Long: heredoc.Doc(`
			Delete entries from an archive.

			The order of the remaining entries is kept.  Deleting a directory
			leaves the entries below it in place unless --recursive is given.
			Nothing is written if any PATH is not in the archive.
		`),
		Example: heredoc.Doc(`
			# Delete a single file
			$ cpiokit delete initrd.cpio etc/motd

			# Delete a directory and everything in it
			$ cpiokit delete -r initrd.cpio usr/share/doc
		`),
		Annotations: map[string]string{
			cmdfactory.AnnotationHelpGroup: "edit",
		},
	})
	if err != nil {
		panic(err)
	}

	return cmd
}

func (opts *RemoveOptions) Run(ctx context.Context, args []string) error {
	sess, err := utils.OpenArchive(ctx, args[0], session.WithOutput(opts.Output))
	if err != nil {
		return err
	}

	spec := utils.DeleteSpec{
		Paths:     args[1:],
		Recursive: opts.Recursive,
	}

	if err := sess.Apply(spec.Edit(ctx)); err != nil {
		return err
	}

	return utils.SaveArchive(ctx, sess)
}
