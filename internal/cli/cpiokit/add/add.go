// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package add

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
	"kraftkit.sh/cpiokit/internal/session"
)

type AddOptions struct {
	Create  bool    `long:"create" short:"c" usage:"Start a new archive if ARCHIVE does not exist"`
	Force   bool    `long:"force" short:"f" usage:"Add even if the parent directory of PATH is not in the archive"`
	GID     *int    `long:"gid" short:"g" usage:"Set the group of the entry (default: that of FILE)"`
	Mode    *string `long:"mode" short:"m" usage:"Set the permission bits of the entry in octal (default: those of FILE)"`
	Output  string  `long:"output" short:"o" usage:"Write the result to this file instead of replacing ARCHIVE"`
	Replace bool    `long:"replace" short:"r" usage:"Replace an entry already stored under PATH"`
	UID     *int    `long:"uid" short:"u" usage:"Set the owner of the entry (default: that of FILE)"`
}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&AddOptions{}, cobra.Command{
		Short: "Add a local file to an archive",
		Use:   "add [FLAGS] ARCHIVE PATH FILE",
		Args:  cmdfactory.ExactArgs(3, "expected an archive, the path to store the file under and a local file"),
		Long: heredoc.Doc(`
			Add a local file to an archive under PATH.

			The entry takes the type, permissions, owner and modification time
			of FILE, which is not followed if it is a symbolic link.  New entries
			are appended after all existing ones.  The directory containing PATH
			must already be in the archive unless --force is given.
		`),
		Example: heredoc.Doc(`
			# Add a message of the day owned by root
			$ cpiokit add --uid 0 --gid 0 initrd.cpio etc/motd ./motd

			# Replace the init script, writing the result to a new archive
			$ cpiokit add --replace -o initrd-new.cpio initrd.cpio init ./init.sh
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

func (opts *AddOptions) Run(ctx context.Context, args []string) error {
	uid, err := utils.ID("uid", opts.UID)
	if err != nil {
		return cmdfactory.FlagErrorWrap(err)
	}

	gid, err := utils.ID("gid", opts.GID)
	if err != nil {
		return cmdfactory.FlagErrorWrap(err)
	}

	spec := utils.AddSpec{
		Path:    args[1],
		File:    args[2],
		UID:     uid,
		GID:     gid,
		Force:   opts.Force,
		Replace: opts.Replace,
	}

	if opts.Mode != nil {
		if _, err := utils.ParseMode(*opts.Mode); err != nil {
			return cmdfactory.FlagErrorWrap(err)
		}

		spec.Mode = *opts.Mode
	}

	sess, err := utils.OpenArchive(ctx, args[0],
		session.WithOutput(opts.Output),
		session.WithCreate(opts.Create),
	)
	if err != nil {
		return err
	}

	if err := sess.Apply(spec.Edit(ctx)); err != nil {
		return err
	}

	return utils.SaveArchive(ctx, sess)
}
