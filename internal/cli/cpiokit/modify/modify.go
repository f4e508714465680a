// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package modify

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
	"kraftkit.sh/cpiokit/internal/session"
)

type ModifyOptions struct {
	Data   string  `long:"data" short:"d" usage:"Replace the content of the entry with that of a local file"`
	Format string  `long:"format" usage:"Rewrite the header of the entry in this format (newc, crc)"`
	GID    *int    `long:"gid" short:"g" usage:"Set the group of the entry"`
	Mode   *string `long:"mode" short:"m" usage:"Set the permission bits of the entry in octal, e.g. 04755"`
	MTime  string  `long:"mtime" usage:"Set the modification time as seconds since the epoch or RFC 3339"`
	Output string  `long:"output" short:"o" usage:"Write the result to this file instead of replacing ARCHIVE"`
	UID    *int    `long:"uid" short:"u" usage:"Set the owner of the entry"`
}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&ModifyOptions{}, cobra.Command{
		Short: "Change the metadata or content of an entry",
		Use:   "modify [FLAGS] ARCHIVE PATH",
		Args:  cmdfactory.ExactArgs(2, "expected an archive and the path of an entry"),
		Long: heredoc.Doc(`
			Change the owner, permissions, modification time or content of an
			entry in place.

			Only the given fields change.  The type of the entry and its position
			in the archive are kept.
		`),
		Example: heredoc.Doc(`
			# Make busybox setuid root
			$ cpiokit modify -u 0 -g 0 -m 04755 initrd.cpio bin/busybox

			# Replace the content of the init script
			$ cpiokit modify -d ./init.sh initrd.cpio init
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

func (opts *ModifyOptions) Run(ctx context.Context, args []string) error {
	uid, err := utils.ID("uid", opts.UID)
	if err != nil {
		return cmdfactory.FlagErrorWrap(err)
	}

	gid, err := utils.ID("gid", opts.GID)
	if err != nil {
		return cmdfactory.FlagErrorWrap(err)
	}

	spec := utils.ModifySpec{
		Path:   args[1],
		UID:    uid,
		GID:    gid,
		Data:   opts.Data,
		MTime:  opts.MTime,
		Format: opts.Format,
	}
	if opts.Mode != nil {
		spec.Mode = *opts.Mode
	}

	// Reject bad values before the archive is read.
	if _, err := spec.Options(); err != nil {
		return cmdfactory.FlagErrorWrap(err)
	}

	sess, err := utils.OpenArchive(ctx, args[0], session.WithOutput(opts.Output))
	if err != nil {
		return err
	}

	if err := sess.Apply(spec.Edit(ctx)); err != nil {
		return err
	}

	return utils.SaveArchive(ctx, sess)
}
