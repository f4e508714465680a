// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package pack

import (
	"context"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/initrd"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
	"kraftkit.sh/cpiokit/internal/session"
)

type PackOptions struct {
	Format     string `noattribute:"true"`
	IgnoreFile string `long:"ignore-file" usage:"Name of the file at the root of DIR listing paths to leave out" default:".cpioignore"`
	NoIgnore   bool   `long:"no-ignore" usage:"Pack every file, ignoring any ignore file"`
	Output     string `long:"output" short:"o" usage:"Set the path of the archive to write"`
	Owner      string `long:"owner" usage:"Record every entry as owned by UID:GID instead of its owner on the host"`
}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&PackOptions{}, cobra.Command{
		Short: "Create an archive from a directory",
		Use:   "pack [FLAGS] DIR",
		Args:  cmdfactory.ExactDirArgs(1),
		Long: heredoc.Docf(`
			Create an archive holding the contents of a directory.

			Entries are stored in lexical order so that every directory precedes
			its contents.  Paths matching a pattern in the %s file at the root
			of DIR are left out.  Unless --compression is given, the archive is
			compressed according to the extension of --output (.gz, .zst).
		`, initrd.IgnoreFileName),
		Example: heredoc.Doc(`
			# Pack a root filesystem into a gzip compressed initramfs
			$ cpiokit pack -o initrd.cpio.gz ./rootfs

			# Pack with checksums, every file owned by root
			$ cpiokit pack --format crc --owner 0:0 -o initrd.cpio ./rootfs
		`),
		Annotations: map[string]string{
			cmdfactory.AnnotationHelpGroup: "edit",
		},
	})
	if err != nil {
		panic(err)
	}

	cmd.Flags().Var(
		cmdfactory.NewEnumFlag[cpio.Format](utils.Formats(), cpio.FormatNewc),
		"format",
		"Set the header format of the entries (newc, crc)",
	)

	return cmd
}

func (opts *PackOptions) Pre(cmd *cobra.Command, _ []string) error {
	if opts.Output == "" {
		return cmdfactory.FlagErrorf("the path of the archive must be given with --output")
	}

	opts.Format = cmd.Flag("format").Value.String()

	return nil
}

func (opts *PackOptions) Run(ctx context.Context, args []string) error {
	format, err := utils.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	dopts := []initrd.DirectoryOption{
		initrd.WithFormat(format),
	}

	if opts.NoIgnore {
		dopts = append(dopts, initrd.WithIgnoreFile(""))
	} else {
		dopts = append(dopts, initrd.WithIgnoreFile(opts.IgnoreFile))
	}

	if opts.Owner != "" {
		uid, gid, err := utils.ParseOwner(opts.Owner)
		if err != nil {
			return cmdfactory.FlagErrorWrap(err)
		}

		dopts = append(dopts, initrd.WithOwner(uid, gid))
	}

	dir, err := initrd.NewFromDirectory(ctx, args[0], dopts...)
	if err != nil {
		return err
	}

	store, err := dir.Store(ctx)
	if err != nil {
		return err
	}

	sopts, err := utils.SessionOptions(ctx)
	if err != nil {
		return err
	}

	sess, err := session.New(ctx, opts.Output, store, sopts...)
	if err != nil {
		return err
	}

	return utils.SaveArchive(ctx, sess)
}
