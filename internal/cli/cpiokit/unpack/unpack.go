// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package unpack

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/config"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
	"kraftkit.sh/cpiokit/internal/session"
	"kraftkit.sh/cpiokit/iostreams"
	"kraftkit.sh/cpiokit/log"
)

type UnpackOptions struct {
	Force     bool   `long:"force" short:"f" usage:"Unpack into a non-empty directory, replacing existing files"`
	NoVerify  bool   `long:"no-verify" usage:"Do not verify the checksums of crc archives"`
	Output    string `long:"output" short:"o" usage:"Set the directory to unpack into (default: a new temporary directory)"`
	Ownership bool   `long:"ownership" usage:"Apply the owner and group of each entry (usually requires root)"`
}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&UnpackOptions{}, cobra.Command{
		Short: "Extract the entries of an archive",
		Use:   "unpack [FLAGS] ARCHIVE",
		Args:  cmdfactory.ExactArgs(1, "expected the path to an archive"),
		Long: heredoc.Doc(`
			Extract the entries of a cpio archive into a directory.

			Without --output a new temporary directory is created.  The directory
			used is printed once all entries were written.  Entries are confined
			to the destination: absolute paths and paths leaving it through ".."
			or symbolic links are resolved below it.
		`),
		Example: heredoc.Doc(`
			# Unpack into a new temporary directory
			$ cpiokit unpack initrd.cpio.gz

			# Unpack into ./rootfs, keeping the owner of every file
			$ sudo cpiokit unpack --ownership -o rootfs initrd.cpio.gz
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

func (opts *UnpackOptions) Run(ctx context.Context, args []string) error {
	sess, err := utils.OpenArchive(ctx, args[0],
		session.WithReadOptions(cpio.WithVerifyChecksums(!opts.NoVerify)),
	)
	if err != nil {
		return err
	}

	dst, err := archive.Unpack(ctx, sess.Store().Unpack(), opts.Output,
		archive.WithForce(opts.Force),
		archive.WithOwnership(opts.Ownership),
		archive.WithTempDir(config.G(ctx).Paths.Unpack),
	)
	if err != nil {
		return err
	}

	log.G(ctx).
		WithField("entries", sess.Store().Len()).
		Debugf("unpacked %s", args[0])

	_, err = fmt.Fprintln(iostreams.G(ctx).Out, dst)
	return err
}
