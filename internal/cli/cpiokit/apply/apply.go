// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package apply

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/utils"
	"kraftkit.sh/cpiokit/internal/session"
	"kraftkit.sh/cpiokit/internal/text"
	"kraftkit.sh/cpiokit/iostreams"
	"kraftkit.sh/cpiokit/log"
)

type ApplyOptions struct {
	Create bool   `long:"create" short:"c" usage:"Start a new archive if ARCHIVE does not exist"`
	DryRun bool   `long:"dry-run" usage:"Apply the plan without writing the result"`
	File   string `long:"file" short:"f" usage:"Path to the plan, or - to read it from standard input"`
	Output string `long:"output" short:"o" usage:"Write the result to this file instead of replacing ARCHIVE"`

	plan *Plan
}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&ApplyOptions{}, cobra.Command{
		Short: "Apply several changes to an archive at once",
		Use:   "apply [FLAGS] ARCHIVE -f PLAN",
		Args:  cmdfactory.ExactArgs(1, "expected the path to an archive"),
		Long: heredoc.Doc(`
			Apply the steps of a YAML plan to an archive in order and write the
			result once.

			Each step is one of add, delete or modify and takes the same options
			as the command of that name.  If any step fails nothing is written.
			Local files named by the plan are relative to the plan's directory.
		`),
		Example: heredoc.Doc(`
			# Apply plan.yaml to initrd.cpio.gz
			$ cpiokit apply -f plan.yaml initrd.cpio.gz

			# where plan.yaml is
			steps:
			  - delete:
			      paths: [etc/motd]
			  - add:
			      path: etc/motd
			      file: motd
			      uid: 0
			      gid: 0
			      mode: "0644"
			  - modify:
			      path: bin/busybox
			      mode: "4755"
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

func (opts *ApplyOptions) Pre(cmd *cobra.Command, _ []string) error {
	if opts.File == "" {
		return cmdfactory.FlagErrorf("the plan must be given with --file")
	}

	var r io.Reader
	base := filepath.Dir(opts.File)

	if opts.File == "-" {
		r = iostreams.G(cmd.Context()).In

		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		base = wd
	} else {
		f, err := os.Open(opts.File)
		if err != nil {
			return fmt.Errorf("could not open plan: %w", err)
		}
		defer f.Close()

		r = f
	}

	plan, err := ParsePlan(r, base)
	if err != nil {
		return err
	}

	opts.plan = plan

	return nil
}

func (opts *ApplyOptions) Run(ctx context.Context, args []string) error {
	sess, err := utils.OpenArchive(ctx, args[0],
		session.WithOutput(opts.Output),
		session.WithCreate(opts.Create),
	)
	if err != nil {
		return err
	}

	for i := range opts.plan.Steps {
		step := &opts.plan.Steps[i]

		log.G(ctx).WithField("step", i+1).Debug(step.Name())

		if err := sess.Apply(step.Edit(ctx)); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Name(), err)
		}
	}

	if opts.DryRun {
		log.G(ctx).Infof("applied %s, not writing %s", text.Pluralize(len(opts.plan.Steps), "step"), sess.Destination())
		return nil
	}

	return utils.SaveArchive(ctx, sess)
}
