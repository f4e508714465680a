// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cpiokit

import (
	"context"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/rancher/wrangler/pkg/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"kraftkit.sh/cpiokit/cmdfactory"
	"kraftkit.sh/cpiokit/config"
	"kraftkit.sh/cpiokit/internal/cli"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/add"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/apply"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/list"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/modify"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/pack"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/remove"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/unpack"
	"kraftkit.sh/cpiokit/internal/cli/cpiokit/version"
	kitversion "kraftkit.sh/cpiokit/internal/version"
	"kraftkit.sh/cpiokit/iostreams"
	"kraftkit.sh/cpiokit/log"
)

type CpioKitOptions struct{}

func NewCmd() *cobra.Command {
	cmd, err := cmdfactory.New(&CpioKitOptions{}, cobra.Command{
		Short: "Read, list and edit cpio archives",
		Use:   "cpiokit [FLAGS] SUBCOMMAND",
		Long: heredoc.Docf(`
			Read, list and edit cpio archives in the portable ASCII (newc) format,
			with or without checksums, as used for Linux initramfs images.

			Version: %s`, kitversion.Version()),
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	})
	if err != nil {
		panic(err)
	}

	cmd.AddGroup(&cobra.Group{ID: "inspect", Title: "INSPECTION COMMANDS"})
	cmd.AddCommand(list.NewCmd())
	cmd.AddCommand(unpack.NewCmd())

	cmd.AddGroup(&cobra.Group{ID: "edit", Title: "EDITING COMMANDS"})
	cmd.AddCommand(add.NewCmd())
	cmd.AddCommand(remove.NewCmd())
	cmd.AddCommand(modify.NewCmd())
	cmd.AddCommand(apply.NewCmd())
	cmd.AddCommand(pack.NewCmd())

	cmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISCELLANEOUS COMMANDS"})
	cmd.AddCommand(version.NewCmd())

	return cmd
}

// PersistentPre applies the configuration once flags have been parsed.
func (*CpioKitOptions) PersistentPre(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.G(ctx)

	if err := cfg.Validate(); err != nil {
		return cmdfactory.FlagErrorWrap(err)
	}

	streams := iostreams.G(ctx)
	if cfg.NoColor {
		streams.SetColorEnabled(false)
	}

	cli.ConfigureLogger(log.G(ctx), cfg, streams)

	return nil
}

func (*CpioKitOptions) Run(_ context.Context, _ []string) error {
	return pflag.ErrHelp
}

func Main(args []string) int {
	return Execute(signals.SetupSignalContext(), args)
}

// Execute runs the command line args within ctx and returns the exit status.
// Options override the defaults set up from the environment.
func Execute(ctx context.Context, args []string, opts ...cli.CliOption) int {
	cmd := NewCmd()
	copts := &cli.CliOptions{}

	for _, o := range append(opts,
		cli.WithDefaultConfigManager(),
		cli.WithDefaultIOStreams(),
		cli.WithDefaultLogger(),
	) {
		if err := o(copts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	// Every configuration attribute can also be set with a flag.
	if err := cmdfactory.AttributeFlags(cmd, copts.ConfigManager.Config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx = config.WithConfigManager(ctx, copts.ConfigManager)
	ctx = log.WithLogger(ctx, copts.Logger)
	ctx = iostreams.WithIOStreams(ctx, copts.IOStreams)

	log.G(ctx).Debugf("cpiokit %s", kitversion.Version())

	cmd.SetArgs(args)
	cmd.SetIn(copts.IOStreams.In)
	cmd.SetOut(copts.IOStreams.Out)
	cmd.SetErr(copts.IOStreams.ErrOut)

	return cmdfactory.Main(ctx, cmd)
}
