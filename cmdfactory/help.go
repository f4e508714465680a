// SPDX-License-Identifier: MIT
// Copyright (c) 2019 GitHub Inc.
// Copyright (c) 2022 Unikraft GmbH.
package cmdfactory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"kraftkit.sh/cpiokit/internal/text"
	"kraftkit.sh/cpiokit/iostreams"
)

// AnnotationHelpGroup is used to indicate in which help group a command belongs.
const (
	AnnotationHelpGroup  = "help:group"
	AnnotationHelpHidden = "help:hidden"
)

func rootUsageFunc(command *cobra.Command) error {
	command.Printf("Usage:  %s", command.UseLine())

	if subcommands := visibleCommands(command); len(subcommands) > 0 {
		command.Print("\n\nAvailable commands:\n")
		for _, c := range subcommands {
			command.Printf("  %s\n", c.Name())
		}
		return nil
	}

	if flagUsages := command.LocalFlags().FlagUsagesWrapped(80); flagUsages != "" {
		command.Println("\n\nFlags:")
		command.Print(text.Indent(dedent(flagUsages), 2))
	}

	return nil
}

func rootFlagErrorFunc(_ *cobra.Command, err error) error {
	if err == pflag.ErrHelp {
		return err
	}
	return FlagErrorWrap(err)
}

func visibleCommands(cmd *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.Short == "" || c.Hidden {
			continue
		}
		if _, ok := c.Annotations[AnnotationHelpHidden]; ok {
			continue
		}
		cmds = append(cmds, c)
	}

	return cmds
}

type helpEntry struct {
	title string
	body  string
}

// commandEntries lists the subcommands of cmd, first those without a help
// group and then one section per group in the order the groups were added.
func commandEntries(cmd *cobra.Command) []helpEntry {
	cmds := visibleCommands(cmd)

	width := 0
	for _, c := range cmds {
		width = max(width, len(c.Name()))
	}

	line := func(c *cobra.Command) string {
		return text.PadRight(width+3, c.Name()) + c.Short
	}

	groups := cmd.Groups()
	grouped := map[string][]string{}
	var ungrouped []string

	for _, c := range cmds {
		group := c.GroupID
		if group == "" {
			group = c.Annotations[AnnotationHelpGroup]
		}

		if group != "" && slices.ContainsFunc(groups, func(g *cobra.Group) bool { return g.ID == group }) {
			grouped[group] = append(grouped[group], line(c))
		} else {
			ungrouped = append(ungrouped, line(c))
		}
	}

	var entries []helpEntry
	if len(ungrouped) > 0 {
		entries = append(entries, helpEntry{"SUBCOMMANDS", strings.Join(ungrouped, "\n")})
	}

	for _, group := range groups {
		if lines := grouped[group.ID]; len(lines) > 0 {
			entries = append(entries, helpEntry{strings.TrimSuffix(strings.ToUpper(group.Title), ":"), strings.Join(lines, "\n")})
		}
	}

	return entries
}

func rootHelpFunc(cmd *cobra.Command, _ []string) {
	longText := cmd.Long
	if longText == "" {
		longText = cmd.Short
	}

	var entries []helpEntry
	if longText != "" {
		entries = append(entries, helpEntry{"", longText})
	}
	entries = append(entries, helpEntry{"USAGE", cmd.UseLine()})

	if len(cmd.Aliases) > 0 {
		entries = append(entries, helpEntry{"ALIASES", strings.Join(cmd.Aliases, ", ")})
	}

	entries = append(entries, commandEntries(cmd)...)

	if flagUsages := cmd.LocalFlags().FlagUsages(); flagUsages != "" {
		entries = append(entries, helpEntry{"FLAGS", dedent(flagUsages)})
	}

	if inherited := cmd.InheritedFlags().FlagUsages(); inherited != "" {
		entries = append(entries, helpEntry{"INHERITED FLAGS", dedent(inherited)})
	}

	if cmd.Example != "" {
		entries = append(entries, helpEntry{"EXAMPLES", cmd.Example})
	}

	streams := iostreams.G(cmd.Context())
	cs := streams.ColorScheme()

	for _, e := range entries {
		if e.body == "" {
			continue
		}

		if e.title != "" {
			fmt.Fprintln(streams.Out, cs.Bold(e.title))
			fmt.Fprintln(streams.Out, text.Indent(strings.Trim(e.body, "\r\n"), 2))
		} else {
			fmt.Fprintln(streams.Out, e.body)
		}

		fmt.Fprintln(streams.Out)
	}
}

func dedent(s string) string {
	lines := strings.Split(s, "\n")
	minIndent := -1

	for _, l := range lines {
		if len(l) == 0 {
			continue
		}

		indent := len(l) - len(strings.TrimLeft(l, " "))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	if minIndent <= 0 {
		return s
	}

	prefix := strings.Repeat(" ", minIndent)
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, prefix)
	}

	return strings.Join(lines, "\n")
}
