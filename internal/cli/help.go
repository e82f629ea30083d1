package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// subcommandsHeading introduces the list enrichParentLong appends.
const subcommandsHeading = "\n\nSubcommands:\n"

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong appends the available subcommands to a parent command's
// Long description. Calling it again on the same command does nothing.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() || strings.Contains(cmd.Long, subcommandsHeading) {
		return
	}

	var subs []*cobra.Command
	width := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			subs = append(subs, sub)
			width = max(width, len(sub.Name()))
		}
	}
	if len(subs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString(subcommandsHeading)
	for _, sub := range subs {
		fmt.Fprintf(&sb, "  %-*s  %s\n", width, sub.Name(), sub.Short)
	}
	cmd.Long = sb.String()
}
