package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of stategraph",
		// version needs neither config nor a graph.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			version := strings.TrimSpace(stategraph.Version)
			if tui.IsTerminal(cmd.OutOrStdout()) {
				tui.PrintBanner(cmd.OutOrStdout(), version)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stategraph version %s\n", version)
		},
	}
}
