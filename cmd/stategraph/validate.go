package main

import (
	"fmt"

	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/aretw0/stategraph/internal/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the graph for consistency",
		Long: `Reports transitions pointing at unknown states or actions, repeated
transitions and, with --root, states that cannot be reached from it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeStore, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			report := validator.Validate(ws.Graph(), root)
			if report.OK() {
				tui.Success(cmd.OutOrStdout(), "Graph is valid")
				return nil
			}
			if a.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				return errReported
			}
			for _, is := range report.Issues {
				fmt.Fprintf(cmd.OutOrStdout(), "- [%s] %s\n", is.Kind, is.Message)
			}
			tui.Fail(cmd.ErrOrStderr(), "validation failed with %d issues", len(report.Issues))
			return errReported
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Entry state used to find unreachable states")
	return cmd
}
