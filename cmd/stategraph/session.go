package main

import (
	"fmt"

	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/aretw0/stategraph/pkg/adapters/file"
	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage persisted refinement sessions",
		Long:  `List, inspect, and remove refinement sessions kept in the configured store.`,
	}

	sessionLsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List all stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, closeStore, err := a.store()
			if err != nil {
				return err
			}
			defer closeStore()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			fmt.Fprintln(out, "Sessions:")
			for _, s := range sessions {
				fmt.Fprintln(out, "- "+s)
			}
			return nil
		},
	}

	sessionInspectCmd := &cobra.Command{
		Use:   "inspect <session-id>",
		Short: "Print the graph snapshot of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, closeStore, err := a.store()
			if err != nil {
				return err
			}
			defer closeStore()

			doc, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load session '%s': %w", args[0], err)
			}
			return file.Encode(cmd.OutOrStdout(), doc, file.FormatJSON)
		},
	}

	sessionRmCmd := &cobra.Command{
		Use:   "rm <session-id>...",
		Short: "Remove one or more sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, closeStore, err := a.store()
			if err != nil {
				return err
			}
			defer closeStore()

			failed := false
			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					tui.Fail(cmd.ErrOrStderr(), "failed to remove '%s': %v", id, err)
					failed = true
					continue
				}
				tui.Success(cmd.OutOrStdout(), "removed session '%s'", id)
			}
			if failed {
				return errReported
			}
			return nil
		},
	}

	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
	return sessionCmd
}
