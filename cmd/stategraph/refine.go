package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/aretw0/stategraph/pkg/adapters/file"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/refiner"
	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Report duplicate state groups and low-value states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, tools.AnalyzeDuplicates, map[string]any{"session_id": a.sessionID})
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize the states of the session graph by kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, tools.GetGraphSummary, map[string]any{"session_id": a.sessionID})
		},
	}
}

func newMergeCmd(a *app) *cobra.Command {
	var (
		into   string
		labels []string
	)
	cmd := &cobra.Command{
		Use:   "merge <state>... --into <id>",
		Short: "Merge states into one consolidated state",
		Long: `Replaces the given states with a single state. Transitions touching any of
them are redirected to the new state and duplicates are dropped. Without
--label the new state keeps the union of the merged labels.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := map[string]any{
				"session_id":   a.sessionID,
				"state_ids":    args,
				"new_state_id": into,
			}
			if len(labels) > 0 {
				callArgs["new_labels"] = labels
			}
			return a.call(cmd, tools.MergeStates, callArgs)
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "ID of the consolidated state")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Label of the consolidated state (repeatable)")
	_ = cmd.MarkFlagRequired("into")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <state>",
		Short: "Remove a state and every transition touching it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, tools.RemoveState, map[string]any{"session_id": a.sessionID, "state_id": args[0]})
		},
	}
}

func newRelabelCmd(a *app) *cobra.Command {
	var labels []string
	cmd := &cobra.Command{
		Use:   "relabel <state> --label <text>...",
		Short: "Replace the labels of a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, tools.RelabelState, map[string]any{
				"session_id": a.sessionID,
				"state_id":   args[0],
				"new_labels": labels,
			})
		},
	}
	cmd.Flags().StringArrayVar(&labels, "label", nil, "New label (repeatable)")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the refined graph of the session",
		Long:  `Writes the session graph with refinement metadata. The format follows the extension of --out; without --out JSON goes to stdout.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeStore, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			doc, err := ws.RefinedDocument(cmd.Context())
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), out, doc)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (.json, .yaml, .yml or .toml)")
	return cmd
}

func newRefineCmd(a *app) *cobra.Command {
	var (
		planPath    string
		suggestions bool
		out         string
	)
	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Apply a batch of refinements and write the refined graph",
		Long: `Applies a plan of merge, remove and relabel operations to the graph, or with
--apply-suggestions merges every duplicate group into its suggested state.
The graph document itself is never modified; the result goes to --out.

Plan example:

  operations:
    - merge: {states: [save_modal_open, save_dialog_open], into: save_modal}
    - remove: internal_flag
    - relabel: {state: home, labels: [Start page]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (planPath == "") == !suggestions {
				return errors.New("exactly one of --plan or --apply-suggestions is required")
			}
			ws, closeStore, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			r := ws.NewRefiner()
			var plan *refiner.Plan
			if planPath != "" {
				if plan, err = readPlan(planPath); err != nil {
					return err
				}
			} else {
				plan = refiner.SuggestedPlan(r.Analyze())
			}
			report, err := r.ApplyPlan(plan)
			if err != nil {
				return err
			}

			doc := r.RefinedGraph()
			if err := writeDocument(cmd.OutOrStdout(), out, doc); err != nil {
				return err
			}
			status := cmd.ErrOrStderr()
			for _, s := range report.Skipped {
				tui.Warn(status, "skipped %s: no such state", s)
			}
			base, now := r.Baseline(), r.Counts()
			tui.Success(status, "applied %d operations: states %d → %d, transitions %d → %d",
				report.Applied, base.States, now.States, base.Transitions, now.Transitions)
			return nil
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "Refinement plan (YAML or JSON)")
	cmd.Flags().BoolVar(&suggestions, "apply-suggestions", false, "Merge every duplicate group into its suggested state")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (.json, .yaml, .yml or .toml); stdout when empty")
	return cmd
}

func readPlan(path string) (*refiner.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return refiner.ReadPlan(f)
}

func writeDocument(stdout io.Writer, path string, doc *domain.Document) error {
	if path == "" {
		return file.Encode(stdout, doc, file.FormatJSON)
	}
	if err := file.WriteDocument(path, doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
