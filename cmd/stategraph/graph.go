package main

import (
	"fmt"

	"github.com/aretw0/stategraph/internal/presentation/graph"
	"github.com/aretw0/stategraph/internal/presentation/tui"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	var from, goal string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the state graph as a Mermaid diagram",
		Long: `Outputs a Mermaid flowchart of the session graph. With --from and --goal the
shortest path between them is highlighted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (from == "") != (goal == "") {
				return fmt.Errorf("--from and --goal must be given together")
			}
			ws, closeStore, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			nav := ws.Navigator()
			g, err := domain.NewGraph(nav.Document())
			if err != nil {
				return err
			}

			var overlay *graph.PathOverlay
			if from != "" {
				path, ok := nav.FindPath(from, goal, a.cfg.Navigation.MaxSteps)
				if !ok {
					tui.Warn(cmd.ErrOrStderr(), "no path from '%s' to '%s' within %d steps", from, goal, a.cfg.Navigation.MaxSteps)
				} else {
					overlay = &graph.PathOverlay{Start: from, Path: path}
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start state of the highlighted path")
	cmd.Flags().StringVar(&goal, "goal", "", "Goal of the highlighted path")
	return cmd
}
