/*
Package stategraph answers navigation questions over a state-action graph of a
user interface, and cleans such graphs up after automated scanning.

A scanner produces a directed graph: states are observable configurations of
the application, actions are the operations a user can trigger, and
transitions say which action leads from which state to which. Scanned graphs
are noisy, so the package offers two engines over the same model:

  - The Navigator answers "how do I get to X from here?" with a breadth-first
    search to the nearest state matching a goal, and provides fuzzy action
    search and state identification from free text.
  - The Refiner detects duplicate states by naming heuristics, flags
    low-value internal states, and merges, removes or relabels states while
    keeping every transition consistent.

Both are exposed as named tools (see package tools) over MCP, HTTP and the
stategraph CLI.

# Usage

	ws, err := stategraph.Open(ctx, "graph.json")
	if err != nil {
		log.Fatal(err)
	}

	path, ok := ws.Navigator().FindPath("home", "save", 10)
	if ok {
		for _, step := range path {
			fmt.Println(ws.Navigator().DescribeAction(step.ActionID))
		}
	}

	res, err := ws.Call(ctx, "merge_states", map[string]any{
		"state_ids":    []any{"save_modal_open", "save_dialog_open"},
		"new_state_id": "save_modal_open",
	})

Refinements made through the toolbox are persisted after every mutation to
the configured store (memory, filesystem or Redis) and are observed by the
navigator once they succeed.
*/
package stategraph
