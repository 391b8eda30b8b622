package tools_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/stategraph/internal/testutils"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/navigator"
	"github.com/aretw0/stategraph/pkg/observability"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/session"
	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolbox(t *testing.T, doc *domain.Document, opts ...tools.Option) *tools.Toolbox {
	t.Helper()
	g := testutils.MustGraph(t, doc)
	mgr := session.NewManager(memory.NewStore())
	require.NoError(t, mgr.StartWithID(context.Background(), tools.DefaultSessionID, g))
	return tools.New(navigator.New(g), mgr, opts...)
}

func call(t *testing.T, tb *tools.Toolbox, name string, args map[string]any) *tools.Result {
	t.Helper()
	res, err := tb.Call(context.Background(), name, args)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestToolbox_Registration(t *testing.T) {
	tb := newToolbox(t, testutils.SaveScenarioDoc())

	var names []string
	for _, tool := range tb.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{
		tools.FindPath, tools.SearchActions, tools.IdentifyState, tools.ListStates, tools.GetAvailableActions,
		tools.AnalyzeDuplicates, tools.MergeStates, tools.RemoveState, tools.RelabelState,
		tools.GetGraphSummary, tools.GetRefinedGraph,
	}, names)

	merge, ok := tb.Tool(tools.MergeStates)
	require.True(t, ok)
	assert.True(t, merge.Mutates)
	find, _ := tb.Tool(tools.FindPath)
	assert.False(t, find.Mutates)
}

func TestToolbox_NavigationOnly(t *testing.T) {
	g := testutils.MustGraph(t, testutils.SaveScenarioDoc())
	tb := tools.New(navigator.New(g), nil)

	assert.Len(t, tb.Tools(), 5)
	_, err := tb.Call(context.Background(), tools.AnalyzeDuplicates, nil)
	assert.ErrorIs(t, err, registry.ErrToolNotFound)
}

func TestToolbox_InvalidArguments(t *testing.T) {
	tb := newToolbox(t, testutils.SaveScenarioDoc())

	_, err := tb.Call(context.Background(), tools.FindPath, map[string]any{"current_state": "home"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goal")

	_, err = tb.Call(context.Background(), tools.MergeStates, map[string]any{
		"state_ids":    "not-a-list",
		"new_state_id": "x",
	})
	assert.Error(t, err)
}

func TestToolbox_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tb := newToolbox(t, testutils.SaveScenarioDoc(), tools.WithMetrics(observability.NewMetrics(reg)))

	call(t, tb, tools.FindPath, map[string]any{"current_state": "home", "goal": "save"})
	call(t, tb, tools.RemoveState, map[string]any{"state_id": "ghost"})
	call(t, tb, tools.RemoveState, map[string]any{"state_id": "save_dialog_open"})
	_, _ = tb.Call(context.Background(), "no_such_tool", nil)

	rec := httptest.NewRecorder()
	observability.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `stategraph_tool_calls_total{outcome="ok",tool="find_path"} 1`)
	assert.Contains(t, body, `stategraph_tool_calls_total{outcome="not_found",tool="remove_state"} 1`)
	assert.Contains(t, body, `stategraph_tool_calls_total{outcome="ok",tool="remove_state"} 1`)
	assert.NotContains(t, body, "no_such_tool")
	assert.Contains(t, body, `stategraph_refinement_mutations_total{kind="remove"} 1`)
	assert.Contains(t, body, "stategraph_navigation_states 2")
	assert.Contains(t, body, "stategraph_navigation_transitions 1")
}
