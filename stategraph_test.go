package stategraph_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/stategraph"
	"github.com/aretw0/stategraph/internal/testutils"
	"github.com/aretw0/stategraph/pkg/adapters/file"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_WithDocument(t *testing.T) {
	ctx := context.Background()
	ws, err := stategraph.Open(ctx, "", stategraph.WithDocument(testutils.SaveScenarioDoc()))
	require.NoError(t, err)

	assert.Equal(t, tools.DefaultSessionID, ws.DefaultSession())
	assert.Equal(t, 3, ws.Graph().StateCount())

	path, ok := ws.Navigator().FindPath("home", "save", 10)
	require.True(t, ok)
	assert.Equal(t, "save_modal_open", path.Destination("home"))

	exists, err := ws.Sessions().Exists(ctx, tools.DefaultSessionID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpen_FromFile(t *testing.T) {
	for _, name := range []string{"graph.json", "graph.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, file.WriteDocument(path, testutils.EditorDoc()))

			ws, err := stategraph.Open(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, name, ws.Name)
			assert.Equal(t, 14, ws.Graph().StateCount())
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, err := stategraph.Open(context.Background(), "")
	assert.ErrorContains(t, err, "a graph path is required")

	_, err = stategraph.Open(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWorkspace_RefinementFollowsNavigation(t *testing.T) {
	ctx := context.Background()
	ws, err := stategraph.Open(ctx, "", stategraph.WithDocument(testutils.SaveScenarioDoc()))
	require.NoError(t, err)

	res, err := ws.Call(ctx, tools.MergeStates, map[string]any{
		"state_ids":    []any{"save_modal_open", "save_dialog_open"},
		"new_state_id": "save_modal",
	})
	require.NoError(t, err)
	assert.False(t, res.NotFound)

	_, ok := ws.Navigator().State("save_dialog_open")
	assert.False(t, ok)
	path, ok := ws.Navigator().FindPath("home", "save", 10)
	require.True(t, ok)
	assert.Equal(t, "save_modal", path.Destination("home"))

	doc, err := ws.RefinedDocument(ctx)
	require.NoError(t, err)
	assert.True(t, doc.Refined())
	n, ok := doc.MetadataInt("original_state_count")
	require.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Len(t, doc.Graph.States, 2)

	// The loaded graph is untouched.
	assert.Equal(t, 3, ws.Graph().StateCount())
	assert.Equal(t, 3, ws.NewRefiner().Counts().States)
}

func TestOpen_Resume(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	ws, err := stategraph.Open(ctx, "", stategraph.WithDocument(testutils.SaveScenarioDoc()),
		stategraph.WithStore(store), stategraph.WithSessionID("review"))
	require.NoError(t, err)
	_, err = ws.Call(ctx, tools.RemoveState, map[string]any{"state_id": "save_dialog_open"})
	require.NoError(t, err)

	resumed, err := stategraph.Open(ctx, "", stategraph.WithDocument(testutils.SaveScenarioDoc()),
		stategraph.WithStore(store), stategraph.WithSessionID("review"), stategraph.WithResume())
	require.NoError(t, err)
	assert.Equal(t, "review", resumed.DefaultSession())
	assert.Equal(t, 2, resumed.Navigator().Counts().States)

	restarted, err := stategraph.Open(ctx, "", stategraph.WithDocument(testutils.SaveScenarioDoc()),
		stategraph.WithStore(store), stategraph.WithSessionID("review"))
	require.NoError(t, err)
	assert.Equal(t, 3, restarted.Navigator().Counts().States)
}

func TestWorkspace_Reload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, file.WriteDocument(path, testutils.SaveScenarioDoc()))

	ws, err := stategraph.Open(ctx, path)
	require.NoError(t, err)
	_, err = ws.Call(ctx, tools.RemoveState, map[string]any{"state_id": "save_dialog_open"})
	require.NoError(t, err)
	assert.Equal(t, 2, ws.Navigator().Counts().States)

	require.NoError(t, file.WriteDocument(path, testutils.EditorDoc()))
	require.NoError(t, ws.Reload(ctx))

	assert.Equal(t, 14, ws.Graph().StateCount())
	assert.Equal(t, 14, ws.Navigator().Counts().States)
	doc, err := ws.RefinedDocument(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Graph.States, 14)
}

func TestWorkspace_ReloadRequiresFile(t *testing.T) {
	ws, err := stategraph.Open(context.Background(), "", stategraph.WithDocument(testutils.SaveScenarioDoc()))
	require.NoError(t, err)
	assert.Error(t, ws.Reload(context.Background()))
}
