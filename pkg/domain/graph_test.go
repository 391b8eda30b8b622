package domain_test

import (
	"testing"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *domain.Document {
	return &domain.Document{
		Graph: domain.GraphData{
			States: []domain.State{
				{ID: "home", Labels: []string{"Home screen"}},
				{ID: "editor", Labels: []string{"Editor open"}, Metadata: map[string]any{"confidence": 0.8}},
			},
			Actions: []domain.Action{
				{ID: "open_editor", Labels: []string{"Click edit"}, Metadata: map[string]any{"trigger": "click #edit"}},
			},
			Transitions: []domain.Transition{
				{From: "home", Via: "open_editor", To: "editor"},
			},
		},
	}
}

func TestNewGraph(t *testing.T) {
	g, err := domain.NewGraph(sampleDoc())
	require.NoError(t, err)

	assert.Equal(t, 2, g.StateCount())
	assert.Equal(t, 1, g.ActionCount())
	assert.Equal(t, 1, g.TransitionCount())
	assert.Equal(t, domain.Counts{States: 2, Transitions: 1}, g.Baseline())

	s, ok := g.State("editor")
	require.True(t, ok)
	assert.Equal(t, "Editor open", s.PrimaryLabel())

	a, ok := g.Action("open_editor")
	require.True(t, ok)
	assert.Equal(t, "click #edit", a.Trigger())
}

func TestNewGraph_Malformed(t *testing.T) {
	t.Run("nil document", func(t *testing.T) {
		_, err := domain.NewGraph(nil)
		assert.True(t, domain.IsMalformed(err))
	})

	t.Run("state without id", func(t *testing.T) {
		doc := sampleDoc()
		doc.Graph.States = append(doc.Graph.States, domain.State{Labels: []string{"orphan"}})
		_, err := domain.NewGraph(doc)
		require.Error(t, err)

		var mErr *domain.MalformedGraphError
		require.ErrorAs(t, err, &mErr)
		assert.Equal(t, "graph.states[2].id", mErr.Field)
	})

	t.Run("action without id", func(t *testing.T) {
		doc := sampleDoc()
		doc.Graph.Actions[0].ID = ""
		_, err := domain.NewGraph(doc)
		assert.True(t, domain.IsMalformed(err))
	})
}

func TestNewGraph_DuplicateIDs(t *testing.T) {
	doc := sampleDoc()
	doc.Graph.States = append(doc.Graph.States, domain.State{ID: "home", Labels: []string{"Landing"}})

	g, err := domain.NewGraph(doc)
	require.NoError(t, err)

	states := g.States()
	require.Len(t, states, 2)
	assert.Equal(t, "home", states[0].ID, "first position is kept")
	assert.Equal(t, []string{"Landing"}, states[0].Labels, "last content wins")
}

func TestNewGraph_BaselineFromDocument(t *testing.T) {
	t.Run("graph fields", func(t *testing.T) {
		doc := sampleDoc()
		states, transitions := 40, 90
		doc.Graph.OriginalStateCount = &states
		doc.Graph.OriginalTransitionCount = &transitions

		g, err := domain.NewGraph(doc)
		require.NoError(t, err)
		assert.Equal(t, domain.Counts{States: 40, Transitions: 90}, g.Baseline())
	})

	t.Run("refined metadata", func(t *testing.T) {
		doc := sampleDoc()
		doc.Metadata = map[string]any{
			domain.MetaRefined:                 true,
			domain.MetaOriginalStateCount:      float64(12),
			domain.MetaOriginalTransitionCount: float64(30),
		}

		g, err := domain.NewGraph(doc)
		require.NoError(t, err)
		assert.True(t, doc.Refined())
		assert.Equal(t, domain.Counts{States: 12, Transitions: 30}, g.Baseline())
	})
}

func TestGraph_OrderSemantics(t *testing.T) {
	g, err := domain.NewGraph(sampleDoc())
	require.NoError(t, err)

	// Replacing in place keeps position.
	g.PutState(&domain.State{ID: "home", Labels: []string{"Start"}})
	assert.Equal(t, "home", g.States()[0].ID)

	// Delete + insert moves to the end.
	assert.True(t, g.DeleteState("home"))
	assert.False(t, g.DeleteState("home"))
	g.PutState(&domain.State{ID: "home"})
	assert.Equal(t, []string{"editor", "home"}, ids(g.States()))
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g, err := domain.NewGraph(sampleDoc())
	require.NoError(t, err)

	c := g.Clone()
	s, _ := c.State("home")
	s.Labels[0] = "changed"
	c.SetTransitions(nil)
	c.DeleteState("editor")

	orig, _ := g.State("home")
	assert.Equal(t, "Home screen", orig.Labels[0])
	assert.Equal(t, 1, g.TransitionCount())
	assert.True(t, g.HasState("editor"))
}

func TestGraph_DocumentProjection(t *testing.T) {
	doc := sampleDoc()
	doc.Graph.States[0].Labels = nil

	g, err := domain.NewGraph(doc)
	require.NoError(t, err)

	out := g.Document()
	require.Len(t, out.Graph.States, 2)
	assert.NotNil(t, out.Graph.States[0].Labels)
	assert.Empty(t, out.Graph.States[0].Labels)
	assert.Equal(t, doc.Graph.Transitions, out.Graph.Transitions)
}

func TestDedupeTransitions(t *testing.T) {
	in := []domain.Transition{
		{From: "a", Via: "x", To: "b", Metadata: map[string]any{"n": 1}},
		{From: "a", Via: "y", To: "b"},
		{From: "a", Via: "x", To: "b", Metadata: map[string]any{"n": 2}},
	}
	out := domain.DedupeTransitions(in)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Metadata["n"])
	assert.Equal(t, "y", out[1].Via)
}

func ids(states []*domain.State) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, s.ID)
	}
	return out
}
