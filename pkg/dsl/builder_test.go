package dsl_test

import (
	"testing"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/navigator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := dsl.New()

	b.State("home").
		Labels("Home screen").
		Meta("url", "/").
		On("open_editor", "editor")

	b.State("editor").
		Labels("Editor").
		On("save", "saved")

	b.State("saved").Labels("Saved toast")

	b.Action("open_editor").Labels("Open editor").Trigger("click #edit")
	b.Action("save").Labels("Save", "Ctrl+S").Trigger("key ctrl+s")

	doc := b.Document()
	require.Len(t, doc.Graph.States, 3)
	assert.Equal(t, "home", doc.Graph.States[0].ID)
	assert.Equal(t, "/", doc.Graph.States[0].Metadata["url"])
	assert.Nil(t, doc.Graph.States[1].Metadata)
	assert.Equal(t, []domain.Transition{
		{From: "home", Via: "open_editor", To: "editor"},
		{From: "editor", Via: "save", To: "saved"},
	}, doc.Graph.Transitions)
	assert.Equal(t, "key ctrl+s", doc.Graph.Actions[1].Trigger())

	g, err := b.Graph()
	require.NoError(t, err)
	path, ok := navigator.New(g).FindPath("home", "toast", 5)
	require.True(t, ok)
	assert.Equal(t, "saved", path.Destination("home"))
}

func TestBuilder_ReusesDeclarations(t *testing.T) {
	b := dsl.New()
	b.State("home").Labels("Home")
	b.State("home").Labels("Landing page")
	b.Action("go").Labels("Go")
	b.Action("go").Trigger("click")

	doc := b.Document()
	require.Len(t, doc.Graph.States, 1)
	assert.Equal(t, []string{"Home", "Landing page"}, doc.Graph.States[0].Labels)
	require.Len(t, doc.Graph.Actions, 1)
	assert.Equal(t, "click", doc.Graph.Actions[0].Trigger())
}

func TestBuilder_DocumentIsDetached(t *testing.T) {
	b := dsl.New().Meta("source", "test")
	b.State("home").Labels("Home")

	doc := b.Document()
	doc.Graph.States[0].Labels[0] = "changed"
	doc.Metadata["source"] = "changed"

	again := b.Document()
	assert.Equal(t, "Home", again.Graph.States[0].Labels[0])
	assert.Equal(t, "test", again.Metadata["source"])
}

func TestBuilder_Graph_MissingID(t *testing.T) {
	b := dsl.New()
	b.State("")

	_, err := b.Graph()
	require.Error(t, err)
	assert.True(t, domain.IsMalformed(err))
}

func TestBuilder_DanglingTransitionsAreKept(t *testing.T) {
	b := dsl.New()
	b.State("home").On("go", "nowhere")

	g, err := b.Graph()
	require.NoError(t, err)
	assert.Equal(t, 1, g.TransitionCount())
}
