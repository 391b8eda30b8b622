package testutils

import (
	"testing"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// SaveScenarioDoc returns a small document with two states describing the
// same save modal, reachable from home through two different actions.
func SaveScenarioDoc() *domain.Document {
	b := dsl.New()
	b.State("home").Labels("Home screen").
		On("open_save", "save_modal_open").
		On("open_save2", "save_dialog_open")
	b.State("save_modal_open").Labels("Save modal", "Modal dialog")
	b.State("save_dialog_open").Labels("Save dialog visible")

	b.Action("open_save").Labels("Save file", "Quick save").Trigger("click #save")
	b.Action("open_save2").Labels("Click save icon").Trigger("click .save-icon")
	b.Action("export").Labels("Export").Trigger("click #export")
	return b.Document()
}

// EditorDoc returns a richer document exercising every refinement heuristic:
// modal variants, data presence variants, "ready to" states and internal ones.
func EditorDoc() *domain.Document {
	return &domain.Document{
		Graph: domain.GraphData{
			States: []domain.State{
				{ID: "home", Labels: []string{"Home screen", "Landing page"}},
				{ID: "_preview-modal_open", Labels: []string{"Preview modal open"}},
				{ID: "_preview-modal_closed", Labels: []string{"Preview modal closed"}},
				{ID: "_modal-content_open", Labels: []string{"Modal content visible"}},
				{ID: "x_preview-modal_open", Labels: []string{"Preview shown"}},
				{ID: "files_empty", Labels: []string{"No files loaded"}},
				{ID: "files_present", Labels: []string{"Files listed"}},
				{ID: "files_present_cache", Labels: []string{"Cached files"}},
				{ID: "ready_generate", Labels: []string{"Ready to generate image"}},
				{ID: "ready_generate_alt", Labels: []string{"Prompt filled", "ready to generate"}},
				{ID: "ready_save", Labels: []string{"Ready to save"}},
				{ID: "internal_flag", Labels: []string{"_isDirty"}},
				{ID: "config_state", Labels: []string{"config loaded", "data var set"}},
				{ID: "bare"},
			},
			Actions: []domain.Action{
				{ID: "open_preview", Labels: []string{"Open preview", "Click preview"}, Metadata: map[string]any{"trigger": "click #preview"}},
				{ID: "close_preview", Labels: []string{"Close preview"}, Metadata: map[string]any{"trigger": "click .close"}},
				{ID: "load_files", Labels: []string{"Load files"}},
				{ID: "generate", Labels: []string{"Generate image", "Click generate"}},
			},
			Transitions: []domain.Transition{
				{From: "home", Via: "open_preview", To: "_preview-modal_open"},
				{From: "home", Via: "open_preview", To: "x_preview-modal_open"},
				{From: "_preview-modal_open", Via: "close_preview", To: "_preview-modal_closed"},
				{From: "x_preview-modal_open", Via: "close_preview", To: "_preview-modal_closed"},
				{From: "home", Via: "load_files", To: "files_present"},
				{From: "files_present", Via: "generate", To: "ready_generate"},
			},
		},
	}
}

// MustGraph builds a graph from doc or fails the test.
func MustGraph(t *testing.T, doc *domain.Document) *domain.Graph {
	t.Helper()
	g, err := domain.NewGraph(doc)
	require.NoError(t, err, "fixture graph must be well-formed")
	return g
}
