package refiner_test

import (
	"strings"
	"testing"

	"github.com/aretw0/stategraph/internal/testutils"
	"github.com/aretw0/stategraph/pkg/refiner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPlan(t *testing.T) {
	src := `
operations:
  - merge:
      states: [save_modal_open, save_dialog_open]
      into: save_modal
      labels: [Save modal]
  - remove: ghost
  - relabel:
      state: home
      labels: [Start page]
`
	p, err := refiner.ReadPlan(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, p.Operations, 3)
	assert.Equal(t, "save_modal", p.Operations[0].Merge.Into)
	assert.Equal(t, "ghost", p.Operations[1].Remove)
	assert.Equal(t, []string{"Start page"}, p.Operations[2].Relabel.Labels)
}

func TestReadPlan_Empty(t *testing.T) {
	p, err := refiner.ReadPlan(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, p.Operations)
}

func TestReadPlan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"two kinds", "operations:\n  - remove: a\n    relabel: {state: b, labels: [x]}\n"},
		{"nothing", "operations:\n  - {}\n"},
		{"merge without target", "operations:\n  - merge: {states: [a]}\n"},
		{"relabel without state", "operations:\n  - relabel: {labels: [x]}\n"},
		{"not yaml", "operations: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := refiner.ReadPlan(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestApplyPlan(t *testing.T) {
	r := newRefiner(t, testutils.SaveScenarioDoc())
	p := &refiner.Plan{Operations: []refiner.Operation{
		{Merge: &refiner.MergeOp{States: []string{"save_modal_open", "save_dialog_open"}, Into: "save_modal"}},
		{Remove: "ghost"},
		{Relabel: &refiner.RelabelOp{State: "home", Labels: []string{"Start page"}}},
	}}

	report, err := r.ApplyPlan(p)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, []string{"remove ghost"}, report.Skipped)

	assert.Equal(t, []string{"home", "save_modal"}, stateIDs(r.Snapshot()))
	home, ok := r.State("home")
	require.True(t, ok)
	assert.Equal(t, []string{"Start page"}, home.Labels)
}

func TestSuggestedPlan_SaveScenario(t *testing.T) {
	r := newRefiner(t, testutils.SaveScenarioDoc())

	p := refiner.SuggestedPlan(r.Analyze())
	require.Len(t, p.Operations, 1)
	assert.Equal(t, &refiner.MergeOp{
		States: []string{"save_modal_open", "save_dialog_open"},
		Into:   "save_modal_open",
	}, p.Operations[0].Merge)

	_, err := r.ApplyPlan(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "save_modal_open"}, stateIDs(r.Snapshot()))
}

func TestSuggestedPlan_DataGroupMergesPerStatus(t *testing.T) {
	a := refiner.Analysis{DuplicateGroups: []refiner.DuplicateGroup{{
		Type:   refiner.KindData,
		Key:    "files_cache",
		States: []string{"files_cache_empty", "files_present_cache", "files_cache_present"},
		Suggestion: refiner.Suggestion{ByStatus: map[string]string{
			refiner.StatusEmpty:   "files_cache_empty",
			refiner.StatusPresent: "files_present_cache",
		}},
		Members: map[string][]string{
			refiner.StatusEmpty:   {"files_cache_empty"},
			refiner.StatusPresent: {"files_present_cache", "files_cache_present"},
		},
	}}}

	p := refiner.SuggestedPlan(a)
	require.Len(t, p.Operations, 1)
	assert.Equal(t, "files_present_cache", p.Operations[0].Merge.Into)
	assert.Equal(t, []string{"files_present_cache", "files_cache_present"}, p.Operations[0].Merge.States)
}
