package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDoc() *domain.Document {
	return &domain.Document{
		Graph: domain.GraphData{
			States: []domain.State{
				{ID: "home", Labels: []string{"Home screen"}, Metadata: map[string]any{"url": "/"}},
				{ID: "editor_open", Labels: []string{"Editor"}},
			},
			Actions: []domain.Action{
				{ID: "open_editor", Labels: []string{"Open editor"}, Metadata: map[string]any{domain.MetaTrigger: "click #edit"}},
			},
			Transitions: []domain.Transition{
				{From: "home", Via: "open_editor", To: "editor_open"},
			},
		},
		Metadata: map[string]any{
			domain.MetaRefined:            true,
			domain.MetaOriginalStateCount: 5,
		},
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDoc()
		require.NoError(t, store.Save(ctx, sessionID, doc), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Graph.States, 2)
		assert.Equal(t, "home", loaded.Graph.States[0].ID)
		assert.Equal(t, []string{"Home screen"}, loaded.Graph.States[0].Labels)
		assert.Equal(t, "/", loaded.Graph.States[0].Metadata["url"])
		assert.Equal(t, "click #edit", loaded.Graph.Actions[0].Trigger())
		assert.Equal(t, doc.Graph.Transitions, loaded.Graph.Transitions)
		assert.True(t, loaded.Refined())

		// Serializing stores turn ints into floats; MetadataInt normalizes.
		n, ok := loaded.MetadataInt(domain.MetaOriginalStateCount)
		assert.True(t, ok)
		assert.Equal(t, 5, n)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Graph.States[0].Labels[0] = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Home screen", again.Graph.States[0].Labels[0])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		doc := contractDoc()
		doc.Graph.States = doc.Graph.States[:1]
		doc.Graph.Transitions = nil
		require.NoError(t, store.Save(ctx, sessionID, doc))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, loaded.Graph.States, 1)
		assert.Empty(t, loaded.Graph.Transitions)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractDoc()))
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractDoc()))
		require.NoError(t, store.Save(ctx, id2, contractDoc()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
