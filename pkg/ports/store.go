package ports

import (
	"context"

	"github.com/aretw0/stategraph/pkg/domain"
)

// SnapshotStore persists the working graph of a refinement session, so a
// session can be resumed after a restart or by another replica.
type SnapshotStore interface {
	// Save persists the snapshot for a given session ID, replacing any previous one.
	Save(ctx context.Context, sessionID string, doc *domain.Document) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Document, error)

	// Delete removes the snapshot for a given session ID.
	// Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
