package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Store implements ports.SnapshotStore using the local filesystem.
// Each session is one JSON document in BasePath.
type Store struct {
	BasePath string
}

// NewStore creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".stategraph/sessions".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".stategraph", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".json")
}

func checkID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return fmt.Errorf("invalid sessionID %q", sessionID)
	}
	return nil
}

// Save persists the snapshot atomically.
func (s *Store) Save(ctx context.Context, sessionID string, doc *domain.Document) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc, FormatJSON); err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return writeAtomic(s.path(sessionID), buf.Bytes())
}

// Load retrieves the snapshot of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Document, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	doc, err := Decode(bytes.NewReader(data), FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return doc, nil
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := os.Remove(s.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	return sessions, nil
}
