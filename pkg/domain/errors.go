package domain

import (
	"errors"
	"fmt"
)

// ErrStateNotFound is returned by adapters when a referenced state does not exist.
var ErrStateNotFound = errors.New("state not found")

// ErrActionNotFound is returned by adapters when a referenced action does not exist.
var ErrActionNotFound = errors.New("action not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// MalformedGraphError reports a document that lacks required structure.
// It is fatal to session construction.
type MalformedGraphError struct {
	Field  string // e.g. "graph.states[3].id"
	Reason string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed graph: %s: %s", e.Field, e.Reason)
}

// IsMalformed reports whether err is (or wraps) a MalformedGraphError.
func IsMalformed(err error) bool {
	var target *MalformedGraphError
	return errors.As(err, &target)
}
