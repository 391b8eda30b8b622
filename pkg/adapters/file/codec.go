// Package file reads and writes graph documents on the local filesystem and
// provides a directory-backed snapshot store.
package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a document serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension. Anything that is
// not .yaml, .yml or .toml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// rawDocument mirrors domain.Document with pointers, so that absent keys can
// be told apart from empty collections.
type rawDocument struct {
	Graph *struct {
		States                  *[]domain.State      `json:"states" yaml:"states"`
		Actions                 *[]domain.Action     `json:"actions" yaml:"actions"`
		Transitions             *[]domain.Transition `json:"transitions" yaml:"transitions"`
		OriginalStateCount      *int                 `json:"original_state_count" yaml:"original_state_count"`
		OriginalTransitionCount *int                 `json:"original_transition_count" yaml:"original_transition_count"`
	} `json:"graph" yaml:"graph"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// Decode parses a document and checks its required structure.
// Structural problems are reported as *domain.MalformedGraphError.
func Decode(r io.Reader, format Format) (*domain.Document, error) {
	var raw rawDocument
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
			return nil, &domain.MalformedGraphError{Field: "document", Reason: err.Error()}
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, &domain.MalformedGraphError{Field: "document", Reason: err.Error()}
		}
	case FormatTOML:
		if err := decodeTOML(r, &raw); err != nil {
			return nil, &domain.MalformedGraphError{Field: "document", Reason: err.Error()}
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}

	switch {
	case raw.Graph == nil:
		return nil, &domain.MalformedGraphError{Field: "graph", Reason: "missing"}
	case raw.Graph.States == nil:
		return nil, &domain.MalformedGraphError{Field: "graph.states", Reason: "missing"}
	case raw.Graph.Actions == nil:
		return nil, &domain.MalformedGraphError{Field: "graph.actions", Reason: "missing"}
	case raw.Graph.Transitions == nil:
		return nil, &domain.MalformedGraphError{Field: "graph.transitions", Reason: "missing"}
	}

	doc := &domain.Document{
		Graph: domain.GraphData{
			States:                  *raw.Graph.States,
			Actions:                 *raw.Graph.Actions,
			Transitions:             *raw.Graph.Transitions,
			OriginalStateCount:      raw.Graph.OriginalStateCount,
			OriginalTransitionCount: raw.Graph.OriginalTransitionCount,
		},
		Metadata: raw.Metadata,
	}
	for i, t := range doc.Graph.Transitions {
		endpoints := []struct{ field, value string }{{"from", t.From}, {"via", t.Via}, {"to", t.To}}
		for _, e := range endpoints {
			if e.value == "" {
				return nil, &domain.MalformedGraphError{
					Field:  fmt.Sprintf("graph.transitions[%d].%s", i, e.field),
					Reason: "required",
				}
			}
		}
	}
	return doc, nil
}

// Encode writes doc in the given format. JSON output is indented.
// Nil collections are written as empty lists so the output decodes again.
func Encode(w io.Writer, doc *domain.Document, format Format) error {
	doc = withCollections(doc)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatTOML:
		return encodeTOML(w, doc)
	default:
		return fmt.Errorf("unsupported document format %q", format)
	}
}

// TOML documents go through a generic tree so the JSON field names apply.

func decodeTOML(r io.Reader, raw *rawDocument) error {
	var tree map[string]any
	if err := toml.NewDecoder(r).Decode(&tree); err != nil {
		return err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, raw)
}

func encodeTOML(w io.Writer, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	dropNulls(tree)
	if err := toml.NewEncoder(w).Encode(tree); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}

// dropNulls removes null values, which TOML cannot represent.
func dropNulls(v any) {
	switch n := v.(type) {
	case map[string]any:
		for k, child := range n {
			if child == nil {
				delete(n, k)
				continue
			}
			dropNulls(child)
		}
	case []any:
		for _, child := range n {
			dropNulls(child)
		}
	}
}

// ReadDocument loads a document from path, picking the format from its extension.
func ReadDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}
	doc, err := Decode(bytes.NewReader(data), FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", path, err)
	}
	return doc, nil
}

// WriteDocument saves doc to path atomically, picking the format from its extension.
func WriteDocument(path string, doc *domain.Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, FormatFromPath(path)); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

// writeAtomic writes to a temporary file in the destination directory, syncs
// it, and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func withCollections(doc *domain.Document) *domain.Document {
	out := *doc
	if out.Graph.States == nil {
		out.Graph.States = []domain.State{}
	}
	if out.Graph.Actions == nil {
		out.Graph.Actions = []domain.Action{}
	}
	if out.Graph.Transitions == nil {
		out.Graph.Transitions = []domain.Transition{}
	}
	return &out
}
