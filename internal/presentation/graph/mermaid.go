package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/navigator"
	"github.com/aretw0/stategraph/pkg/refiner"
)

// PathOverlay highlights a navigation path on the rendered graph.
type PathOverlay struct {
	Start string
	Path  navigator.Path
}

// GenerateMermaid produces a Mermaid flowchart of the graph.
// It applies semantic styling by state category:
// - Modal: [[Subroutine]]
// - Ready: ([Stadium])
// - Data: [(Cylinder)]
// - Default: [Rectangle]
// Edges are labelled with the action's primary label. With an overlay, the
// path's edges are drawn thick and its states styled as visited, the
// destination as current.
func GenerateMermaid(g *domain.Graph, overlay *PathOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	c := refiner.Categorize(g.States(), refiner.SummaryDataMarkers)
	shapes := make(map[string][2]string)
	for _, s := range c.Data {
		shapes[s.ID] = [2]string{"[(", ")]"}
	}
	for _, s := range c.Ready {
		shapes[s.ID] = [2]string{"([", "])"}
	}
	for _, s := range c.Modal {
		shapes[s.ID] = [2]string{"[[", "]]"}
	}

	for _, s := range g.States() {
		shape, ok := shapes[s.ID]
		if !ok {
			shape = [2]string{"[", "]"}
		}
		text := s.ID
		if label := s.PrimaryLabel(); label != "" {
			text = fmt.Sprintf("%s<br/>%s", s.ID, escape(label))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(s.ID), shape[0], text, shape[1])
	}

	onPath := make(map[domain.TransitionKey]bool)
	if overlay != nil {
		from := overlay.Start
		for _, step := range overlay.Path {
			onPath[domain.TransitionKey{From: from, Via: step.ActionID, To: step.StateID}] = true
			from = step.StateID
		}
	}

	for _, t := range g.Transitions() {
		label := t.Via
		if a, ok := g.Action(t.Via); ok && len(a.Labels) > 0 {
			label = a.Labels[0]
		}
		arrow := fmt.Sprintf("-- \"%s\" -->", escape(label))
		if onPath[t.Key()] {
			arrow = fmt.Sprintf("== \"%s\" ==>", escape(label))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(t.From), arrow, sanitizeMermaidID(t.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		dest := overlay.Path.Destination(overlay.Start)
		visited := map[string]bool{dest: true}
		for _, id := range append([]string{overlay.Start}, stepStates(overlay.Path)...) {
			if !visited[id] {
				visited[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(id))
			}
		}
		if dest != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(dest))
		}
	}

	return sb.String()
}

func stepStates(p navigator.Path) []string {
	out := make([]string, len(p))
	for i, step := range p {
		out[i] = step.StateID
	}
	return out
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
