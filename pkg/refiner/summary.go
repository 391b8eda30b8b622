package refiner

import (
	"fmt"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// ModalMarkers name modal states; "dialog" is treated as a synonym of "modal"
// by both the modal grouper and Categorize.
var ModalMarkers = []string{"modal", "dialog"}

// Data markers used to recognise data-presence states when categorising.
var (
	SummaryDataMarkers = []string{"empty", "present"}
	ListingDataMarkers = []string{"empty", "present", "loaded"}
)

// Categories buckets states by the same id conventions the groupers use.
// Modal, Ready and Data may overlap; Other holds what none of them claim.
type Categories struct {
	Modal []*domain.State
	Ready []*domain.State
	Data  []*domain.State
	Other []*domain.State
}

// Categorize buckets states by case-insensitive substrings of their ids:
// any of ModalMarkers, "ready", and any of dataMarkers.
func Categorize(states []*domain.State, dataMarkers []string) Categories {
	var c Categories
	for _, s := range states {
		id := strings.ToLower(s.ID)
		claimed := false
		if containsAny(id, ModalMarkers) {
			c.Modal = append(c.Modal, s)
			claimed = true
		}
		if strings.Contains(id, "ready") {
			c.Ready = append(c.Ready, s)
			claimed = true
		}
		if containsAny(id, dataMarkers) {
			c.Data = append(c.Data, s)
			claimed = true
		}
		if !claimed {
			c.Other = append(c.Other, s)
		}
	}
	return c
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Summarize renders a capped, categorised overview of the working graph,
// meant for a reader deciding what to merge next.
func (r *Refiner) Summarize() string {
	var b strings.Builder
	b.WriteString("Graph Summary:\n")
	fmt.Fprintf(&b, "Total States: %d\n", r.graph.StateCount())
	fmt.Fprintf(&b, "Total Actions: %d\n", r.graph.ActionCount())
	fmt.Fprintf(&b, "Total Transitions: %d\n\n", r.graph.TransitionCount())

	c := Categorize(r.graph.States(), SummaryDataMarkers)
	writeSection(&b, "Modal States", c.Modal, 10, true)
	writeSection(&b, "Ready States", c.Ready, 10, true)
	writeSection(&b, "Data States", c.Data, 10, true)
	writeSection(&b, "Other States", c.Other, 5, false)
	return b.String()
}

func writeSection(b *strings.Builder, title string, states []*domain.State, limit int, trailingBlank bool) {
	if len(states) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(states))
	for i, s := range states {
		if i == limit {
			fmt.Fprintf(b, "  ... and %d more\n", len(states)-limit)
			break
		}
		labels := s.Labels
		if len(labels) > 2 {
			labels = labels[:2]
		}
		fmt.Fprintf(b, "  - %s: %s\n", s.ID, strings.Join(labels, ", "))
	}
	if trailingBlank {
		b.WriteString("\n")
	}
}
