package navigator

import (
	"sort"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// SearchActions returns actions with at least one label containing query,
// case-insensitively. Results are ordered by the earliest match offset across
// the action's labels, ties kept in mapping order, and truncated to limit
// (zero or less means no limit). Each result carries at most three labels.
func (n *Navigator) SearchActions(query string, limit int) []ActionMatch {
	query = strings.ToLower(query)

	type hit struct {
		match  ActionMatch
		offset int
	}
	var hits []hit

	for _, a := range n.graph.Actions() {
		best := -1
		for _, label := range a.Labels {
			idx := strings.Index(strings.ToLower(label), query)
			if idx >= 0 && (best < 0 || idx < best) {
				best = idx
			}
		}
		if best < 0 {
			continue
		}
		hits = append(hits, hit{
			match: ActionMatch{
				ID:       a.ID,
				Labels:   firstN(a.Labels, 3),
				Metadata: a.Metadata,
			},
			offset: best,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].offset < hits[j].offset
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]ActionMatch, len(hits))
	for i, h := range hits {
		out[i] = h.match
	}
	return out
}

// IdentifyState scores every state against a free-text description. The
// description is split into lowercase words; each (label, word) pair where the
// word occurs in the label scores one point. The first state reaching the
// highest score wins. It returns false when every state scores zero.
func (n *Navigator) IdentifyState(description string) (*domain.State, bool) {
	words := strings.Fields(strings.ToLower(description))
	if len(words) == 0 {
		return nil, false
	}

	var best *domain.State
	bestScore := 0
	for _, s := range n.graph.States() {
		score := 0
		for _, label := range s.Labels {
			lower := strings.ToLower(label)
			for _, w := range words {
				if strings.Contains(lower, w) {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}

	if best == nil {
		return nil, false
	}
	n.logger.Debug("state identified", "state", best.ID, "score", bestScore)
	return best, true
}
