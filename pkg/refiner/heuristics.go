package refiner

import (
	"fmt"
	"strings"

	"github.com/aretw0/stategraph/pkg/domain"
)

// Group kinds produced by the default groupers.
const (
	KindModal = "modal_duplicates"
	KindData  = "data_duplicates"
	KindReady = "ready_duplicates"
)

// Data presence statuses.
const (
	StatusEmpty   = "empty"
	StatusPresent = "present"
)

// DuplicateGroup is a cluster of states considered equivalent by a heuristic.
type DuplicateGroup struct {
	Type       string     `json:"type"`
	Key        string     `json:"key"`
	States     []string   `json:"states"`
	Suggestion Suggestion `json:"suggested_merge"`
	Reason     string     `json:"reason"`
	// Members splits States by status for status-split groups.
	Members map[string][]string `json:"members,omitempty"`
}

// Suggestion is the proposed consolidation of a group. Simple groups name a
// single Target; status-split groups propose one representative per status
// (empty string when the status has no member).
type Suggestion struct {
	Target   string            `json:"target,omitempty"`
	ByStatus map[string]string `json:"by_status,omitempty"`
}

func (s Suggestion) String() string {
	if s.Target != "" || len(s.ByStatus) == 0 {
		return s.Target
	}
	parts := make([]string, 0, 2)
	for _, status := range []string{StatusEmpty, StatusPresent} {
		id := s.ByStatus[status]
		if id == "" {
			id = "none"
		}
		parts = append(parts, status+": "+id)
	}
	return strings.Join(parts, ", ")
}

// Grouper clusters states that a naming convention marks as duplicates.
// Only groups with more than one member are returned.
type Grouper interface {
	Group(states []*domain.State) []DuplicateGroup
}

// GrouperFunc adapts a function to the Grouper interface.
type GrouperFunc func(states []*domain.State) []DuplicateGroup

func (f GrouperFunc) Group(states []*domain.State) []DuplicateGroup { return f(states) }

// LowValueRule flags a state as an internal detail, returning the reason.
type LowValueRule interface {
	Check(s *domain.State) (reason string, flagged bool)
}

// LowValueRuleFunc adapts a function to the LowValueRule interface.
type LowValueRuleFunc func(s *domain.State) (string, bool)

func (f LowValueRuleFunc) Check(s *domain.State) (string, bool) { return f(s) }

// bucketSet keeps buckets in first-seen key order.
type bucketSet struct {
	keys    []string
	members map[string][]string
}

func newBucketSet() *bucketSet {
	return &bucketSet{members: make(map[string][]string)}
}

func (b *bucketSet) add(key, id string) {
	if _, ok := b.members[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.members[key] = append(b.members[key], id)
}

// ModalGrouper groups states that describe the same modal in the same
// open/closed status, e.g. "_preview-modal_open" and "x_preview-modal_open".
//
// The modal identity is the first underscore-delimited token of the id that
// contains one of Markers, with the marker rewritten to Markers[0] so that
// synonyms ("dialog" for "modal") collapse onto one key. The status is "open"
// when the id contains OpenMarker.
type ModalGrouper struct {
	Markers    []string
	OpenMarker string
}

func (g ModalGrouper) Group(states []*domain.State) []DuplicateGroup {
	buckets := newBucketSet()
	for _, s := range states {
		name, ok := g.modalName(s.ID)
		if !ok {
			continue
		}
		status := "closed"
		if strings.Contains(s.ID, g.OpenMarker) {
			status = "open"
		}
		buckets.add(name+"_"+status, s.ID)
	}

	var groups []DuplicateGroup
	for _, key := range buckets.keys {
		ids := buckets.members[key]
		if len(ids) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			Type:       KindModal,
			Key:        key,
			States:     ids,
			Suggestion: Suggestion{Target: ids[0]},
			Reason:     fmt.Sprintf("Multiple selectors for same modal: %s", key),
		})
	}
	return groups
}

func (g ModalGrouper) modalName(id string) (string, bool) {
	if len(g.Markers) == 0 {
		return "", false
	}
	for _, part := range strings.Split(id, "_") {
		lower := strings.ToLower(part)
		for _, marker := range g.Markers {
			if idx := strings.Index(lower, marker); idx >= 0 {
				return part[:idx] + g.Markers[0] + part[idx+len(marker):], true
			}
		}
	}
	return "", false
}

// DataPresenceGrouper groups data-presence states sharing a base variable.
// A state participates when its id contains the empty or present marker; the
// base key is the id with every "_<marker>" token removed, so
// "files_present_cache" and "files_cache_present" share the base "files_cache"
// while "cart_empty_v1" and "cart_empty_v2" stay apart.
type DataPresenceGrouper struct {
	EmptyMarker   string
	PresentMarker string
}

func (g DataPresenceGrouper) Group(states []*domain.State) []DuplicateGroup {
	type split struct{ empty, present []string }
	var order []string
	bases := make(map[string]*split)

	for _, s := range states {
		isEmpty := strings.Contains(s.ID, g.EmptyMarker)
		if !isEmpty && !strings.Contains(s.ID, g.PresentMarker) {
			continue
		}
		base := g.base(s.ID)

		b, ok := bases[base]
		if !ok {
			b = &split{}
			bases[base] = b
			order = append(order, base)
		}
		if isEmpty {
			b.empty = append(b.empty, s.ID)
		} else {
			b.present = append(b.present, s.ID)
		}
	}

	var groups []DuplicateGroup
	for _, base := range order {
		b := bases[base]
		if len(b.empty) < 2 && len(b.present) < 2 {
			continue
		}
		members := append(append([]string{}, b.empty...), b.present...)
		groups = append(groups, DuplicateGroup{
			Type:   KindData,
			Key:    base,
			States: members,
			Suggestion: Suggestion{ByStatus: map[string]string{
				StatusEmpty:   first(b.empty),
				StatusPresent: first(b.present),
			}},
			Reason: fmt.Sprintf("Multiple states for same data variable: %s", base),
			Members: map[string][]string{
				StatusEmpty:   b.empty,
				StatusPresent: b.present,
			},
		})
	}
	return groups
}

func (g DataPresenceGrouper) base(id string) string {
	id = strings.ReplaceAll(id, "_"+g.EmptyMarker, "")
	return strings.ReplaceAll(id, "_"+g.PresentMarker, "")
}

// ReadyGrouper groups "ready to <verb>" states by verb. Only states whose id
// contains Marker are considered; the verb is the first word following Phrase
// in the first label that contains Phrase and is followed by a word.
type ReadyGrouper struct {
	Marker string
	Phrase string
}

func (g ReadyGrouper) Group(states []*domain.State) []DuplicateGroup {
	buckets := newBucketSet()
	for _, s := range states {
		if !strings.Contains(strings.ToLower(s.ID), g.Marker) {
			continue
		}
		for _, label := range s.Labels {
			lower := strings.ToLower(label)
			idx := strings.Index(lower, g.Phrase)
			if idx < 0 {
				continue
			}
			words := strings.Fields(lower[idx+len(g.Phrase):])
			if len(words) == 0 {
				continue
			}
			buckets.add(words[0], s.ID)
			break
		}
	}

	var groups []DuplicateGroup
	for _, verb := range buckets.keys {
		ids := buckets.members[verb]
		if len(ids) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			Type:       KindReady,
			Key:        verb,
			States:     ids,
			Suggestion: Suggestion{Target: ids[0]},
			Reason:     fmt.Sprintf("Multiple %q states", g.Phrase+" "+verb),
		})
	}
	return groups
}

// InternalLabelRule flags states with a label starting with Prefix,
// which scanners emit for raw identifiers such as "_isDirty".
type InternalLabelRule struct {
	Prefix string
}

func (r InternalLabelRule) Check(s *domain.State) (string, bool) {
	for _, label := range s.Labels {
		if strings.HasPrefix(label, r.Prefix) {
			return "Technical/internal identifier", true
		}
	}
	return "", false
}

// TechnicalLabelRule flags states whose every label mentions one of Terms.
// A state without labels has nothing user-facing and is flagged as well.
type TechnicalLabelRule struct {
	Terms []string
}

func (r TechnicalLabelRule) Check(s *domain.State) (string, bool) {
	if len(s.Labels) == 0 {
		return "No user-facing labels", true
	}
	for _, label := range s.Labels {
		if !r.mentionsTerm(strings.ToLower(label)) {
			return "", false
		}
	}
	return "Internal state variable, not user-facing", true
}

func (r TechnicalLabelRule) mentionsTerm(label string) bool {
	for _, term := range r.Terms {
		if strings.Contains(label, term) {
			return true
		}
	}
	return false
}

// DefaultGroupers returns the modal, data presence and ready groupers, in the
// order analysis reports them.
func DefaultGroupers() []Grouper {
	return []Grouper{
		ModalGrouper{Markers: ModalMarkers, OpenMarker: "open"},
		DataPresenceGrouper{EmptyMarker: StatusEmpty, PresentMarker: StatusPresent},
		ReadyGrouper{Marker: "ready", Phrase: "ready to"},
	}
}

// DefaultLowValueRules returns the internal-identifier and technical-term rules.
func DefaultLowValueRules() []LowValueRule {
	return []LowValueRule{
		InternalLabelRule{Prefix: "_"},
		TechnicalLabelRule{Terms: []string{"var", "data", "config"}},
	}
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
