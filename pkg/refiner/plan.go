package refiner

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Plan is an ordered batch of refinement operations, usually written by a
// reviewer after reading an Analysis. Plans are YAML (or JSON) documents:
//
//	operations:
//	  - merge: {states: [save_modal_open, save_dialog_open], into: save_modal}
//	  - remove: internal_flag
//	  - relabel: {state: home, labels: [Start page]}
type Plan struct {
	Operations []Operation `yaml:"operations" json:"operations"`
}

// Operation holds exactly one of Merge, Remove or Relabel.
type Operation struct {
	Merge   *MergeOp   `yaml:"merge,omitempty" json:"merge,omitempty"`
	Remove  string     `yaml:"remove,omitempty" json:"remove,omitempty"`
	Relabel *RelabelOp `yaml:"relabel,omitempty" json:"relabel,omitempty"`
}

type MergeOp struct {
	States []string `yaml:"states" json:"states"`
	Into   string   `yaml:"into" json:"into"`
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

type RelabelOp struct {
	State  string   `yaml:"state" json:"state"`
	Labels []string `yaml:"labels" json:"labels"`
}

// PlanReport records what Apply did.
type PlanReport struct {
	Applied int      `json:"applied"`
	Skipped []string `json:"skipped,omitempty"`
}

// ReadPlan decodes a plan from r.
func ReadPlan(r io.Reader) (*Plan, error) {
	var p Plan
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return &p, nil
		}
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	for i, op := range p.Operations {
		if err := op.validate(); err != nil {
			return nil, fmt.Errorf("plan operation %d: %w", i+1, err)
		}
	}
	return &p, nil
}

func (op Operation) validate() error {
	n := 0
	if op.Merge != nil {
		n++
		if len(op.Merge.States) == 0 || op.Merge.Into == "" {
			return ErrEmptyMerge
		}
	}
	if op.Remove != "" {
		n++
	}
	if op.Relabel != nil {
		n++
		if op.Relabel.State == "" {
			return errors.New("relabel requires a state")
		}
	}
	if n != 1 {
		return fmt.Errorf("expected exactly one of merge, remove or relabel, got %d", n)
	}
	return nil
}

// String describes the operation in one line.
func (op Operation) String() string {
	switch {
	case op.Merge != nil:
		return fmt.Sprintf("merge %v into %s", op.Merge.States, op.Merge.Into)
	case op.Relabel != nil:
		return fmt.Sprintf("relabel %s", op.Relabel.State)
	default:
		return fmt.Sprintf("remove %s", op.Remove)
	}
}

// ApplyPlan runs the plan's operations in order. Operations whose states are
// all missing are skipped and reported, mirroring the no-op semantics of the
// individual mutations.
func (r *Refiner) ApplyPlan(p *Plan) (PlanReport, error) {
	report := PlanReport{}
	for _, op := range p.Operations {
		if err := op.validate(); err != nil {
			return report, fmt.Errorf("%s: %w", op, err)
		}
		switch {
		case op.Merge != nil:
			if !r.anyState(op.Merge.States) {
				report.Skipped = append(report.Skipped, op.String())
				continue
			}
			if err := r.MergeStates(op.Merge.States, op.Merge.Into, op.Merge.Labels); err != nil {
				return report, fmt.Errorf("%s: %w", op, err)
			}
		case op.Relabel != nil:
			if !r.HasState(op.Relabel.State) {
				report.Skipped = append(report.Skipped, op.String())
				continue
			}
			r.RelabelState(op.Relabel.State, op.Relabel.Labels)
		default:
			if !r.HasState(op.Remove) {
				report.Skipped = append(report.Skipped, op.String())
				continue
			}
			r.RemoveState(op.Remove)
		}
		report.Applied++
	}
	r.logger.Debug("plan applied", "applied", report.Applied, "skipped", len(report.Skipped))
	return report, nil
}

func (r *Refiner) anyState(ids []string) bool {
	for _, id := range ids {
		if r.HasState(id) {
			return true
		}
	}
	return false
}

// SuggestedPlan turns every duplicate group of a into merges onto its
// suggested representative. Status-split groups merge within each status.
// Low-value states are left for a reviewer.
func SuggestedPlan(a Analysis) *Plan {
	p := &Plan{}
	for _, g := range a.DuplicateGroups {
		if g.Suggestion.Target != "" {
			p.Operations = append(p.Operations, Operation{Merge: &MergeOp{States: g.States, Into: g.Suggestion.Target}})
			continue
		}
		for _, status := range []string{StatusEmpty, StatusPresent} {
			members := g.Members[status]
			if len(members) < 2 {
				continue
			}
			p.Operations = append(p.Operations, Operation{Merge: &MergeOp{States: members, Into: g.Suggestion.ByStatus[status]}})
		}
	}
	return p
}
