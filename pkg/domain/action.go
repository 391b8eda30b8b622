package domain

// MetaTrigger is the action metadata key describing how the action is invoked
// (e.g. "click #save-btn").
const MetaTrigger = "trigger"

// Action is an edge label: an operation the user can trigger.
// The engines never create or destroy actions.
type Action struct {
	ID       string         `json:"id" yaml:"id" mapstructure:"id"`
	Labels   []string       `json:"labels" yaml:"labels" mapstructure:"labels"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// Trigger returns the metadata trigger description, or "unknown".
func (a *Action) Trigger() string {
	if t, ok := a.Metadata[MetaTrigger].(string); ok && t != "" {
		return t
	}
	return "unknown"
}

// Clone returns a copy that shares no slices or maps with a.
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}
	return &Action{
		ID:       a.ID,
		Labels:   cloneStrings(a.Labels),
		Metadata: cloneMap(a.Metadata),
	}
}
