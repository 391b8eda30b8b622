// Package schema describes and validates the arguments of a tool call.
//
// A Schema is an ordered list of fields, each with a Type, a required flag and
// a description. The same Schema validates incoming argument maps, decodes
// them into typed structs and projects to JSON Schema for transports that
// advertise tools to their clients.
//
// Basic usage:
//
//	s := schema.Schema{
//	    {Name: "start_state", Type: schema.String(), Required: true},
//	    {Name: "max_steps", Type: schema.Int(), Default: 10},
//	    {Name: "labels", Type: schema.Slice(schema.String())},
//	}
//
//	var args struct {
//	    StartState string   `mapstructure:"start_state"`
//	    MaxSteps   int      `mapstructure:"max_steps"`
//	    Labels     []string `mapstructure:"labels"`
//	}
//	if err := schema.Decode(s, data, &args); err != nil {
//	    // err is an *AggregateError listing every offending field
//	}
//
// Custom validators can be registered for domain-specific constraints:
//
//	positiveInt := schema.Custom("positive_int", schema.Int(), func(v any) error {
//	    if n, _ := v.(float64); n <= 0 {
//	        return fmt.Errorf("must be positive")
//	    }
//	    return nil
//	})
package schema
