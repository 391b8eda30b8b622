package schema_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/stategraph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pathSchema = schema.Schema{
	{Name: "start_state", Type: schema.NonEmptyString(), Required: true, Description: "Current state"},
	{Name: "goal", Type: schema.String(), Required: true},
	{Name: "max_steps", Type: schema.Int(), Default: 10},
	{Name: "labels", Type: schema.Slice(schema.String())},
	{Name: "verbose", Type: schema.Bool()},
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		wantKeys []string
	}{
		{
			name: "all present",
			data: map[string]any{
				"start_state": "home", "goal": "save", "max_steps": float64(5),
				"labels": []any{"a", "b"}, "verbose": true,
			},
		},
		{
			name: "optional absent",
			data: map[string]any{"start_state": "home", "goal": "save"},
		},
		{
			name: "unknown keys ignored",
			data: map[string]any{"start_state": "home", "goal": "save", "extra": 1},
		},
		{
			name:     "missing required in field order",
			data:     map[string]any{},
			wantKeys: []string{"start_state", "goal"},
		},
		{
			name:     "nil counts as missing",
			data:     map[string]any{"start_state": "home", "goal": nil},
			wantKeys: []string{"goal"},
		},
		{
			name:     "custom check",
			data:     map[string]any{"start_state": "", "goal": "save"},
			wantKeys: []string{"start_state"},
		},
		{
			name:     "type mismatches",
			data:     map[string]any{"start_state": "home", "goal": 3, "max_steps": 2.5, "labels": []any{"a", 1}},
			wantKeys: []string{"goal", "max_steps", "labels"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(pathSchema, tt.data)
			if len(tt.wantKeys) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var keys []string
			for _, e := range schema.ValidationErrors(err) {
				var ve *schema.ValidationError
				require.True(t, errors.As(e, &ve))
				keys = append(keys, ve.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestValidationErrors_Wrapped(t *testing.T) {
	err := schema.Validate(pathSchema, map[string]any{"goal": "x"})
	wrapped := fmt.Errorf("find_path: %w", err)
	assert.Len(t, schema.ValidationErrors(wrapped), 1)
	assert.Nil(t, schema.ValidationErrors(errors.New("plain")))
}

func TestAggregateError_Message(t *testing.T) {
	err := schema.Validate(pathSchema, map[string]any{})
	assert.Contains(t, err.Error(), "2 validation errors")
	assert.Contains(t, err.Error(), `field "start_state": required`)

	err = schema.Validate(pathSchema, map[string]any{"start_state": "a", "goal": true})
	assert.Equal(t, `field "goal": expected string, got bool (got bool)`, err.Error())
}

func TestDecode(t *testing.T) {
	var args struct {
		StartState string   `mapstructure:"start_state"`
		Goal       string   `mapstructure:"goal"`
		MaxSteps   int      `mapstructure:"max_steps"`
		Labels     []string `mapstructure:"labels"`
		Verbose    bool     `mapstructure:"verbose"`
	}

	err := schema.Decode(pathSchema, map[string]any{
		"start_state": "home",
		"goal":        "save",
		"labels":      []any{"One", "Two"},
	}, &args)
	require.NoError(t, err)
	assert.Equal(t, "home", args.StartState)
	assert.Equal(t, "save", args.Goal)
	assert.Equal(t, 10, args.MaxSteps, "default applied")
	assert.Equal(t, []string{"One", "Two"}, args.Labels)
	assert.False(t, args.Verbose)

	err = schema.Decode(pathSchema, map[string]any{"start_state": "home", "goal": "save", "max_steps": float64(3)}, &args)
	require.NoError(t, err)
	assert.Equal(t, 3, args.MaxSteps)

	err = schema.Decode(pathSchema, map[string]any{"goal": "save"}, &args)
	assert.Len(t, schema.ValidationErrors(err), 1)
}

func TestSchema_JSONSchema(t *testing.T) {
	js := pathSchema.JSONSchema()

	assert.Equal(t, "object", js["type"])
	assert.Equal(t, []string{"start_state", "goal"}, js["required"])

	props := js["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string", "description": "Current state"}, props["start_state"])
	assert.Equal(t, map[string]any{"type": "integer", "default": 10}, props["max_steps"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["labels"])
	assert.Equal(t, map[string]any{"type": "boolean"}, props["verbose"])
}

func TestSchema_Field(t *testing.T) {
	f, ok := pathSchema.Field("max_steps")
	require.True(t, ok)
	assert.Equal(t, "int", f.Type.Name())

	_, ok = pathSchema.Field("nope")
	assert.False(t, ok)
}
