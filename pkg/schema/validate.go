package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Field describes one named argument.
type Field struct {
	Name        string
	Type        Type
	Required    bool
	Description string
	// Default is applied by Decode when the field is absent.
	Default any
}

// Schema is an ordered list of fields.
type Schema []Field

// Field returns the field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// JSONSchema projects the schema to a JSON Schema object definition.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s))
	required := make([]string, 0, len(s))
	for _, f := range s {
		p := f.Type.JSONSchema()
		if f.Description != "" {
			p["description"] = f.Description
		}
		if f.Default != nil {
			p["default"] = f.Default
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Validate checks data against the schema, in field order.
// Required fields must be present and non-nil; optional fields are validated
// only when present. Keys not declared in the schema are ignored.
func Validate(schema Schema, data map[string]any) error {
	var errs []error

	for _, f := range schema {
		value, exists := data[f.Name]
		if !exists || value == nil {
			if f.Required {
				errs = append(errs, &ValidationError{Key: f.Name, Reason: "required"})
			}
			continue
		}

		if err := f.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    f.Name,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Decode validates data and decodes it into out, a pointer to a struct whose
// fields carry `mapstructure` tags. Defaults fill absent optional fields.
func Decode(schema Schema, data map[string]any, out any) error {
	if err := Validate(schema, data); err != nil {
		return err
	}

	input := make(map[string]any, len(schema))
	for _, f := range schema {
		if v, ok := data[f.Name]; ok && v != nil {
			input[f.Name] = v
		} else if f.Default != nil {
			input[f.Name] = f.Default
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("schema: build decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("schema: decode arguments: %w", err)
	}
	return nil
}
