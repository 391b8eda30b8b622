package schema

import (
	"fmt"
	"reflect"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
	// JSONSchema returns the JSON Schema fragment describing the type.
	JSONSchema() map[string]any
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (t *StringType) JSONSchema() map[string]any { return map[string]any{"type": "string"} }

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

func (t *IntType) JSONSchema() map[string]any { return map[string]any{"type": "integer"} }

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t *BoolType) JSONSchema() map[string]any { return map[string]any{"type": "boolean"} }

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}

	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func (t *SliceType) JSONSchema() map[string]any {
	return map[string]any{"type": "array", "items": t.elemType.JSONSchema()}
}

// Elem returns the element type.
func (t *SliceType) Elem() Type { return t.elemType }

// CustomType applies a user-defined check on top of a base type.
type CustomType struct {
	name     string
	base     Type
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	if err := t.base.Validate(value); err != nil {
		return err
	}
	return t.validate(value)
}

func (t *CustomType) JSONSchema() map[string]any { return t.base.JSONSchema() }

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a validator that checks base first, then validate.
func Custom(name string, base Type, validate func(any) error) Type {
	return &CustomType{name: name, base: base, validate: validate}
}

// NonEmptyString is a string that must contain at least one character.
func NonEmptyString() Type {
	return Custom("non_empty_string", String(), func(v any) error {
		if v.(string) == "" {
			return fmt.Errorf("must not be empty")
		}
		return nil
	})
}
