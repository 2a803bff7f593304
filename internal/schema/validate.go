package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var compiled sync.Map // *Schema -> *jsonschema.Schema

// JSONSchema renders s as a JSON Schema document. Every field is required;
// extra keys are allowed.
func JSONSchema(s *Schema) map[string]any {
	props := make(map[string]any, len(s.Fields)+1)
	for _, f := range s.Fields {
		props[f.Key] = fieldSchema(f)
	}
	props[ErrorKey] = map[string]any{"type": "string"}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   s.Keys(),
	}
}

func fieldSchema(f Field) map[string]any {
	switch f.Kind {
	case Number:
		if _, ok := f.Default.(string); ok {
			return map[string]any{"type": []any{"number", "string"}}
		}
		return map[string]any{"type": []any{"number", "null"}}
	case StringList:
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case NumberList:
		return map[string]any{"type": "array", "items": map[string]any{"type": "number"}}
	case Object:
		return JSONSchema(f.Entry)
	case ObjectList:
		return map[string]any{"type": "array", "items": JSONSchema(f.Entry)}
	}
	return map[string]any{"type": "string"}
}

// Validate checks obj (normally the output of Normalize) against s.
func Validate(s *Schema, obj map[string]any) error {
	sch, err := compile(s)
	if err != nil {
		return err
	}
	// round-trip so typed values (e.g. []string) validate as plain JSON
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.Name, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", s.Name, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%s does not match schema: %w", s.Name, err)
	}
	return nil
}

func compile(s *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(s); ok {
		return v.(*jsonschema.Schema), nil
	}
	b, err := json.Marshal(JSONSchema(s))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := s.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compiled.Store(s, sch)
	return sch, nil
}
