// Package schema holds the task schemas and turns partial, loosely typed
// model output into objects that always carry every documented key.
package schema

// Kind is the shape of a field value after normalization.
type Kind int

const (
	String     Kind = iota // string, sentinel when unknown
	Number                 // float64 or nil
	StringList             // []any of strings
	NumberList             // []any of float64
	Object                 // map[string]any normalized against Entry
	ObjectList             // []any of maps normalized against Entry
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case StringList:
		return "string list"
	case NumberList:
		return "number list"
	case Object:
		return "object"
	case ObjectList:
		return "object list"
	}
	return "unknown"
}

// Field describes one expected key.
type Field struct {
	Key         string
	Kind        Kind
	Description string   // shown to the model in Describe
	Default     any      // replaces the sentinel for missing values
	Fallback    any      // value used by Fallback, e.g. "Analysis failed"
	Aliases     []string // alternative keys the model is known to use
	Entry       *Schema  // shape of Object / ObjectList values
	Narrative   bool     // free text that is concatenated, not overwritten, on merge
}

// Schema is the exhaustive key set of one task result or nested entry.
type Schema struct {
	Name     string
	Sentinel string
	Fields   []Field
}

// ErrorKey carries the failure message in fallback objects.
const ErrorKey = "error"

// Keys lists the field keys in declaration order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Field looks a field up by key.
func (s *Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// NarrativeKeys returns the keys marked Narrative.
func (s *Schema) NarrativeKeys() map[string]bool {
	out := map[string]bool{}
	for _, f := range s.Fields {
		if f.Narrative {
			out[f.Key] = true
		}
	}
	return out
}

func (s *Schema) missing(f Field) any {
	if f.Default != nil {
		return cloneValue(f.Default)
	}
	switch f.Kind {
	case Number:
		return nil
	case StringList, NumberList, ObjectList:
		return []any{}
	case Object:
		return Normalize(map[string]any{}, f.Entry)
	}
	return s.Sentinel
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		return append([]any{}, t...)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = cloneValue(v)
		}
		return out
	}
	return v
}
