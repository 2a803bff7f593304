package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Normalize returns a copy of obj in which every field of s is present:
// missing or null values get the sentinel (or the field Default), aliases are
// moved to the canonical key, scalars in list fields are wrapped, every list
// entry is defaulted against the entry schema and numeric fields hold a
// float64, their Default, or nil. Keys not in s are kept unchanged.
func Normalize(obj map[string]any, s *Schema) map[string]any {
	out := make(map[string]any, len(obj)+len(s.Fields))
	for k, v := range obj {
		out[k] = v
	}
	for _, f := range s.Fields {
		v, ok := lookup(obj, f)
		for _, a := range f.Aliases {
			delete(out, a)
		}
		if !ok {
			out[f.Key] = s.missing(f)
			continue
		}
		out[f.Key] = s.coerce(f, v)
	}
	return out
}

// lookup returns the first usable value of the key or one of its aliases.
func lookup(obj map[string]any, f Field) (any, bool) {
	for _, k := range append([]string{f.Key}, f.Aliases...) {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (s *Schema) coerce(f Field, v any) any {
	switch f.Kind {
	case String:
		if str := Stringify(v); str != "" {
			return str
		}
		return s.missing(f)
	case Number:
		if n, ok := ToNumber(v); ok {
			return n
		}
		return s.missing(f)
	case StringList:
		var out []any
		for _, item := range asList(v) {
			if str := Stringify(item); str != "" {
				out = append(out, str)
			}
		}
		return nonNil(out)
	case NumberList:
		var out []any
		for _, item := range asList(v) {
			if n, ok := ToNumber(item); ok {
				out = append(out, n)
			}
		}
		return nonNil(out)
	case Object:
		if m, ok := v.(map[string]any); ok {
			return Normalize(m, f.Entry)
		}
		return Normalize(scalarEntry(v, f.Entry), f.Entry)
	case ObjectList:
		var out []any
		for _, item := range asList(v) {
			m, ok := item.(map[string]any)
			if !ok {
				m = scalarEntry(item, f.Entry)
				if m == nil {
					continue
				}
			}
			out = append(out, Normalize(m, f.Entry))
		}
		return nonNil(out)
	}
	return v
}

// asList wraps a bare value in a one-element list.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

// scalarEntry turns a bare string list item into an entry keyed by the first
// field of the entry schema.
func scalarEntry(v any, entry *Schema) map[string]any {
	str := Stringify(v)
	if str == "" || entry == nil || len(entry.Fields) == 0 {
		return nil
	}
	return map[string]any{entry.Fields[0].Key: str}
}

func nonNil(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

// Stringify renders a decoded JSON value as trimmed text.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := Stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
