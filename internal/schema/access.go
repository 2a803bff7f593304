package schema

// Str returns m[key] as text.
func Str(m map[string]any, key string) string {
	return Stringify(m[key])
}

// Num returns m[key] when it is a number.
func Num(m map[string]any, key string) (float64, bool) {
	if m[key] == nil {
		return 0, false
	}
	return ToNumber(m[key])
}

// Entries returns the object entries of a list field.
func Entries(m map[string]any, key string) []map[string]any {
	var out []map[string]any
	for _, item := range asList(m[key]) {
		if e, ok := item.(map[string]any); ok {
			out = append(out, e)
		}
	}
	return out
}

// Strings returns the string items of a list field.
func Strings(m map[string]any, key string) []string {
	var out []string
	for _, item := range asList(m[key]) {
		if s := Stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Sub returns a nested object field.
func Sub(m map[string]any, key string) map[string]any {
	if sub, ok := m[key].(map[string]any); ok {
		return sub
	}
	return map[string]any{}
}
