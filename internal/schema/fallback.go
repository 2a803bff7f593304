package schema

// Fallback builds the complete object returned when a task fails: the error
// message under ErrorKey and every field at its fallback, default or
// sentinel value. Lists are empty.
func Fallback(s *Schema, msg string) map[string]any {
	out := fallbackEntry(s)
	out[ErrorKey] = msg
	return out
}

func fallbackEntry(s *Schema) map[string]any {
	out := make(map[string]any, len(s.Fields)+1)
	for _, f := range s.Fields {
		switch {
		case f.Fallback != nil:
			out[f.Key] = cloneValue(f.Fallback)
		case f.Kind == Object:
			out[f.Key] = fallbackEntry(f.Entry)
		default:
			out[f.Key] = s.missing(f)
		}
	}
	return out
}

// Failed reports whether obj carries a task error.
func Failed(obj map[string]any) (string, bool) {
	msg, ok := obj[ErrorKey].(string)
	return msg, ok && msg != ""
}
