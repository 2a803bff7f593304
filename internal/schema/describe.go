package schema

import (
	"strconv"
	"strings"
)

// Describe renders the schema as the JSON skeleton embedded in prompts. Keys
// keep their declaration order and nested entries are spelled out in full.
func Describe(s *Schema) string {
	var b strings.Builder
	describeObject(&b, s, 0)
	return b.String()
}

func describeObject(b *strings.Builder, s *Schema, depth int) {
	pad := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for i, f := range s.Fields {
		b.WriteString(pad)
		b.WriteString(strconv.Quote(f.Key))
		b.WriteString(": ")
		switch f.Kind {
		case Object:
			describeObject(b, f.Entry, depth+1)
		case ObjectList:
			b.WriteString("[\n")
			b.WriteString(pad + "  ")
			describeObject(b, f.Entry, depth+2)
			b.WriteString("\n" + pad + "]")
		case StringList:
			b.WriteString("[" + strconv.Quote(placeholder(s, f)) + "]")
		case NumberList:
			b.WriteString("[" + placeholder(s, f) + "]")
		case Number:
			b.WriteString(placeholder(s, f))
		default:
			b.WriteString(strconv.Quote(placeholder(s, f)))
		}
		if i < len(s.Fields)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("  ", depth) + "}")
}

func placeholder(s *Schema, f Field) string {
	if f.Description != "" {
		return f.Description
	}
	switch f.Kind {
	case Number:
		if d, ok := f.Default.(string); ok {
			return "number or " + d
		}
		return "number or null"
	case NumberList:
		return "number or null"
	}
	if s.Sentinel == "" {
		return "string"
	}
	return "string or " + s.Sentinel
}
