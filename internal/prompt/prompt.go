// Package prompt assembles the task prompts sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docintel/internal/schema"
)

// OutputRule closes every prompt.
const OutputRule = "Return raw JSON only, no markdown fences, no commentary before or after the object."

// Section is one labeled document in a multi-document prompt.
type Section struct {
	Label string // defaults to "DOCUMENT"
	Name  string
	Text  string
	Limit int // per-document cap, 0 means no cap
}

// Builder collects the parts of a prompt. The zero value is usable; Build
// skips empty parts.
type Builder struct {
	Role         string
	Instructions []string
	Schema       *schema.Schema
	SourceLabel  string // heading above Text, defaults to "Document text"
	Text         string
	Sections     []Section
	Floor        int // documents shorter than Floor are never truncated
	Limit        int // cap applied to Text
}

// Build renders the prompt deterministically.
func (b Builder) Build() string {
	var parts []string
	if r := strings.TrimSpace(b.Role); r != "" {
		parts = append(parts, r)
	}
	for _, in := range b.Instructions {
		if in = strings.TrimSpace(in); in != "" {
			parts = append(parts, in)
		}
	}
	if b.Schema != nil {
		parts = append(parts,
			"Respond with a single JSON object with exactly these keys:\n"+schema.Describe(b.Schema),
			SentinelRule(b.Schema.Sentinel))
	}
	if len(b.Sections) > 0 {
		parts = append(parts, Sections(b.Sections, b.Floor))
	} else if strings.TrimSpace(b.Text) != "" {
		label := b.SourceLabel
		if label == "" {
			label = "Document text"
		}
		parts = append(parts, label+":\n"+Truncate(b.Text, b.Limit, b.Floor))
	}
	parts = append(parts, OutputRule)
	return strings.Join(parts, "\n\n")
}

// SentinelRule tells the model how to mark absent information.
func SentinelRule(sentinel string) string {
	return fmt.Sprintf("Every key must be present. If a value cannot be found in the text use %q for text fields, null for numeric fields and [] for lists. Never omit a key.", sentinel)
}

// Sections renders labeled documents, each capped at its own limit.
func Sections(docs []Section, floor int) string {
	var b strings.Builder
	for i, d := range docs {
		label := d.Label
		if label == "" {
			label = "DOCUMENT"
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== %s %d: %s ===\n", label, i+1, d.Name)
		b.WriteString(Truncate(d.Text, d.Limit, floor))
	}
	return b.String()
}

// Truncate caps text at limit runes. Text shorter than floor, or a limit of
// zero or less, leaves the text untouched; a limit below the floor is raised
// to it.
func Truncate(text string, limit, floor int) string {
	if limit <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) < floor {
		return text
	}
	if limit < floor {
		limit = floor
	}
	if limit >= len(r) {
		return text
	}
	return string(r[:limit])
}
