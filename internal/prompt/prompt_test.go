package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/docintel/internal/schema"
)

func TestTruncate(t *testing.T) {
	long := strings.Repeat("ä", 5000)
	tests := []struct {
		name         string
		text         string
		limit, floor int
		want         int
	}{
		{"below floor sent in full", strings.Repeat("x", 2000), 100, 3000, 2000},
		{"capped", long, 3500, 3000, 3500},
		{"limit raised to floor", long, 1000, 3000, 3000},
		{"limit beyond length", long, 9000, 3000, 5000},
		{"no limit", long, 0, 3000, 5000},
		{"no floor", long, 10, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.text, tt.limit, tt.floor)
			assert.Equal(t, tt.want, len([]rune(got)))
			assert.True(t, strings.HasPrefix(tt.text, got))
		})
	}
}

func TestBuildOrder(t *testing.T) {
	s := &schema.Schema{Name: "x", Sentinel: "Nicht angegeben", Fields: []schema.Field{{Key: "Auftraggeber", Kind: schema.String}}}
	out := Builder{
		Role:         "You are a tender analyst.",
		Instructions: []string{"Extract the fields.", "  "},
		Schema:       s,
		Text:         "Ausschreibung Stadtwerke",
	}.Build()

	role := strings.Index(out, "You are a tender analyst.")
	key := strings.Index(out, `"Auftraggeber"`)
	rule := strings.Index(out, `"Nicht angegeben"`)
	text := strings.Index(out, "Document text:\nAusschreibung Stadtwerke")
	assert.True(t, role < key && key < rule && rule < text, out)
	assert.True(t, strings.HasSuffix(out, OutputRule))
	assert.NotContains(t, out, "\n\n\n\n")
}

func TestBuildIsDeterministic(t *testing.T) {
	b := Builder{Role: "r", Text: "t", Limit: 1}
	assert.Equal(t, b.Build(), b.Build())
}

func TestSections(t *testing.T) {
	out := Builder{Sections: []Section{
		{Name: "spec.pdf", Text: strings.Repeat("s", 50), Limit: 10},
		{Label: "SUPPLIER DOCUMENT", Name: "cert.pdf", Text: "measured"},
	}}.Build()

	assert.Contains(t, out, "=== DOCUMENT 1: spec.pdf ===\n"+strings.Repeat("s", 10)+"\n\n")
	assert.Contains(t, out, "=== SUPPLIER DOCUMENT 2: cert.pdf ===\nmeasured")
	assert.NotContains(t, out, "Document text:")
}
