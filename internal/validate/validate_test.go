package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintel/constants"
)

func f(v float64) *float64 { return &v }

func TestValidateGroups(t *testing.T) {
	products := []Product{
		{Name: "Stahlrohr DN50", Quantity: "100", Unit: "m", Client: "Stadtwerke Nord", ContractType: "Rahmenvertrag"},
		{Name: "Steel pipe 50mm", Quantity: "20", Unit: "m", Client: "Bau AG", ContractType: "Order"},
		{Name: "Ventil", Quantity: "3", Client: "Stadtwerke Nord"},
		{Name: "Valve", Quantity: "4", Client: "stadtwerke  nord"},
	}
	groups := []Group{
		{CanonicalName: "Steel pipe DN50", ProductIDs: []int{0, 1, 1, 99}},
		{CanonicalName: "Valve", ProductIDs: []int{2, 3}},
		{CanonicalName: "Ghost", ProductIDs: []int{-1, 42}},
	}

	got := ValidateGroups(groups, products)
	require.Len(t, got, 1)
	assert.Equal(t, "Steel pipe DN50", got[0].CanonicalName)
	assert.Equal(t, []int{0, 1}, got[0].ProductIDs)
	assert.Equal(t, []string{"Stadtwerke Nord", "Bau AG"}, got[0].Clients)

	rows := ConsolidatedRows(got, products)
	require.Len(t, rows, 1)
	headers, values := rows[0].Columns()
	assert.Equal(t, []string{"Product", "Client 1", "Original Name 1", "Quantity 1", "Type 1",
		"Client 2", "Original Name 2", "Quantity 2", "Type 2"}, headers)
	assert.Equal(t, []string{"Steel pipe DN50", "Stadtwerke Nord", "Stahlrohr DN50", "100 m", "Rahmenvertrag",
		"Bau AG", "Steel pipe 50mm", "20 m", "Order"}, values)
}

func TestMergeFields(t *testing.T) {
	got := MergeFields(constants.NichtAngegeben, nil,
		Source{Name: "a.pdf", Fields: map[string]any{"A": "X", "B": "Nicht angegeben"}},
		Source{Name: "b.pdf", Fields: map[string]any{"A": "Y", "B": "Z"}},
	)
	assert.Equal(t, map[string]any{"A": "X", "B": "Z"}, got)
}

func TestMergeFieldsNarrativeAndGaps(t *testing.T) {
	got := MergeFields(constants.NotSpecified, map[string]bool{"summary": true, "notes": true},
		Source{Name: "a.pdf", Fields: map[string]any{"summary": "Part one", "items": []any{}, "c": nil}},
		Source{Name: "b.pdf", Fields: map[string]any{"summary": "Part two", "items": []any{"x"}, "c": "Unknown"}},
		Source{Name: "c.pdf", Fields: map[string]any{"summary": "Not specified", "c": "found"}},
	)
	assert.Equal(t, "[a.pdf] Part one\n\n[b.pdf] Part two", got["summary"])
	assert.Equal(t, []any{"x"}, got["items"])
	assert.Equal(t, "found", got["c"])
	assert.Equal(t, constants.NotSpecified, got["notes"])
}

func TestDeriveStatus(t *testing.T) {
	bounds := &Spec{Parameter: "Dicke", Unit: "mm", Min: f(10), Max: f(12)}

	status, dev := DeriveStatus(bounds, f(11))
	assert.Equal(t, constants.StatusOK, status)
	assert.Empty(t, dev)

	status, dev = DeriveStatus(bounds, f(13))
	assert.Equal(t, constants.StatusOut, status)
	assert.Equal(t, "measured 13 mm exceeds the upper limit 12 mm by 1 mm", dev)

	status, dev = DeriveStatus(bounds, f(9.5))
	assert.Equal(t, constants.StatusOut, status)
	assert.Contains(t, dev, "below the lower limit 10 mm by 0.5 mm")

	status, _ = DeriveStatus(bounds, nil)
	assert.Equal(t, constants.StatusMissing, status)

	status, _ = DeriveStatus(nil, f(3))
	assert.Equal(t, constants.StatusNoSpec, status)

	status, _ = DeriveStatus(&Spec{Parameter: "Farbe"}, f(3))
	assert.Equal(t, constants.StatusNoBounds, status)
}

func TestDeriveStatusTolerance(t *testing.T) {
	abs := &Spec{Nominal: f(100), Tolerance: f(2)}
	pct := &Spec{Nominal: f(200), TolerancePercent: f(5)}
	onlyMax := &Spec{Max: f(0.5)}

	tests := []struct {
		spec *Spec
		v    float64
		want constants.ComparisonStatus
	}{
		{abs, 98, constants.StatusOK},
		{abs, 102, constants.StatusOK},
		{abs, 102.1, constants.StatusOut},
		{pct, 210, constants.StatusOK},
		{pct, 189, constants.StatusOut},
		{onlyMax, -4, constants.StatusOK},
		{onlyMax, 0.6, constants.StatusOut},
	}
	for _, tt := range tests {
		got, _ := DeriveStatus(tt.spec, f(tt.v))
		assert.Equal(t, tt.want, got, "%v", tt.v)
	}
}

func TestMatchers(t *testing.T) {
	assert.True(t, ExactMatcher{}.Match("Zugfestigkeit", "MPa", " zugfestigkeit ", "mpa"))
	assert.False(t, ExactMatcher{}.Match("Zugfestigkeit", "MPa", "Zugfestigkeit", "N/mm²"))
	assert.False(t, ExactMatcher{}.Match("Wall-thickness", "mm", "Wall thickness", "mm"))

	assert.True(t, NormalizedMatcher{}.Match("Zugfestigkeit", "MPa", "Zugfestigkeit", "N/mm²"))
	assert.True(t, NormalizedMatcher{}.Match("Wall-thickness", "mm", "wall thickness", "mm"))
	assert.True(t, NormalizedMatcher{}.Match("Temperatur", "°C", "Temperatür", "degC"))
	assert.False(t, NormalizedMatcher{}.Match("Dicke", "mm", "Dicke", "cm"))
}

func TestCompare(t *testing.T) {
	specs := []Spec{
		{Parameter: "Dicke", Unit: "mm", Min: f(10), Max: f(12)},
		{Parameter: "Breite", Unit: "mm", Nominal: f(50), Tolerance: f(1)},
	}
	meas := []Measurement{
		{Parameter: "dicke", Unit: "mm", Value: f(13), Source: "cert.pdf"},
		{Parameter: "Härte", Unit: "HB", Value: f(180), Source: "cert.pdf"},
		{Parameter: "Länge", Unit: "m"},
	}

	rows := Compare(specs, meas, ExactMatcher{})
	require.Len(t, rows, 3)
	assert.Equal(t, constants.StatusOut, rows[0].Status)
	assert.NotEmpty(t, rows[0].Deviation)
	assert.Equal(t, "cert.pdf", rows[0].MeasuredFrom)
	assert.Equal(t, constants.StatusMissing, rows[1].Status)
	assert.Equal(t, "Breite", rows[1].Parameter)
	assert.Equal(t, constants.StatusNoSpec, rows[2].Status)
	assert.Equal(t, "Härte", rows[2].Parameter)

	counts := Counts(rows)
	assert.Equal(t, 1, counts[constants.StatusOut])
	assert.Equal(t, 1, counts[constants.StatusMissing])
	assert.Equal(t, 1, counts[constants.StatusNoSpec])
}
