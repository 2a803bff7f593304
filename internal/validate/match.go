package validate

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/docintel/constants"
)

// Matcher decides whether a specification parameter and a measured parameter
// are the same quantity.
type Matcher interface {
	Match(specName, specUnit, measName, measUnit string) bool
}

// ExactMatcher compares case-folded, trimmed names and units.
type ExactMatcher struct{}

func (ExactMatcher) Match(specName, specUnit, measName, measUnit string) bool {
	return fold(specName) == fold(measName) && fold(specUnit) == fold(measUnit)
}

func fold(s string) string {
	return foldCase(strings.TrimSpace(s))
}

// NormalizedMatcher additionally ignores accents, punctuation and spacing in
// names and treats common unit spellings as equal.
type NormalizedMatcher struct{}

func (NormalizedMatcher) Match(specName, specUnit, measName, measUnit string) bool {
	return normName(specName) == normName(measName) && normUnit(specUnit) == normUnit(measUnit)
}

func normName(s string) string {
	// transformer chains keep state, build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	for _, r := range foldCase(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var unitAliases = map[string]string{
	"\u00b0c": "c", "degc": "c", "grad c": "c", "\u2103": "c",
	"n/mm\u00b2": "mpa", "n/mm2": "mpa",
	"mm\u00b2": "mm2", "qmm": "mm2",
	"\u03bcm": "um", "micron": "um",
	"%": "percent", "prozent": "percent",
	"kg/m\u00b3": "kg/m3",
	"\u03c9": "ohm",
}

func normUnit(s string) string {
	u := strings.Join(strings.Fields(fold(s)), " ")
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return strings.ReplaceAll(u, " ", "")
}

// Row is one line of a specification/certificate comparison.
type Row struct {
	Parameter    string
	Unit         string
	SpecMin      *float64
	SpecMax      *float64
	SpecNominal  *float64
	Measured     *float64
	MeasuredFrom string
	Status       constants.ComparisonStatus
	Deviation    string
}

// Compare matches every specification against every measurement. Each match
// yields a row, a specification without any match yields MISSING and a
// measurement that matched nothing yields NO_SPEC.
func Compare(specs []Spec, measurements []Measurement, m Matcher) []Row {
	if m == nil {
		m = ExactMatcher{}
	}
	used := make([]bool, len(measurements))
	var rows []Row
	for i := range specs {
		s := &specs[i]
		matched := false
		for j, meas := range measurements {
			if !m.Match(s.Parameter, s.Unit, meas.Parameter, meas.Unit) {
				continue
			}
			matched, used[j] = true, true
			rows = append(rows, specRow(s, meas.Value, meas.Source))
		}
		if !matched {
			rows = append(rows, specRow(s, nil, ""))
		}
	}
	for j, meas := range measurements {
		if used[j] || meas.Value == nil {
			continue
		}
		status, _ := DeriveStatus(nil, meas.Value)
		rows = append(rows, Row{
			Parameter:    meas.Parameter,
			Unit:         meas.Unit,
			Measured:     meas.Value,
			MeasuredFrom: meas.Source,
			Status:       status,
		})
	}
	return rows
}

func specRow(s *Spec, value *float64, from string) Row {
	status, dev := DeriveStatus(s, value)
	return Row{
		Parameter:    s.Parameter,
		Unit:         s.Unit,
		SpecMin:      s.Min,
		SpecMax:      s.Max,
		SpecNominal:  s.Nominal,
		Measured:     value,
		MeasuredFrom: from,
		Status:       status,
		Deviation:    dev,
	}
}

// Counts tallies rows by status.
func Counts(rows []Row) map[constants.ComparisonStatus]int {
	out := map[constants.ComparisonStatus]int{}
	for _, r := range rows {
		out[r.Status]++
	}
	return out
}
