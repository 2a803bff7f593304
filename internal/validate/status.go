package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
)

const epsilon = 1e-9

// Spec is one specified parameter. Nil bounds are absent.
type Spec struct {
	Parameter        string
	Unit             string
	Min              *float64
	Max              *float64
	Nominal          *float64
	Tolerance        *float64 // absolute, applied to Nominal
	TolerancePercent *float64 // percent of Nominal
	Source           string
}

// Measurement is one measured value from a certificate.
type Measurement struct {
	Parameter string
	Unit      string
	Value     *float64
	Source    string
}

// Bounds returns the accepted interval. [Min, Max] wins when either is set,
// otherwise Nominal ± Tolerance, otherwise Nominal ± TolerancePercent.
func (s Spec) Bounds() (lo, hi float64, ok bool) {
	if s.Min != nil || s.Max != nil {
		lo, hi = math.Inf(-1), math.Inf(1)
		if s.Min != nil {
			lo = *s.Min
		}
		if s.Max != nil {
			hi = *s.Max
		}
		return lo, hi, true
	}
	if s.Nominal == nil {
		return 0, 0, false
	}
	var tol float64
	switch {
	case s.Tolerance != nil:
		tol = math.Abs(*s.Tolerance)
	case s.TolerancePercent != nil:
		tol = math.Abs(*s.Nominal * *s.TolerancePercent / 100)
	default:
		return 0, 0, false
	}
	return *s.Nominal - tol, *s.Nominal + tol, true
}

// DeriveStatus classifies a measurement against its specification. spec is
// nil when no specification entry exists for the parameter; the returned
// deviation is only set for StatusOut.
func DeriveStatus(spec *Spec, measured *float64) (constants.ComparisonStatus, string) {
	switch {
	case spec == nil:
		return constants.StatusNoSpec, ""
	case measured == nil:
		return constants.StatusMissing, ""
	}
	lo, hi, ok := spec.Bounds()
	if !ok {
		return constants.StatusNoBounds, ""
	}
	v := *measured
	unit := ""
	if u := strings.TrimSpace(spec.Unit); u != "" {
		unit = " " + u
	}
	switch {
	case v < lo-epsilon:
		return constants.StatusOut, fmt.Sprintf("measured %s%s is below the lower limit %s%s by %s%s",
			num(v), unit, num(lo), unit, num(lo-v), unit)
	case v > hi+epsilon:
		return constants.StatusOut, fmt.Sprintf("measured %s%s exceeds the upper limit %s%s by %s%s",
			num(v), unit, num(hi), unit, num(v-hi), unit)
	}
	return constants.StatusOK, ""
}

func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*1e6)/1e6, 'f', -1, 64)
}
