package schema

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var reNumberToken = regexp.MustCompile(`[-+\x{2212}]?\d(?:[\d.,'\x{00A0}\x{202F}]*\d)?`)

// ToNumber parses model output leniently: "1.234,5", "1,234.5", "12 mm",
// "±0.5" and "≤ 3,2" all yield numbers. Text without digits fails.
func ToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return parseNumber(t)
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	tok := reNumberToken.FindString(s)
	if tok == "" {
		return 0, false
	}
	tok = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '\u00a0', '\u202f':
			return -1
		case '\u2212':
			return '-'
		}
		return r
	}, tok)
	tok = strings.TrimPrefix(tok, "+")

	dots, commas := strings.Count(tok, "."), strings.Count(tok, ",")
	switch {
	case dots > 0 && commas > 0:
		// the right-most separator is the decimal one
		if strings.LastIndex(tok, ",") > strings.LastIndex(tok, ".") {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		} else {
			tok = strings.ReplaceAll(tok, ",", "")
		}
	case commas > 1:
		tok = strings.ReplaceAll(tok, ",", "")
	case commas == 1:
		tok = strings.Replace(tok, ",", ".", 1)
	case dots > 1:
		tok = strings.ReplaceAll(tok, ".", "")
	}
	f, err := strconv.ParseFloat(tok, 64)
	return f, err == nil
}
