package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reBoxNoise    = regexp.MustCompile(`(?m)^[ \t|_\-=~]{3,}$`)
	reTrailingWS  = regexp.MustCompile(`[ \t]+\n`)
	reManyBlank   = regexp.MustCompile(`\n{3,}`)
	reInnerSpaces = regexp.MustCompile(`[ \t]{4,}`)
)

// Normalize puts extracted text in NFC form and removes layout noise while
// keeping form-feed page breaks.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reInnerSpaces.ReplaceAllString(s, "   ")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reManyBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
