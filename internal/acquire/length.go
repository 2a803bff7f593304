package acquire

import (
	"unicode/utf8"

	"github.com/joseph-ayodele/docintel/constants"
)

// Length describes how a text relates to the truncation floor.
type Length struct {
	Chars               int
	IsShort             bool // below the floor, always sent in full
	RecommendedTruncate int  // min(3500, Chars) when not short, otherwise Chars
}

func LengthInfo(text string) Length {
	n := utf8.RuneCountInString(text)
	info := Length{Chars: n, IsShort: n < constants.TruncateFloor, RecommendedTruncate: n}
	if !info.IsShort {
		info.RecommendedTruncate = min(constants.RecommendedTruncate, n)
	}
	return info
}
