package ocr

import (
	"strconv"
	"strings"
)

// meanTSVConfidence averages the word confidences of tesseract TSV output,
// scaled to 0..1. Rows with conf -1 are layout rows and are skipped.
func meanTSVConfidence(tsv string) float64 {
	lines := strings.Split(tsv, "\n")
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue
		} // skip header
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n / 100.0
}
