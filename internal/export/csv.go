package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Delimiters used by the CSV exports.
const (
	Semicolon = ';'
	Comma     = ','
)

const bom = "\ufeff"

// WriteCSV writes t as UTF-8 with a byte-order mark.
func WriteCSV(w io.Writer, t Table, delim rune) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// ReadCSV parses a file written by WriteCSV (or any UTF-8/UTF-16 CSV with or
// without a byte-order mark) into headers and rows.
func ReadCSV(r io.Reader, delim rune) ([]string, [][]string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.Comma = delim
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}
