package acquire

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxText reads word/document.xml in document order. Paragraphs end with a
// newline; a table row becomes one line of tab-separated cells.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("word/document.xml not found")
	}
	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	var (
		b         strings.Builder
		cell      strings.Builder
		cells     []string
		cur       = &b
		cellDepth int
		inText    bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			case "tc":
				cellDepth++
				if cellDepth == 1 {
					cell.Reset()
					cur = &cell
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				cur.WriteByte('\n')
			case "tc":
				cellDepth--
				if cellDepth == 0 {
					cells = append(cells, strings.Join(strings.Fields(cell.String()), " "))
					cur = &b
				}
			case "tr":
				if cellDepth == 0 {
					b.WriteString(strings.Join(cells, "\t"))
					b.WriteByte('\n')
					cells = nil
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return b.String(), nil
}
