package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/schema"
)

// TemplateField is one labeled cell of a form template. Cell is the value
// cell right of the label.
type TemplateField struct {
	Label string
	Key   string
	Cell  string
}

// Template is a parsed form-style workbook.
type Template struct {
	Sheet  string
	Fields []TemplateField
	data   []byte
}

// Keys lists the field keys in sheet order.
func (t *Template) Keys() []string {
	keys := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		keys[i] = f.Key
	}
	return keys
}

// ParseTemplate reads the first worksheet and collects every cell whose text
// ends with a colon and whose right neighbour is not itself a label.
func ParseTemplate(data []byte) (*Template, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError(common.CodeTemplateInvalid, "cannot open template", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.NewAppError(common.CodeTemplateInvalid, "template has no worksheet", common.ErrValidation)
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, common.NewAppError(common.CodeTemplateInvalid, "cannot read worksheet "+sheet, err)
	}

	t := &Template{Sheet: sheet, data: data}
	seen := map[string]bool{}
	for r, cols := range rows {
		for c, raw := range cols {
			label, ok := labelOf(raw)
			if !ok || seen[label] {
				continue
			}
			if c+1 < len(cols) {
				if _, isLabel := labelOf(cols[c+1]); isLabel {
					continue
				}
			}
			cell, err := excelize.CoordinatesToCellName(c+2, r+1)
			if err != nil {
				continue
			}
			seen[label] = true
			t.Fields = append(t.Fields, TemplateField{Label: strings.TrimSpace(raw), Key: label, Cell: cell})
		}
	}
	if len(t.Fields) == 0 {
		return nil, common.NewAppError(common.CodeTemplateInvalid,
			fmt.Sprintf("no labeled cells (text ending with ':') on sheet %q", sheet), common.ErrValidation)
	}
	return t, nil
}

func labelOf(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasSuffix(v, ":") {
		return "", false
	}
	label := strings.TrimSpace(strings.TrimSuffix(v, ":"))
	return label, label != ""
}

// FillTemplate writes values into the value cell of every field and returns
// the workbook bytes. Keys missing from values are left untouched.
func FillTemplate(t *Template, values map[string]any) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(t.data))
	if err != nil {
		return nil, common.NewAppError(common.CodeTemplateInvalid, "cannot open template", err)
	}
	defer func() { _ = f.Close() }()

	for _, field := range t.Fields {
		v, ok := values[field.Key]
		if !ok {
			continue
		}
		if err := f.SetCellValue(t.Sheet, field.Cell, schema.Stringify(v)); err != nil {
			return nil, fmt.Errorf("write %s: %w", field.Cell, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
