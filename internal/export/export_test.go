package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

func product(name, qty, unit string) map[string]any {
	return map[string]any{"product_name": name, "quantity": qty, "unit": unit, "description": "Not specified"}
}

func sampleFiles() []FileResult {
	return []FileResult{
		{FileName: "a.pdf", Success: true, Data: map[string]any{
			"client_name": "Stadtwerke Süd", "contract_type": "Rahmenvertrag", "total_estimated_value": "Not specified",
			"products": []any{product("Stahlrohr; DN50", "100", "m"), product("Flansch \"PN16\"", "4", "Stk")},
		}},
		{FileName: "b.pdf", Success: true, Data: map[string]any{
			"client_name": "Bau AG", "contract_type": "Order", "products": []any{product("Ventil", "2", "")},
		}},
		{FileName: "c.pdf", Success: true, Data: map[string]any{"client_name": "Leer GmbH", "products": []any{}}},
		{FileName: "d.pdf", Error: "no readable text"},
	}
}

func TestProductsCSVRoundTrip(t *testing.T) {
	table := ProductsTable(sampleFiles())
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table, Semicolon))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))

	headers, rows, err := ReadCSV(bytes.NewReader(buf.Bytes()), Semicolon)
	require.NoError(t, err)
	assert.Equal(t, table.Headers, headers)
	assert.Equal(t, "File Name", headers[0])

	var productRows int
	for _, r := range rows {
		if r[1] == "success" && r[4] != NoProducts {
			productRows++
		}
	}
	assert.Equal(t, 3, productRows)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"a.pdf", "success", "Stadtwerke Süd", "Rahmenvertrag", "Stahlrohr; DN50", "100", "m", "Not specified", "Not specified", ""}, rows[0])
	assert.Equal(t, "Flansch \"PN16\"", rows[1][4])
	assert.Equal(t, NoProducts, rows[3][4])
	assert.Equal(t, []string{"d.pdf", "failed", "", "", "", "", "", "", "", "no readable text"}, rows[4])
}

func TestInvoiceCSVUsesComma(t *testing.T) {
	files := []FileResult{{FileName: "r.pdf", Success: true, Data: map[string]any{
		"invoice_number": "4711", "currency": "EUR", "total_amount": 1190.5, "tax_rate_percent": 19.0,
		"products": []any{map[string]any{"product_name": "Pumpe", "quantity": 2.0, "unit_price": 500.0, "currency": "Not specified", "tax_rate_percent": nil}},
	}}}
	table := InvoiceTable(files)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table, Comma))

	headers, rows, err := ReadCSV(&buf, Comma)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	col := func(name string) string {
		for i, h := range headers {
			if h == name {
				return rows[0][i]
			}
		}
		t.Fatalf("no column %s", name)
		return ""
	}
	assert.Equal(t, "4711", col("invoice_number"))
	assert.Equal(t, "1190.5", col("total_amount"))
	assert.Equal(t, "EUR", col("item_currency"))
	assert.Equal(t, "19", col("item_tax_rate_percent"))
	assert.Equal(t, "2", col("quantity"))
}

func TestReadCSVWithoutBOM(t *testing.T) {
	headers, rows, err := ReadCSV(strings.NewReader("a;b\n1;ä\n"), Semicolon)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, headers)
	assert.Equal(t, [][]string{{"1", "ä"}}, rows)
}

func TestConsolidatedTablePads(t *testing.T) {
	rows := []validate.ConsolidatedRow{
		{Product: "Rohr", Entries: []validate.ClientEntry{{Client: "A"}, {Client: "B"}, {Client: "C"}}},
		{Product: "Ventil", Entries: []validate.ClientEntry{{Client: "A"}, {Client: "B"}}},
	}
	table := ConsolidatedTable(rows)
	assert.Len(t, table.Headers, 13)
	assert.Equal(t, "Type 3", table.Headers[12])
	for _, r := range table.Rows {
		assert.Len(t, r, 13)
	}
}

func f64(v float64) *float64 { return &v }

func TestWriteTablesFillsStatusRows(t *testing.T) {
	table := ComparisonTable([]validate.Row{
		{Parameter: "Dicke", Unit: "mm", SpecMin: f64(10), SpecMax: f64(12), Measured: f64(11), Status: constants.StatusOK},
		{Parameter: "Breite", Unit: "mm", SpecMax: f64(5), Measured: f64(6), Status: constants.StatusOut, Deviation: "too wide"},
		{Parameter: "Länge", Status: constants.StatusMissing},
		{Parameter: "Härte", Measured: f64(180), Status: constants.StatusNoSpec},
	})
	b, err := WriteTables(table, FieldTable("Tender", []string{"Auftraggeber"}, map[string]any{"Auftraggeber": "Stadt"}))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Comparison", "Tender"}, f.GetSheetList())
	v, err := f.GetCellValue("Comparison", "H3")
	require.NoError(t, err)
	assert.Equal(t, "OUT", v)

	style := func(cell string) int {
		id, err := f.GetCellStyle("Comparison", cell)
		require.NoError(t, err)
		return id
	}
	ok, out, missing := style("A2"), style("A3"), style("A4")
	assert.Equal(t, ok, style("I2"))
	assert.Equal(t, out, style("I3"))
	assert.NotEqual(t, ok, out)
	assert.NotEqual(t, out, missing)
	assert.NotEqual(t, ok, missing)
	for _, id := range []int{ok, out, missing} {
		assert.NotEqual(t, style("A5"), id)
	}
	st, err := f.GetStyle(style("A1"))
	require.NoError(t, err)
	require.NotNil(t, st.Font)
	assert.True(t, st.Font.Bold)

	v, err = f.GetCellValue("Tender", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Stadt", v)
}

func buildTemplate(t *testing.T, cells map[string]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Tenderliste"))
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue("Tenderliste", cell, v))
	}
	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "Other:"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseAndFillTemplate(t *testing.T) {
	data := buildTemplate(t, map[string]string{
		"A1": "Interne Tenderliste",
		"A2": "Auftraggeber:",
		"A3": " Abgabefrist : ",
		"B3": "alt",
		"A4": "Land:",
		"B4": "Region:",
		"A5": ":",
	})

	tpl, err := ParseTemplate(data)
	require.NoError(t, err)
	assert.Equal(t, "Tenderliste", tpl.Sheet)
	assert.Equal(t, []string{"Auftraggeber", "Abgabefrist", "Region"}, tpl.Keys())
	assert.Equal(t, "B2", tpl.Fields[0].Cell)
	assert.Equal(t, "B3", tpl.Fields[1].Cell)
	assert.Equal(t, "C4", tpl.Fields[2].Cell)

	out, err := FillTemplate(tpl, map[string]any{"Auftraggeber": "Stadt Köln", "Abgabefrist": "01.03.2026"})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	v, _ := f.GetCellValue("Tenderliste", "B2")
	assert.Equal(t, "Stadt Köln", v)
	v, _ = f.GetCellValue("Tenderliste", "B3")
	assert.Equal(t, "01.03.2026", v)
	v, _ = f.GetCellValue("Tenderliste", "C4")
	assert.Equal(t, "", v)
}

func TestParseTemplateWithoutLabels(t *testing.T) {
	_, err := ParseTemplate(buildTemplate(t, map[string]string{"A1": "Nur Text"}))
	require.Error(t, err)
	assert.Equal(t, common.CodeTemplateInvalid, common.CodeOf(err))

	_, err = ParseTemplate([]byte("not a workbook"))
	var appErr *common.AppError
	assert.True(t, errors.As(err, &appErr))
}

func TestServiceWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewService(dir, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC) }

	path, err := s.JSON("bulk_analysis_results", []map[string]any{{"file_name": "a.pdf"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bulk_analysis_results_20260301_140509.json"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var back []map[string]any
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "a.pdf", back[0]["file_name"])

	assert.Equal(t, "Product_Request_20260301_140509.csv", s.Stamped("Product_Request", ".csv"))
	path, err = s.CSV("p.csv", ProductsTable(sampleFiles()), Semicolon)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestReviewTables(t *testing.T) {
	data := map[string]any{
		"summary":         map[string]any{"contract_type": "Kooperation", "parties": []any{"A", "B"}},
		"deviations":      []any{map[string]any{"title": "Haftung", "severity": "High"}},
		"risks":           []any{},
		"key_clauses":     []any{},
		"recommendations": []any{map[string]any{"action": "Nachverhandeln", "priority": "High"}},
	}
	tables := ReviewTables(data)
	require.Len(t, tables, 5)
	assert.Equal(t, []string{"Parties", "A; B"}, tables[0].Rows[1])
	assert.Equal(t, "Haftung", tables[1].Rows[0][0])

	flat := ReviewTable(data)
	require.Len(t, flat.Rows, 2)
	assert.Equal(t, "Recommendation", flat.Rows[1][0])
}
