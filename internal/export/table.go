// Package export turns normalized task results into CSV, XLSX and JSON files.
package export

import (
	"strings"

	"github.com/joseph-ayodele/docintel/internal/schema"
	"github.com/joseph-ayodele/docintel/internal/validate"
)

// Table is one sheet or CSV file. StatusColumn is the index of the column
// that drives row fills in XLSX output, or -1.
type Table struct {
	Sheet        string
	Headers      []string
	Rows         [][]string
	StatusColumn int
}

// FileResult is one document of a batch as seen by the exporters.
type FileResult struct {
	FileName string
	Success  bool
	Data     map[string]any
	Error    string
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}

// NoProducts marks successful documents without product entries.
const NoProducts = "No products detected"

// ProductsTable has one row per extracted product.
func ProductsTable(files []FileResult) Table {
	t := Table{
		Sheet: "Products",
		Headers: []string{"File Name", "Status", "Client Name", "Contract Type", "Product/Service Name",
			"Quantity", "Unit", "Description", "Estimated Value", "Error"},
		StatusColumn: -1,
	}
	for _, f := range files {
		if !f.Success {
			t.Rows = append(t.Rows, []string{f.FileName, status(false), "", "", "", "", "", "", "", f.Error})
			continue
		}
		base := []string{f.FileName, status(true), schema.Str(f.Data, "client_name"), schema.Str(f.Data, "contract_type")}
		value := schema.Str(f.Data, "total_estimated_value")
		products := schema.Entries(f.Data, "products")
		if len(products) == 0 {
			t.Rows = append(t.Rows, row(base, NoProducts, "", "", "", value, f.Error))
			continue
		}
		for _, p := range products {
			t.Rows = append(t.Rows, row(base,
				schema.Str(p, "product_name"), schema.Str(p, "quantity"), schema.Str(p, "unit"),
				schema.Str(p, "description"), value, f.Error))
		}
	}
	return t
}

// AnalysisTable is the detailed contract analysis, one row per product or service.
func AnalysisTable(files []FileResult) Table {
	t := Table{
		Sheet: "Analysis",
		Headers: []string{"File Name", "Status", "Client Name", "Contract Type", "Start Date", "End Date",
			"Summary", "Product/Service Name", "Description", "Quantity", "Unit", "Rate", "Error"},
		StatusColumn: -1,
	}
	for _, f := range files {
		if !f.Success {
			t.Rows = append(t.Rows, row([]string{f.FileName, status(false)}, "", "", "", "", "", "", "", "", "", "", f.Error))
			continue
		}
		base := []string{f.FileName, status(true),
			schema.Str(f.Data, "client_name"), schema.Str(f.Data, "contract_type"),
			schema.Str(f.Data, "start_date"), schema.Str(f.Data, "end_date"), schema.Str(f.Data, "summary")}
		items := schema.Entries(f.Data, "products_services")
		if len(items) == 0 {
			t.Rows = append(t.Rows, row(base, "", "", "", "", "", ""))
			continue
		}
		for _, p := range items {
			t.Rows = append(t.Rows, row(base,
				schema.Str(p, "name"), schema.Str(p, "description"), schema.Str(p, "quantity"),
				schema.Str(p, "unit"), schema.Str(p, "rate"), ""))
		}
	}
	return t
}

var invoiceHeader = []string{"invoice_number", "invoice_date", "due_date", "currency", "total_amount",
	"subtotal", "tax_amount", "tax_rate_percent", "payment_terms", "po_number", "supplier_name",
	"supplier_address", "customer_name", "customer_address", "ship_to", "tax_id", "contract_type"}

var invoiceLine = []string{"product_name", "description", "quantity", "unit", "unit_price",
	"line_total", "item_currency", "item_tax_rate_percent", "sku_or_part_number"}

// InvoiceTable has one row per invoice line with the header fields repeated.
func InvoiceTable(files []FileResult) Table {
	t := Table{
		Sheet:        "Invoices",
		Headers:      append(append([]string{"file_name"}, invoiceHeader...), append(invoiceLine, "error")...),
		StatusColumn: -1,
	}
	for _, f := range files {
		head := []string{f.FileName}
		for _, k := range invoiceHeader {
			if f.Success {
				head = append(head, schema.Str(f.Data, k))
			} else {
				head = append(head, "")
			}
		}
		lines := schema.Entries(f.Data, "products")
		if !f.Success || len(lines) == 0 {
			first := ""
			if f.Success {
				first = NoProducts
			}
			t.Rows = append(t.Rows, row(head, first, "", "", "", "", "", "", "", "", f.Error))
			continue
		}
		for _, p := range lines {
			currency := schema.Str(p, "currency")
			if isBlank(currency) {
				currency = schema.Str(f.Data, "currency")
			}
			rate := schema.Str(p, "tax_rate_percent")
			if isBlank(rate) {
				rate = schema.Str(f.Data, "tax_rate_percent")
			}
			t.Rows = append(t.Rows, row(head,
				schema.Str(p, "product_name"), schema.Str(p, "description"), schema.Str(p, "quantity"),
				schema.Str(p, "unit"), schema.Str(p, "unit_price"), schema.Str(p, "line_total"),
				currency, rate, schema.Str(p, "sku_or_part_number"), f.Error))
		}
	}
	return t
}

// ComparisonTable lists comparison rows; its status column drives the fills.
func ComparisonTable(rows []validate.Row) Table {
	t := Table{
		Sheet: "Comparison",
		Headers: []string{"Parameter", "Unit", "Spec Min", "Spec Max", "Spec Nominal",
			"Measured Value", "Measured From", "Status", "Deviation"},
		StatusColumn: 7,
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Parameter, r.Unit, numCell(r.SpecMin), numCell(r.SpecMax),
			numCell(r.SpecNominal), numCell(r.Measured), r.MeasuredFrom, string(r.Status), r.Deviation})
	}
	return t
}

// ConsolidatedTable lists products ordered by several clients. Rows with
// fewer clients are padded to the widest row.
func ConsolidatedTable(rows []validate.ConsolidatedRow) Table {
	t := Table{Sheet: "Consolidated", Headers: []string{"Product"}, StatusColumn: -1}
	for _, r := range rows {
		headers, values := r.Columns()
		if len(headers) > len(t.Headers) {
			t.Headers = headers
		}
		t.Rows = append(t.Rows, values)
	}
	for i, r := range t.Rows {
		for len(r) < len(t.Headers) {
			r = append(r, "")
		}
		t.Rows[i] = r
	}
	return t
}

// FieldTable is a two-column label/value sheet, e.g. a tender list.
func FieldTable(sheet string, keys []string, data map[string]any) Table {
	t := Table{Sheet: sheet, Headers: []string{"Feld", "Wert"}, StatusColumn: -1}
	for _, k := range keys {
		t.Rows = append(t.Rows, []string{k, schema.Str(data, k)})
	}
	return t
}

// ReviewTables splits a cooperation review into its sheets.
func ReviewTables(data map[string]any) []Table {
	summary := schema.Sub(data, "summary")
	tables := []Table{{
		Sheet:   "Summary",
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Contract Type", schema.Str(summary, "contract_type")},
			{"Parties", strings.Join(schema.Strings(summary, "parties"), "; ")},
			{"Duration", schema.Str(summary, "duration")},
			{"Status", schema.Str(summary, "status")},
			{"Description", schema.Str(summary, "description")},
		},
		StatusColumn: -1,
	}}
	add := func(sheet, key string, headers, fields []string) {
		t := Table{Sheet: sheet, Headers: headers, StatusColumn: -1}
		for _, e := range schema.Entries(data, key) {
			var r []string
			for _, k := range fields {
				r = append(r, schema.Str(e, k))
			}
			t.Rows = append(t.Rows, r)
		}
		tables = append(tables, t)
	}
	add("Deviations", "deviations",
		[]string{"Title", "Severity", "Impact", "Description", "Standard", "Supplier"},
		[]string{"title", "severity", "impact", "description", "standard", "supplier"})
	add("Risks", "risks",
		[]string{"Title", "Severity", "Category", "Description", "Affected Section", "Quote", "Recommendation"},
		[]string{"title", "severity", "category", "description", "affected_section", "quote", "recommendation"})
	add("Key Clauses", "key_clauses",
		[]string{"Type", "Description", "Quote", "Importance"},
		[]string{"type", "description", "quote", "importance"})
	add("Recommendations", "recommendations",
		[]string{"Action", "Priority", "Rationale"},
		[]string{"action", "priority", "rationale"})
	return tables
}

// ReviewTable is the flat CSV view of a review: deviations, risks and recommendations.
func ReviewTable(data map[string]any) Table {
	t := Table{Sheet: "Review", Headers: []string{"Type", "Title", "Severity", "Category", "Impact", "Details"}, StatusColumn: -1}
	for _, e := range schema.Entries(data, "deviations") {
		t.Rows = append(t.Rows, []string{"Deviation", schema.Str(e, "title"), schema.Str(e, "severity"), "", schema.Str(e, "impact"), schema.Str(e, "description")})
	}
	for _, e := range schema.Entries(data, "risks") {
		t.Rows = append(t.Rows, []string{"Risk", schema.Str(e, "title"), schema.Str(e, "severity"), schema.Str(e, "category"), "", schema.Str(e, "description")})
	}
	for _, e := range schema.Entries(data, "recommendations") {
		t.Rows = append(t.Rows, []string{"Recommendation", schema.Str(e, "action"), schema.Str(e, "priority"), "", "", schema.Str(e, "rationale")})
	}
	return t
}

func row(base []string, rest ...string) []string {
	out := make([]string, 0, len(base)+len(rest))
	return append(append(out, base...), rest...)
}

func numCell(v *float64) string {
	if v == nil {
		return ""
	}
	return schema.Stringify(*v)
}

func isBlank(s string) bool {
	return s == "" || strings.EqualFold(s, "Not specified")
}
