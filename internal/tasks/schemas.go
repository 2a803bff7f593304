package tasks

import (
	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/schema"
)

func str(key, desc string) schema.Field {
	return schema.Field{Key: key, Kind: schema.String, Description: desc}
}

func num(key, desc string) schema.Field {
	return schema.Field{Key: key, Kind: schema.Number, Description: desc}
}

// amount is a numeric field that falls back to the sentinel instead of null.
func amount(key, desc string) schema.Field {
	return schema.Field{Key: key, Kind: schema.Number, Description: desc, Default: constants.NotSpecified}
}

func list(key string, entry *schema.Schema) schema.Field {
	return schema.Field{Key: key, Kind: schema.ObjectList, Entry: entry}
}

var contractProduct = &schema.Schema{
	Name:     "contract_product",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("name", "Product or service name"),
		str("description", "Description of the product/service"),
		str("quantity", "Quantity if specified"),
		str("unit", "Unit of measurement if applicable"),
		str("rate", "Rate or price if mentioned"),
	},
}

var keyClause = &schema.Schema{
	Name:     "key_clause",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("type", "Clause type (e.g. Termination, Confidentiality, Payment, Liability)"),
		str("description", "Brief description of the clause"),
		str("quote", "Direct quote from the contract text"),
	},
}

var riskArea = &schema.Schema{
	Name:     "risk_area",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("concern", "Description of the risky or unusual aspect"),
		str("quote", "Direct quote from the contract text"),
	},
}

// ContractAnalysis is the detailed single-contract analysis.
var ContractAnalysis = &schema.Schema{
	Name:     string(constants.TaskContractAnalysis),
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		{Key: "summary", Kind: schema.String, Description: "Brief summary of what the contract is about", Fallback: "Analysis failed", Narrative: true},
		{Key: "client_name", Kind: schema.String, Description: "Name of the client/customer", Fallback: constants.Unknown},
		{Key: "contract_type", Kind: schema.String, Description: "Type of contract or service agreement", Fallback: constants.Unknown},
		str("start_date", "Contract start date if mentioned"),
		str("end_date", "Contract end/termination date if mentioned"),
		list("products_services", contractProduct),
		list("key_clauses", keyClause),
		list("risk_areas", riskArea),
	},
}

var productEntry = &schema.Schema{
	Name:     "product",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		{Key: "product_name", Kind: schema.String, Aliases: []string{"name", "product"}},
		str("quantity", ""),
		{Key: "unit", Kind: schema.String, Default: ""},
		str("description", ""),
	},
}

// Products is the client and product list of one contract.
var Products = &schema.Schema{
	Name:     string(constants.TaskProducts),
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		{Key: "client_name", Kind: schema.String, Description: "The company/organization requesting materials or services", Fallback: "Extraction failed"},
		{Key: "contract_type", Kind: schema.String, Description: "Contract type or nature of the agreement", Fallback: constants.Unknown},
		str("total_estimated_value", "Total estimated value with currency"),
		list("products", productEntry),
	},
}

var invoiceLine = &schema.Schema{
	Name:     "invoice_line",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		{Key: "product_name", Kind: schema.String, Aliases: []string{"name", "item"}},
		str("description", ""),
		amount("quantity", ""),
		str("unit", ""),
		amount("unit_price", ""),
		amount("line_total", ""),
		str("currency", "ISO 4217 code"),
		amount("tax_rate_percent", ""),
		{Key: "sku_or_part_number", Kind: schema.String, Aliases: []string{"sku", "part_number"}},
	},
}

// Invoice is one supplier invoice.
var Invoice = &schema.Schema{
	Name:     string(constants.TaskInvoice),
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("invoice_number", ""),
		str("invoice_date", "YYYY-MM-DD if possible"),
		str("due_date", "YYYY-MM-DD if possible"),
		str("currency", "ISO 4217 code"),
		amount("total_amount", ""),
		amount("subtotal", ""),
		amount("tax_amount", ""),
		amount("tax_rate_percent", ""),
		str("payment_terms", ""),
		str("po_number", "Purchase order number"),
		{Key: "supplier_name", Kind: schema.String, Aliases: []string{"company_name", "vendor_name"}, Fallback: "Extraction failed"},
		str("supplier_address", ""),
		{Key: "customer_name", Kind: schema.String, Aliases: []string{"client_name", "bill_to"}},
		str("customer_address", ""),
		str("ship_to", ""),
		{Key: "tax_id", Kind: schema.String, Aliases: []string{"vat_id", "ust_id"}},
		{Key: "contract_type", Kind: schema.String, Default: constants.Unknown},
		{Key: "notes", Kind: schema.String, Narrative: true},
		list("products", invoiceLine),
	},
}

// DefaultTenderFields is the internal tender list used when no template is given.
var DefaultTenderFields = []string{
	"Auftraggeber",
	"Projekttitel",
	"Land",
	"Ort der Leistung",
	"Vergabeart",
	"Abgabefrist",
	"Laufzeit",
	"Leistungsumfang",
	"Losaufteilung",
	"Zuschlagskriterien",
	"Eignungskriterien",
	"Sicherheiten",
	"Ansprechpartner",
	"Besonderheiten",
}

// TenderSchema builds the flat German schema for the given field labels.
func TenderSchema(fields []string) *schema.Schema {
	s := &schema.Schema{Name: string(constants.TaskTender), Sentinel: constants.NichtAngegeben}
	seen := map[string]bool{}
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		s.Fields = append(s.Fields, schema.Field{Key: f, Kind: schema.String})
	}
	return s
}

var specParameter = &schema.Schema{
	Name:     "spec_parameter",
	Sentinel: constants.NichtAngegeben,
	Fields: []schema.Field{
		{Key: "parameter", Kind: schema.String, Aliases: []string{"name", "parameter_name"}},
		{Key: "unit", Kind: schema.String, Default: ""},
		num("min", "Untergrenze"),
		num("max", "Obergrenze"),
		num("nominal", "Nennwert"),
		num("tolerance", "absolute Toleranz (±)"),
		num("tolerance_percent", "Toleranz in Prozent (±)"),
		str("test_method", "Prüfverfahren / Norm"),
	},
}

// Specification is the parameter table of one technical specification.
var Specification = &schema.Schema{
	Name:     string(constants.TaskSpecification),
	Sentinel: constants.NichtAngegeben,
	Fields: []schema.Field{
		str("document_title", ""),
		str("document_type", ""),
		list("parameters", specParameter),
	},
}

var measurement = &schema.Schema{
	Name:     "measurement",
	Sentinel: constants.NichtAngegeben,
	Fields: []schema.Field{
		{Key: "parameter", Kind: schema.String, Aliases: []string{"name", "parameter_name"}},
		{Key: "unit", Kind: schema.String, Default: ""},
		{Key: "measured_value", Kind: schema.Number, Aliases: []string{"value", "result"}},
		str("test_method", ""),
	},
}

// Measurements is the measured values of one factory certificate.
var Measurements = &schema.Schema{
	Name:     string(constants.TaskMeasurements),
	Sentinel: constants.NichtAngegeben,
	Fields: []schema.Field{
		str("certificate_number", ""),
		str("product", ""),
		str("manufacturer", ""),
		str("test_date", ""),
		list("measurements", measurement),
	},
}

var comparisonRow = &schema.Schema{
	Name:     "comparison_row",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("parameter", "parameter name"),
		{Key: "unit", Kind: schema.String, Description: "unit of measurement", Default: ""},
		num("spec_min", ""),
		num("spec_max", ""),
		num("spec_nominal", ""),
		num("spec_tolerance", "absolute tolerance around spec_nominal"),
		num("spec_tolerance_percent", "tolerance in percent of spec_nominal"),
		num("measured_value", ""),
		{Key: "measured_from", Kind: schema.String, Description: "certificate filename", Default: ""},
		{Key: "status", Kind: schema.String, Description: "OK | OUT | MISSING | NO_SPEC"},
		{Key: "deviation", Kind: schema.String, Description: "description of deviation if OUT", Default: ""},
	},
}

// Comparison is the one-pass specification/certificate comparison.
var Comparison = &schema.Schema{
	Name:     string(constants.TaskComparison),
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		{Key: "identified_specs", Kind: schema.StringList, Description: "spec filenames"},
		{Key: "identified_certificates", Kind: schema.StringList, Description: "certificate filenames"},
		list("comparisons", comparisonRow),
		{Key: "summary", Kind: schema.String, Description: "Brief summary of comparison results", Fallback: "Comparison failed"},
	},
}

var reviewSummary = &schema.Schema{
	Name:     "review_summary",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("contract_type", ""),
		{Key: "parties", Kind: schema.StringList},
		str("duration", ""),
		str("status", "overall assessment, e.g. acceptable / needs negotiation / reject"),
		str("description", ""),
	},
}

var deviation = &schema.Schema{
	Name:     "deviation",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("title", ""),
		str("severity", "High | Medium | Low"),
		str("impact", ""),
		str("description", ""),
		str("standard", "wording in the standard contract"),
		str("supplier", "wording in the supplier agreement"),
	},
}

var risk = &schema.Schema{
	Name:     "risk",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("title", ""),
		str("severity", "High | Medium | Low"),
		str("category", "Legal | Financial | Operational | Compliance"),
		str("description", ""),
		str("affected_section", ""),
		str("quote", ""),
		str("recommendation", ""),
	},
}

var reviewClause = &schema.Schema{
	Name:     "review_clause",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("type", ""),
		str("description", ""),
		str("quote", ""),
		str("importance", "High | Medium | Low"),
	},
}

var recommendation = &schema.Schema{
	Name:     "recommendation",
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		str("action", ""),
		str("priority", "High | Medium | Low"),
		str("rationale", ""),
	},
}

// CooperationReview compares supplier agreements with the standard contract.
var CooperationReview = &schema.Schema{
	Name:     string(constants.TaskCooperation),
	Sentinel: constants.NotSpecified,
	Fields: []schema.Field{
		{Key: "summary", Kind: schema.Object, Entry: reviewSummary},
		list("deviations", deviation),
		list("risks", risk),
		list("key_clauses", reviewClause),
		list("recommendations", recommendation),
	},
}

var productGroup = &schema.Schema{
	Name:     "product_group",
	Sentinel: constants.Unknown,
	Fields: []schema.Field{
		{Key: "canonical_name", Kind: schema.String, Description: "Common display name for the group"},
		{Key: "product_ids", Kind: schema.NumberList, Description: "indices into the product list"},
	},
}

// Grouping is the similar-product grouping across clients.
var Grouping = &schema.Schema{
	Name:     string(constants.TaskGrouping),
	Sentinel: constants.Unknown,
	Fields:   []schema.Field{list("groups", productGroup)},
}

// Market-situation keys.
const (
	KeyCompetitors = "Vermutliche Wettbewerber"
	KeyLastTender  = "Letzter Tender"
	KeySplit       = "Split möglich"
	KeyChances     = "Chancen in %"
	KeySources     = "sources"
)

// NoResearch fills every market key when no web research was possible.
const NoResearch = "Keine Web-Recherche verfügbar"

var marketSource = &schema.Schema{
	Name:     "source",
	Sentinel: "",
	Fields:   []schema.Field{str("title", ""), str("url", "")},
}

// Market is the synthesized market situation of a tender.
var Market = &schema.Schema{
	Name:     string(constants.TaskMarket),
	Sentinel: constants.NichtErmittelt,
	Fields: []schema.Field{
		{Key: KeyCompetitors, Kind: schema.String, Description: "Kommagetrennte Liste von 2-5 möglichen Konkurrenten oder 'Nicht ermittelt'", Fallback: "Fehler bei Analyse"},
		{Key: KeyLastTender, Kind: schema.String, Description: "Letzter ähnlicher Tender bei diesem Kunden: Gewinner und ungefährer Wert (z.B. '2023: Unternehmen XY, ~€500k') oder 'Nicht ermittelt'"},
		{Key: KeySplit, Kind: schema.String, Description: "Ja, Nein oder Unklar", Default: constants.Unklar, Fallback: constants.Unklar},
		{Key: KeyChances, Kind: schema.String, Description: "Gewinnchance, z.B. '35%' oder 'Unklar'", Default: constants.Unklar, Fallback: constants.Unklar},
		list(KeySources, marketSource),
	},
}
