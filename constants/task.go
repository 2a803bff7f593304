package constants

// TaskKind names one LLM extraction task.
type TaskKind string

const (
	TaskContractAnalysis TaskKind = "contract_analysis"
	TaskProducts         TaskKind = "products"
	TaskInvoice          TaskKind = "invoice"
	TaskTender           TaskKind = "tender"
	TaskSpecification    TaskKind = "specification"
	TaskMeasurements     TaskKind = "measurements"
	TaskComparison       TaskKind = "comparison"
	TaskCooperation      TaskKind = "cooperation_review"
	TaskGrouping         TaskKind = "product_grouping"
	TaskMarket           TaskKind = "market_research"
)

// Default length caps (characters) applied to source text per task.
const (
	TruncateFloor           = 3000
	RecommendedTruncate     = 3500
	DefaultProductsTruncate = 15000
	DefaultInvoiceTruncate  = 15000
	DefaultTenderTruncate   = 20000
	DefaultSpecTruncate     = 20000
	DefaultCertTruncate     = 12000
	ComparisonPerDocLimit   = 8000
	CooperationPerDocLimit  = 12000
	MarketSnippetLimit      = 500
	MaxMarketQueries        = 3
	DefaultMarketMaxResults = 10
)
