package constants

// DocumentState is the per-document processing state inside a batch.
type DocumentState string

// Stable values (these exact strings are written to the run ledger).
const (
	StateUploaded         DocumentState = "UPLOADED"
	StateTextExtracted    DocumentState = "TEXT_EXTRACTED"
	StateExtractionFailed DocumentState = "EXTRACTION_FAILED" // terminal
	StateAIExtracted      DocumentState = "AI_EXTRACTED"
	StateValidationFailed DocumentState = "VALIDATION_FAILED" // terminal
	StateNormalized       DocumentState = "NORMALIZED"
	StateExported         DocumentState = "EXPORTED" // terminal
)

// Terminal reports whether no further transition is expected for a batch run.
// Normalized counts as terminal for aggregation; export is a follow-up step.
func (s DocumentState) Terminal() bool {
	switch s {
	case StateExtractionFailed, StateValidationFailed, StateNormalized, StateExported:
		return true
	}
	return false
}

// Succeeded reports whether the document produced a usable normalized result.
func (s DocumentState) Succeeded() bool {
	return s == StateNormalized || s == StateExported
}

// ComparisonStatus classifies a measured value against its specification.
type ComparisonStatus string

const (
	StatusOK       ComparisonStatus = "OK"
	StatusOut      ComparisonStatus = "OUT"
	StatusMissing  ComparisonStatus = "MISSING"
	StatusNoSpec   ComparisonStatus = "NO_SPEC"
	StatusNoBounds ComparisonStatus = "NO_BOUNDS"
)
