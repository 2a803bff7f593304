package constants

import "strings"

// Sentinel defaults used for deliberately absent information.
const (
	NotSpecified   = "Not specified"
	NichtAngegeben = "Nicht angegeben"
	NichtErmittelt = "Nicht ermittelt"
	Unklar         = "Unklar"
	Unknown        = "Unknown"
)

// Inline markers returned by text acquisition instead of errors.
const (
	EmptyUploadMarker  = "[PDF Error: Empty upload]"
	PDFReadErrorPrefix = "[PDF Read Error: "
	OCRNoTextMarker    = "[OCR Error: No text extracted from any page]"
	OCRErrorPrefix     = "[OCR Error: "
	DOCXErrorPrefix    = "[DOCX Error: "
	DOCErrorPrefix     = "[DOC Error: "
	UnsupportedPrefix  = "[Unsupported File: "
)

var acquisitionPrefixes = []string{
	"[PDF Error: ",
	PDFReadErrorPrefix,
	OCRErrorPrefix,
	DOCXErrorPrefix,
	DOCErrorPrefix,
	UnsupportedPrefix,
}

// IsAcquisitionError reports whether text is one of the inline acquisition markers.
func IsAcquisitionError(text string) bool {
	t := strings.TrimSpace(text)
	for _, p := range acquisitionPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// HasReadableText is the check callers use instead of error status: the text must be
// non-blank and not an acquisition marker.
func HasReadableText(text string) bool {
	return strings.TrimSpace(text) != "" && !IsAcquisitionError(text)
}

// IsSentinel reports whether v is empty or one of the known placeholder strings.
func IsSentinel(v string) bool {
	switch strings.TrimSpace(v) {
	case "", NotSpecified, NichtAngegeben, NichtErmittelt, Unknown:
		return true
	}
	return false
}
