package constants

import "strings"

// Format is the coarse document family used to pick an acquisition strategy.
type Format string

const (
	PDF     Format = "PDF"
	DOCX    Format = "DOCX"
	DOC     Format = "DOC"
	UNKNOWN Format = "UNKNOWN"
)

// AllowedExtensions holds the default allowed file extensions for uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"doc":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps an extension (with or without dot) to its Format.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "doc":
		return DOC
	default:
		return UNKNOWN
	}
}

// IsAllowedExt reports whether ext is one of AllowedExtensions.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
