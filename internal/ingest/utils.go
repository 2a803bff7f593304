package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
)

// extSet builds the lowercase, dot-less extension set; empty input means the
// default document formats.
func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return constants.AllowedExtensions
	}
	out := map[string]struct{}{}
	for _, e := range exts {
		if e = constants.NormalizeExt(e); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
