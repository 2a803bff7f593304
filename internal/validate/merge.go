package validate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
)

// Source is one document's extracted field map.
type Source struct {
	Name   string
	Fields map[string]any
}

// MergeFields merges several documents of one package. The first non-empty
// value of a key wins and later documents only fill gaps still holding the
// sentinel. Narrative keys are concatenated as "[source] text" instead.
func MergeFields(sentinel string, narrative map[string]bool, docs ...Source) map[string]any {
	out := map[string]any{}
	notes := map[string][]string{}
	for _, d := range docs {
		for _, k := range sortedKeys(d.Fields) {
			v := d.Fields[k]
			if narrative[k] {
				if s, ok := v.(string); ok && !isEmpty(s, sentinel) {
					notes[k] = append(notes[k], "["+d.Name+"] "+strings.TrimSpace(s))
				}
				continue
			}
			cur, ok := out[k]
			if !ok || isEmpty(cur, sentinel) && !isEmpty(v, sentinel) {
				out[k] = v
			}
		}
	}
	for k, on := range narrative {
		if !on {
			continue
		}
		if len(notes[k]) > 0 {
			out[k] = strings.Join(notes[k], "\n\n")
		} else if _, ok := out[k]; !ok {
			out[k] = sentinel
		}
	}
	return out
}

func isEmpty(v any, sentinel string) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == sentinel || constants.IsSentinel(s)
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func itoa(n int) string { return strconv.Itoa(n) }
