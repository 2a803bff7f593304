package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	reJSONFence = regexp.MustCompile("(?s)```[ \\t]*(?i:json)[ \\t]*\\r?\\n?(.*?)```")
	reAnyFence  = regexp.MustCompile("(?s)```(.*?)```")
	reLangTag   = regexp.MustCompile(`^[A-Za-z0-9_+.\-]*$`)
)

// ExtractJSON isolates the JSON payload of a model reply: the content of a
// ```json fence if there is one, else of the first fence, else the whole
// trimmed text.
func ExtractJSON(text string) string {
	t := strings.TrimSpace(text)
	if m := reJSONFence.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reAnyFence.FindStringSubmatch(t); m != nil {
		body := m[1]
		if i := strings.IndexByte(body, '\n'); i >= 0 && reLangTag.MatchString(strings.TrimSpace(body[:i])) {
			body = body[i+1:]
		}
		return strings.TrimSpace(body)
	}
	return t
}

// ParseObject decodes the JSON object in a model reply. Text around a bare
// object ("Here is the result: {...}") is tolerated.
func ParseObject(text string) (map[string]any, error) {
	payload := ExtractJSON(text)
	if payload == "" {
		return nil, errors.New("empty response")
	}
	obj, err := decodeObject(payload)
	if err == nil {
		return obj, nil
	}
	start := strings.Index(payload, "{")
	end := strings.LastIndex(payload, "}")
	if start >= 0 && end > start {
		if obj, err2 := decodeObject(payload[start : end+1]); err2 == nil {
			return obj, nil
		}
	}
	return nil, err
}

func decodeObject(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return obj, nil
}
