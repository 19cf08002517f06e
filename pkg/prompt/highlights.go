package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseHighlights extracts an ordered list of highlight strings from a
// possibly-noisy model response. The contract is explicit and total:
//
//  1. if the text contains a bracketed substring, parse it as a JSON array
//  2. otherwise parse the entire text as JSON, wrapping a non-array value
//     in a single-element list
//  3. if parsing fails, split on newlines and strip leading bullet markers
//
// The result is never nil and never an error.
func ParseHighlights(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}
	}

	if candidate, ok := bracketed(trimmed); ok {
		if items, ok := parseJSONArray(candidate); ok {
			return items
		}
		return splitBulletLines(trimmed)
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return splitBulletLines(trimmed)
	}
	if arr, ok := value.([]any); ok {
		return stringify(arr)
	}
	return []string{trimmed}
}

// bracketed returns the substring from the first '[' to the last ']'.
func bracketed(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func parseJSONArray(candidate string) ([]string, bool) {
	var arr []any
	if err := json.Unmarshal([]byte(candidate), &arr); err != nil {
		return nil, false
	}
	return stringify(arr), true
}

func stringify(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, elem := range arr {
		if s, ok := elem.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(elem))
	}
	return out
}

func splitBulletLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimLeft(line, "-•*")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
