package utils

import (
	"fmt"
	"strings"
)

func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// StripFences returns the body of the first fenced block, or the trimmed input when there is none.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	body := s[start+3:]
	// drop the language tag on the opening fence
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], "```") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func AddLineNumbers(code string) string {
	if code == "" {
		return ""
	}
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = fmt.Sprintf("%d: %s", i+1, line)
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts s to at most n runes, appending an ellipsis when it shortens.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
