package utils

import "strings"

// TruncateForLog trims s and cuts it to limit runes, marking the cut with "...".
// Prompts and model replies go through it before being logged.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.TrimSpace(s)
	if n := 0; len(s) > limit {
		for i := range s {
			if n == limit {
				return s[:i] + "..."
			}
			n++
		}
	}
	return s
}
