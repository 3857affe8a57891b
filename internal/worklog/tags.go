package worklog

import (
	"strings"
)

const maxTagLen = 32

// ParseTags turns a raw completion such as "#BugFix, #Frontend" into tags.
// Each comma-separated piece loses surrounding whitespace and one leading '#';
// empty pieces and repeats are dropped.
func ParseTags(raw string) []string {
	pieces := strings.Split(raw, ",")
	seen := map[string]struct{}{}
	out := make([]string, 0, len(pieces))

	for _, p := range pieces {
		t := strings.TrimSpace(p)
		t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// NormalizeTags cleans tags supplied by a user edit.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}

	for _, t := range in {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" || len(t) > maxTagLen {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)

		if len(out) >= 20 { // cap
			break
		}
	}

	return out
}
