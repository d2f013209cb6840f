package extract

import "strings"

// SmartSnippet picks parts evenly spaced representative lines out of the non-empty lines:
// the line at index i*(len/parts) for i in [0, parts), clamped to the last line.
// It returns min(parts, len) lines in their original order; parts <= 0 means 3.
func SmartSnippet(lines []string, parts int) []string {
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, strings.TrimSpace(l))
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if parts <= 0 {
		parts = 3
	}
	if len(kept) <= parts {
		return kept
	}
	step := len(kept) / parts
	out := make([]string, 0, parts)
	for i := 0; i < parts; i++ {
		idx := i * step
		if idx > len(kept)-1 {
			idx = len(kept) - 1
		}
		out = append(out, kept[idx])
	}
	return out
}

// SmartSnippetText applies SmartSnippet to the lines of text and joins the result with newlines.
func SmartSnippetText(text string, parts int) string {
	return strings.Join(SmartSnippet(strings.Split(text, "\n"), parts), "\n")
}

// sampleSlices keeps the first n items, n items starting at the one-third mark, and the last n
// items when there are more than 3*n; otherwise items is returned unchanged.
func sampleSlices[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= 3*n {
		return items
	}
	mid := len(items) / 3
	out := make([]T, 0, 3*n)
	out = append(out, items[:n]...)
	out = append(out, items[mid:mid+n]...)
	out = append(out, items[len(items)-n:]...)
	return out
}
