package util

import "strings"

func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// NormalizePhrase lowercases, trims, and collapses internal whitespace.
// Alias phrases and vocabulary lookup terms are stored and compared in
// this form so "  My  Boss " and "my boss" hit the same row.
func NormalizePhrase(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// NormalizeTag canonicalizes a tag for the tag dictionary: lowercase,
// trimmed, inner whitespace collapsed to single dashes.
func NormalizeTag(value string) string {
	fields := strings.Fields(strings.ToLower(value))
	return strings.Join(fields, "-")
}

// NormalizeTags maps NormalizeTag over values, dropping entries that
// normalize to empty and duplicates after normalization. Order of first
// appearance is preserved.
func NormalizeTags(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		tag := NormalizeTag(value)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
