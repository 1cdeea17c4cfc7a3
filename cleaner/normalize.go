package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var nonAlnum = regexp.MustCompile("[^a-zA-Z0-9]+")

// normalizeHeader turns a raw header into a clean snake_case identifier.
// Non-latin text is transliterated first so cyrillic or accented headers stay
// readable instead of collapsing to underscores. Returns "" when nothing
// usable remains.
func normalizeHeader(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	cleaned := unidecode.Unidecode(header)
	cleaned = nonAlnum.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	return strings.ToLower(cleaned)
}

func generateColumnName(index int) string {
	return fmt.Sprintf("column_%d", index+1)
}

// NormalizeHeaders cleans every raw header, synthesizes names for blank ones
// and disambiguates collisions with an _<n> suffix in first-seen order.
// generated[i] marks names that had to be synthesized.
func NormalizeHeaders(headers []string) (names []string, generated []bool) {
	names = make([]string, len(headers))
	generated = make([]bool, len(headers))
	for i, h := range headers {
		name := normalizeHeader(h)
		if name == "" {
			name = generateColumnName(i)
			generated[i] = true
		}
		names[i] = name
	}
	return dedupeNames(names), generated
}

// dedupeNames appends _1, _2, ... to repeated names, keeping the first
// occurrence untouched.
func dedupeNames(names []string) []string {
	seen := map[string]bool{}
	result := make([]string, len(names))
	for i, name := range names {
		candidate := name
		for n := 1; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen[candidate] = true
		result[i] = candidate
	}
	return result
}
