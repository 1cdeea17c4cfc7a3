package loader

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var headerDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}\.\d+$`),
}

// firstRowIsData votes on whether the first row of a file holds data rather
// than column headers. A row where fewer than half the fields look like
// header text is treated as data.
func firstRowIsData(row []string) bool {
	if len(row) == 0 {
		return false
	}
	headerLike := 0
	for _, field := range row {
		if isLikelyHeader(field) {
			headerLike++
		}
	}
	return float64(headerLike)/float64(len(row)) < 0.5
}

// isLikelyHeader reports whether text looks like a column title rather than a
// cell value. Numbers and date-formatted strings are values; text with a
// reasonable share of letters is a title.
func isLikelyHeader(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return false
	}

	for _, pattern := range headerDatePatterns {
		if pattern.MatchString(text) {
			return false
		}
	}

	letters := 0
	total := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return false
	}
	return letters > 0 && float64(letters)/float64(total) >= 0.3
}
