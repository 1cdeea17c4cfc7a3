package cleaner

import (
	"strconv"
	"strings"
	"time"

	"github.com/pivolan/go_utils"

	"github.com/pivolan/data_agent/domain/models"
)

// dateLayouts is the fixed ordered list of accepted date formats. First match
// wins, so the more precise layouts come first.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
}

var boolTokens = []string{"true", "false", "t", "f", "yes", "no", "y", "n"}

var nullTokens = []string{"", "null", "na", "n/a", "nan", "none"}

// IsNull reports whether a raw cell counts as missing.
func IsNull(value string) bool {
	return go_utils.InArray(strings.ToLower(strings.TrimSpace(value)), nullTokens)
}

func parseInteger(value string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	return n, err == nil
}

func parseFloat(value string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return f, err == nil
}

func parseBool(value string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if !go_utils.InArray(v, boolTokens) {
		return false, false
	}
	return v == "true" || v == "t" || v == "yes" || v == "y", true
}

func parseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferColumnType picks the most specific type every non-null sample fits.
// The ladder is integer < float < date < boolean < categorical < text: one
// non-conforming value demotes the column to the next looser type. The
// string split between categorical and text uses the distinct-value ratio.
func InferColumnType(values []string, maxDistinctRatio float64) models.ColumnType {
	if len(values) == 0 {
		return models.TypeText
	}

	allInt, allFloat, allDate, allBool := true, true, true, true
	distinct := map[string]bool{}
	for _, v := range values {
		if _, ok := parseInteger(v); !ok {
			allInt = false
		}
		if _, ok := parseFloat(v); !ok {
			allFloat = false
		}
		if _, ok := parseDate(v); !ok {
			allDate = false
		}
		if _, ok := parseBool(v); !ok {
			allBool = false
		}
		distinct[strings.TrimSpace(v)] = true
	}

	switch {
	case allInt:
		return models.TypeInteger
	case allFloat:
		return models.TypeFloat
	case allDate:
		return models.TypeDate
	case allBool:
		return models.TypeBoolean
	}

	ratio := float64(len(distinct)) / float64(len(values))
	if ratio <= maxDistinctRatio {
		return models.TypeCategorical
	}
	return models.TypeText
}

// Coerce converts one raw cell to the column's inferred type. Unparseable
// values become nil rather than failing the column.
func Coerce(value string, t models.ColumnType) interface{} {
	if IsNull(value) {
		return nil
	}
	switch t {
	case models.TypeInteger:
		if n, ok := parseInteger(value); ok {
			return n
		}
	case models.TypeFloat:
		if f, ok := parseFloat(value); ok {
			return f
		}
	case models.TypeDate:
		if d, ok := parseDate(value); ok {
			return d
		}
	case models.TypeBoolean:
		if b, ok := parseBool(value); ok {
			return b
		}
	case models.TypeCategorical, models.TypeText:
		return strings.TrimSpace(value)
	}
	return nil
}
