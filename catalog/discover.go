package catalog

import (
	"sort"
	"strings"
	"unicode"
)

// ============================================================================
// DISCOVERY — Generic recipe for field identifiers the table does not know
// ============================================================================
// Inspects decoded field values and guesses a recipe:
//   1. Object whose members are mostly objects carrying a total-like scalar
//      → NamedCategoryMap keyed on that scalar (plus any year-keyed member).
//   2. Anything else → GenericLeafSum over numeric top-level leaves.
// Discovery never fails; the worst case is a recipe that yields nothing.
// ============================================================================

// totalLikeKeys are checked in order; the first one present on most members wins.
var totalLikeKeys = []string{"total", "value", "amount", "sum", "obligated", "obligations", "count"}

// Discover builds a recipe by inspecting decoded sample values, one per
// entity. Members of every object sample are pooled, so a single odd record
// cannot decide the recipe for the whole population.
func Discover(samples ...any) Recipe {
	var keys int
	var members []map[string]any
	for _, sample := range samples {
		obj, ok := sample.(map[string]any)
		if !ok {
			continue
		}
		keys += len(obj)
		for _, v := range obj {
			if m, ok := v.(map[string]any); ok {
				members = append(members, m)
			}
		}
	}

	// At least 80% of members must be objects for a category-map reading.
	if len(members) == 0 || float64(len(members))/float64(keys) < 0.8 {
		return Recipe{Shape: GenericLeafSum, Discovered: true}
	}

	totalKey := detectTotalKey(members)
	if totalKey == "" {
		return Recipe{Shape: GenericLeafSum, Discovered: true}
	}

	return Recipe{
		Shape:      NamedCategoryMap,
		TotalKey:   totalKey,
		YearsKey:   detectYearsKey(members),
		Discovered: true,
	}
}

// detectTotalKey finds the total-like scalar most members share.
func detectTotalKey(members []map[string]any) string {
	for _, key := range totalLikeKeys {
		matches := 0
		for _, m := range members {
			if _, ok := asNumber(m[key]); ok {
				matches++
			}
		}
		if float64(matches)/float64(len(members)) >= 0.8 {
			return key
		}
	}
	return ""
}

// detectYearsKey finds a member key whose value is an object keyed by fiscal years.
func detectYearsKey(members []map[string]any) string {
	counts := make(map[string]int)
	for _, m := range members {
		for k, v := range m {
			if inner, ok := v.(map[string]any); ok && IsYearKeyed(inner) {
				counts[k]++
			}
		}
	}
	if len(counts) == 0 {
		return ""
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// Most frequent first, then alphabetical for determinism.
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys[0]
}

// IsYearKeyed reports whether at least 80% of an object's keys parse as fiscal years.
func IsYearKeyed(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	matches := 0
	for k := range obj {
		if _, ok := ParseFiscalYear(k); ok {
			matches++
		}
	}
	return float64(matches)/float64(len(obj)) >= 0.8
}

// asNumber mirrors the extractor's numeric coercion for discovery purposes.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Field Name" or "fieldName" → "field_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}

// DisplayName turns a field identifier into a title.
// "top_resellers" → "Top Resellers"
func DisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}
