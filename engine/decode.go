package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ============================================================================
// LENIENT DECODE — Field values that arrive as serialized strings
// ============================================================================
// Stores frequently hand back nested fields as JSON text, sometimes written by
// spreadsheets or scripts with single quotes, trailing commas or comments.
// Order of attempts:
//   1. Standard JSON
//   2. JSON repair
//   3. Hjson (most lenient)
// A decode only counts when it yields an object, an array or a number.
// ============================================================================

// decodeFieldValue normalizes a raw field value. Non-string values pass through.
func decodeFieldValue(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return normalizeNative(raw)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty serialized value")
	}

	// Try 1: Standard JSON
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil && usable(v) {
		return v, nil
	}

	// Try 2: JSON repair
	if repaired, err := jsonrepair.RepairJSON(s); err == nil {
		var rv any
		if err := json.Unmarshal([]byte(repaired), &rv); err == nil && usable(rv) {
			return rv, nil
		}
	}

	// Try 3: Hjson, re-encoded through standard JSON so numbers are float64
	var hv any
	if err := hjson.Unmarshal([]byte(s), &hv); err == nil {
		if b, err := json.Marshal(hv); err == nil {
			var jv any
			if err := json.Unmarshal(b, &jv); err == nil && usable(jv) {
				return jv, nil
			}
		}
	}

	return nil, fmt.Errorf("undecodable field value (%.40q)", s)
}

// normalizeNative brings in-memory Go values (typed maps, int slices) to the
// generic JSON form the walkers read.
func normalizeNative(raw any) (any, error) {
	switch v := raw.(type) {
	case normalizedField:
		return v, nil
	case float64:
		if usable(v) {
			return v, nil
		}
		return nil, fmt.Errorf("non-finite field value")
	}
	if n, ok := toNumber(raw); ok {
		return n, nil
	}
	if isPlainJSON(raw) && usable(raw) {
		return raw, nil
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode field value: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil || !usable(v) {
		return nil, fmt.Errorf("unusable field value of type %T", raw)
	}
	return v, nil
}

// isPlainJSON reports whether v is built only from the types encoding/json decodes into.
func isPlainJSON(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for _, inner := range t {
			if !isPlainJSON(inner) {
				return false
			}
		}
		return true
	case []any:
		for _, inner := range t {
			if !isPlainJSON(inner) {
				return false
			}
		}
		return true
	case string, float64, bool, nil:
		return true
	}
	return false
}

// usable reports whether a decoded value can carry categories or totals.
func usable(v any) bool {
	switch t := v.(type) {
	case map[string]any, []any:
		return true
	case float64:
		return !math.IsNaN(t) && !math.IsInf(t, 0)
	}
	return false
}

// toNumber coerces decoded JSON scalars, including numeric strings such as
// "1,250.00" or "$3,400", into float64.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		cleaned := strings.NewReplacer(",", "", "$", "", " ", "").Replace(strings.TrimSpace(n))
		if cleaned == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toName renders a category name from a string or numeric JSON value.
func toName(v any) string {
	switch n := v.(type) {
	case string:
		return strings.TrimSpace(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		return n.String()
	}
	return ""
}
