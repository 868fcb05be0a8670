package engine

import (
	"math"
	"strings"
	"testing"
)

// ============================================================================
// TEST FIXTURES
// ============================================================================

// workedExample is the two-vendor obligations population used across tests.
func workedExample() []Entity {
	return []Entity{
		{
			ID: "a", Name: "A", Type: EntityAgency, Department: "Defense", Classification: "Cabinet",
			Fields: map[string]any{
				"obligations": map[string]any{
					"total": 100.0,
					"years": map[string]any{"2023": 40.0, "2024": 60.0},
				},
			},
		},
		{
			ID: "b", Name: "B", Type: EntityAgency, Department: "Energy", Classification: "Cabinet",
			Fields: map[string]any{
				"obligations": map[string]any{
					"total": 50.0,
					"years": map[string]any{"2023": 20.0, "2024": 30.0},
				},
			},
		},
	}
}

func entityWith(id, name, field string, value any) Entity {
	return Entity{ID: id, Name: name, Type: EntityVendor, Fields: map[string]any{field: value}}
}

// ============================================================================
// ASSERTIONS
// ============================================================================

func assertNear(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s: got %.4f, want %.4f", msg, got, want)
	}
}

func assertContains(t *testing.T, haystack []string, needle string, msg string) {
	t.Helper()
	for _, s := range haystack {
		if strings.Contains(s, needle) {
			return
		}
	}
	t.Errorf("%s: %q not found in %v", msg, needle, haystack)
}

func categoryValues(cats []CategoryAggregate) map[string]float64 {
	out := make(map[string]float64, len(cats))
	for _, c := range cats {
		out[c.Name] = c.Value
	}
	return out
}

func categoryNames(cats []CategoryAggregate) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}
