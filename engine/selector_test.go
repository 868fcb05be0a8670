package engine

import (
	"reflect"
	"testing"
)

// ============================================================================
// CHART-TYPE CONTEXT SELECTOR TESTS
// ============================================================================

func TestSnapBucket(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, BucketAll}, {1, Bucket5}, {5, Bucket5}, {6, Bucket10},
		{10, Bucket10}, {12, Bucket15}, {20, Bucket20}, {21, BucketAll}, {500, BucketAll},
	}
	for _, tt := range tests {
		if got := SnapBucket(tt.count); got != tt.want {
			t.Errorf("SnapBucket(%d) = %s, want %s", tt.count, got, tt.want)
		}
	}
}

var testMatrix = []byte(`
default:
  obligations:
    "5":  [pie]
    all:  [bar_horizontal]
vendor:
  obligations:
    "10": [doughnut]
    all:  [area, fiscal_bar]
`)

func TestSelectFallbackChain(t *testing.T) {
	s, err := LoadSelector(testMatrix)
	if err != nil {
		t.Fatalf("LoadSelector failed: %v", err)
	}

	tests := []struct {
		name       string
		entityType EntityType
		field      string
		count      int
		kinds      []ChartKind
		source     string
	}{
		{"exact", EntityVendor, "obligations", 7, []ChartKind{ChartDoughnut}, SourceExact},
		{"type all", EntityVendor, "obligations", 3, []ChartKind{ChartArea, ChartFiscalBar}, SourceTypeAll},
		{"default exact bucket", EntityAgency, "obligations", 4, []ChartKind{ChartPie}, SourceDefault},
		{"default all", EntityAgency, "Obligations", 15, []ChartKind{ChartBarHorizontal}, SourceDefault},
		{"heuristic ranking", EntityOEM, "reference_ids", 3, []ChartKind{ChartFunnel, ChartBarHorizontal, ChartFiscalLine}, SourceHeuristic},
		{"heuristic small", EntityOEM, "business_size", 4, []ChartKind{ChartPie, ChartBar, ChartFiscalLine}, SourceHeuristic},
		{"heuristic medium", EntityOEM, "business_size", 9, []ChartKind{ChartBar, ChartDoughnut, ChartFiscalLine}, SourceHeuristic},
		{"heuristic large", EntityOEM, "business_size", 0, []ChartKind{ChartBarHorizontal, ChartStacked, ChartFiscalBar}, SourceHeuristic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := s.Select(tt.entityType, tt.field, tt.count)
			if !reflect.DeepEqual(sel.Kinds, tt.kinds) {
				t.Errorf("kinds = %v, want %v", sel.Kinds, tt.kinds)
			}
			if sel.Source != tt.source {
				t.Errorf("source = %s, want %s", sel.Source, tt.source)
			}
		})
	}
}

func TestSelectIsPure(t *testing.T) {
	s := DefaultSelector()
	first := s.Select(EntityAgency, "funding_agencies", 5)
	first.Kinds[0] = "mutated"
	second := s.Select(EntityAgency, "funding_agencies", 5)
	if second.Kinds[0] == "mutated" {
		t.Error("Select must not expose matrix storage")
	}
}

func TestDefaultMatrixCoversCatalog(t *testing.T) {
	s := DefaultSelector()
	for _, field := range []string{"obligations", "top_resellers", "reference_ids", "oem_products"} {
		if sel := s.Select(EntityVendor, field, 10); sel.Source == SourceHeuristic {
			t.Errorf("%s fell through to the heuristic", field)
		}
	}
}

func TestLoadSelectorRejectsBadInput(t *testing.T) {
	bad := map[string]string{
		"unknown kind":   "default:\n  obligations:\n    all: [radar]\n",
		"unknown bucket": "default:\n  obligations:\n    \"7\": [bar]\n",
		"unknown type":   "agencies:\n  obligations:\n    all: [bar]\n",
		"not yaml":       "default: [",
	}
	for name, doc := range bad {
		if _, err := LoadSelector([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
