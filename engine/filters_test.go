package engine

import (
	"encoding/json"
	"testing"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// FILTER PIPELINE TESTS
// ============================================================================

func TestFilterEntities(t *testing.T) {
	entities := append(workedExample(), Entity{
		ID: "c", Name: "C", Type: EntityAgency, Department: "Defense", Classification: "Independent",
	})

	tests := []struct {
		name string
		opts ViewOptions
		want []string
	}{
		{"no filters", ViewOptions{}, []string{"a", "b", "c"}},
		{"department", ViewOptions{DepartmentFilter: []string{"defense"}}, []string{"a", "c"}},
		{"department OR", ViewOptions{DepartmentFilter: []string{"Defense", "ENERGY"}}, []string{"a", "b", "c"}},
		{"department AND class", ViewOptions{
			DepartmentFilter:     []string{"Defense"},
			ClassificationFilter: []string{"cabinet"},
		}, []string{"a"}},
		{"names by name or id", ViewOptions{SelectedEntityNames: []string{"B", "c"}}, []string{"b", "c"}},
		{"no match", ViewOptions{DepartmentFilter: []string{"Treasury"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterEntities(entities, tt.opts)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entities, want %v", len(got), tt.want)
			}
			for i, e := range got {
				if e.ID != tt.want[i] {
					t.Errorf("entity %d = %s, want %s", i, e.ID, tt.want[i])
				}
			}
		})
	}
}

func TestApplyYearFilterWorkedExample(t *testing.T) {
	original := workedExample()
	derived := ApplyYearFilter("obligations", original, catalog.SingleYear(2023))

	x := ExtractCategories("obligations", derived)
	vals := categoryValues(x.Categories)
	assertNear(t, vals["A"], 40, "A in FY2023")
	assertNear(t, vals["B"], 20, "B in FY2023")

	// Inputs are never mutated.
	if _, ok := original[0].Fields["obligations"].(map[string]any); !ok {
		t.Error("original entity field was replaced")
	}
}

func TestApplyYearFilterRange(t *testing.T) {
	entities := []Entity{
		entityWith("v1", "Acme", "top_resellers",
			`[{"name":"SHI","value":60,"fiscal_year":{"2021":10,"2022":20,"2023":30}},{"name":"CDW","value":5}]`),
	}
	derived := ApplyYearFilter("top_resellers", entities, catalog.YearRange{From: 2022, To: 2023})
	x := ExtractCategories("top_resellers", derived)

	vals := categoryValues(x.Categories)
	assertNear(t, vals["SHI"], 50, "SHI in FY2022-FY2023")
	assertNear(t, vals["CDW"], 0, "no year data contributes zero")
}

func TestApplyYearFilterAllIsIdentity(t *testing.T) {
	entities := workedExample()
	derived := ApplyYearFilter("obligations", entities, catalog.AllYears)
	if &derived[0] != &entities[0] {
		t.Error("unfiltered request should return the input slice")
	}
}

func TestApplyYearFilterDerivedValueMarshals(t *testing.T) {
	derived := ApplyYearFilter("obligations", workedExample(), catalog.SingleYear(2024))

	body, err := json.Marshal(derived[0].Fields["obligations"])
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"self":true,"value":60,"fiscal_year":{"2024":60}}]`
	if string(body) != want {
		t.Errorf("derived value = %s, want %s", body, want)
	}
}
