package catalog

import (
	"sort"
	"strings"
)

// ============================================================================
// COLUMN SCHEMA CATALOG — Extraction recipes per field identifier
// ============================================================================
// Every entity field stores its numbers in one of a handful of nested shapes.
// The catalog is data: adding a field is a new row in the table below, never
// a new branch in the extractor.
// ============================================================================

// Shape identifies which nested layout a field value uses.
type Shape string

const (
	// ScalarWithYears: {"total": n, "fiscal_year": {"2023": n}}. The entity is the category.
	ScalarWithYears Shape = "scalar_with_years"
	// NamedCategoryMap: {"<category>": n | {"total": n, "fiscal_year": {...}}}.
	NamedCategoryMap Shape = "named_category_map"
	// RankedArray: [{"name": s, "value": n, "fiscal_year": {...}}].
	RankedArray Shape = "ranked_array"
	// NestedByYear: {"<year>": [{name, value}] | {"<category>": n}}.
	NestedByYear Shape = "nested_by_year"
	// NestedByEntity: {"<group>": {"<category>": ...} | [{name, value}]}; group may be a sub-entity or a year.
	NestedByEntity Shape = "nested_by_entity"
	// GenericLeafSum: numeric top-level leaves summed into one category per entity.
	GenericLeafSum Shape = "generic_leaf_sum"
)

// Default keys used when a recipe leaves them empty.
const (
	DefaultNameKey  = "name"
	DefaultValueKey = "value"
	DefaultTotalKey = "total"
	DefaultYearsKey = "fiscal_year"
)

// Recipe tells the extractor where a field keeps its categories, values and
// fiscal-year breakdowns.
type Recipe struct {
	Field string `json:"field" yaml:"field"`
	Label string `json:"label" yaml:"label"`
	Shape Shape  `json:"shape" yaml:"shape"`

	// Path is walked (object keys) before the shape applies, e.g. ["codes"].
	Path []string `json:"path,omitempty" yaml:"path,omitempty"`

	NameKey  string `json:"nameKey,omitempty" yaml:"nameKey,omitempty"`   // RankedArray / NestedByYear items
	ValueKey string `json:"valueKey,omitempty" yaml:"valueKey,omitempty"` // RankedArray / NestedByYear items
	TotalKey string `json:"totalKey,omitempty" yaml:"totalKey,omitempty"` // scalar totals inside objects
	YearsKey string `json:"yearsKey,omitempty" yaml:"yearsKey,omitempty"` // year-keyed map inside objects

	Ranking  bool `json:"ranking,omitempty" yaml:"ranking,omitempty"`   // reference-ID style leaderboard
	Currency bool `json:"currency,omitempty" yaml:"currency,omitempty"` // values are money, not counts

	// CodeKeys marks category maps keyed by numeric codes (PSC, NAICS) that
	// must never be read as fiscal years, however year-like they look.
	CodeKeys bool `json:"codeKeys,omitempty" yaml:"codeKeys,omitempty"`

	// Discovered marks recipes produced by Discover rather than the table.
	Discovered bool `json:"discovered,omitempty" yaml:"-"`
}

// Names returns the item name key, applying the default.
func (r Recipe) Names() string { return orDefault(r.NameKey, DefaultNameKey) }

// Values returns the item value key, applying the default.
func (r Recipe) Values() string { return orDefault(r.ValueKey, DefaultValueKey) }

// Totals returns the scalar total key, applying the default.
func (r Recipe) Totals() string { return orDefault(r.TotalKey, DefaultTotalKey) }

// Years returns the fiscal-year map key, applying the default.
func (r Recipe) Years() string { return orDefault(r.YearsKey, DefaultYearsKey) }

// Unit returns "currency" or "count" for formatting.
func (r Recipe) Unit() string {
	if r.Currency {
		return "currency"
	}
	return "count"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ============================================================================
// FIELD TABLE
// ============================================================================

var fields = map[string]Recipe{
	// ── Scalar totals with fiscal-year maps ──────────────────────────────
	"obligations": {
		Label: "Obligations", Shape: ScalarWithYears, Currency: true,
	},
	"contract_actions": {
		Label: "Contract Actions", Shape: ScalarWithYears,
	},
	"small_business_obligations": {
		Label: "Small Business Obligations", Shape: ScalarWithYears, Currency: true,
	},

	// ── Named category maps ──────────────────────────────────────────────
	"funding_agencies": {
		Label: "Funding Agencies", Shape: NamedCategoryMap, Currency: true,
	},
	"contracting_offices": {
		Label: "Contracting Offices", Shape: NamedCategoryMap, Currency: true,
	},
	"set_aside_types": {
		Label: "Set-Aside Types", Shape: NamedCategoryMap, Currency: true,
	},
	"contract_types": {
		Label: "Contract Types", Shape: NamedCategoryMap, Currency: true,
	},
	"business_size": {
		Label: "Business Size", Shape: NamedCategoryMap, Currency: true,
	},
	"naics_codes": {
		Label: "NAICS Codes", Shape: NamedCategoryMap, Path: []string{"codes"}, CodeKeys: true, Currency: true,
	},
	"psc_codes": {
		Label: "Product Service Codes", Shape: NamedCategoryMap, Path: []string{"codes"}, CodeKeys: true, Currency: true,
	},
	"competition": {
		Label: "Extent Competed", Shape: NamedCategoryMap, Path: []string{"breakdown"}, Currency: true,
	},

	// ── Ranked arrays ────────────────────────────────────────────────────
	"top_resellers": {
		Label: "Resellers", Shape: RankedArray, Currency: true,
	},
	"top_oems": {
		Label: "OEMs", Shape: RankedArray, Currency: true,
	},
	"top_contract_vehicles": {
		Label: "Contract Vehicles", Shape: RankedArray,
		NameKey: "vehicle", ValueKey: "obligated", Ranking: true, Currency: true,
	},
	"reference_ids": {
		Label: "Award PIIDs", Shape: RankedArray,
		NameKey: "piid", ValueKey: "amount", Ranking: true, Currency: true,
	},
	"top_idvs": {
		Label: "Indefinite Delivery Vehicles", Shape: RankedArray,
		NameKey: "idv", ValueKey: "amount", Ranking: true, Currency: true,
	},

	// ── Nested by year, then rank ────────────────────────────────────────
	"yearly_top_vendors": {
		Label: "Vendors by Year", Shape: NestedByYear, Currency: true,
	},
	"yearly_top_awards": {
		Label: "Awards by Year", Shape: NestedByYear,
		NameKey: "piid", ValueKey: "amount", Ranking: true, Currency: true,
	},

	// ── Nested by sub-entity, then category ──────────────────────────────
	"oem_products": {
		Label: "OEM Products", Shape: NestedByEntity, Currency: true,
	},
	"reseller_products": {
		Label: "Reseller Products", Shape: NestedByEntity, Currency: true,
	},
}

// Lookup returns the recipe for a field identifier.
func Lookup(field string) (Recipe, bool) {
	r, ok := fields[normalizeField(field)]
	if !ok {
		return Recipe{}, false
	}
	r.Field = normalizeField(field)
	return r, true
}

// Resolve returns the catalog recipe for field, or a recipe discovered from
// samples when the field is unknown. It never fails.
func Resolve(field string, samples ...any) Recipe {
	if r, ok := Lookup(field); ok {
		return r
	}
	r := Discover(samples...)
	r.Field = normalizeField(field)
	if r.Label == "" {
		r.Label = DisplayName(field)
	}
	return r
}

// Fields returns every catalogued field identifier, sorted.
func Fields() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Recipes returns every catalogued recipe, sorted by field identifier.
func Recipes() []Recipe {
	out := make([]Recipe, 0, len(fields))
	for _, k := range Fields() {
		r, _ := Lookup(k)
		out = append(out, r)
	}
	return out
}

// IsRanking reports whether field is a reference-ID style leaderboard.
func IsRanking(field string) bool {
	r, ok := Lookup(field)
	return ok && r.Ranking
}

// Normalize returns the canonical identifier for field, known or not.
func Normalize(field string) string {
	return normalizeField(field)
}

// normalizeField maps "Top Resellers" / "top-resellers" / "topResellers" onto "top_resellers".
func normalizeField(field string) string {
	return toSnakeCase(strings.TrimSpace(field))
}
