package engine

import (
	"encoding/json"
	"sort"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// SHAPE WALKERS — One implementation per catalog.Shape
// ============================================================================
// Each walker turns one entity's decoded field value into flat entries:
// a category name, its effective value, and its fiscal-year breakdown when
// the shape carries one. The Category Extractor sums Value by name; the
// Fiscal-Year Aggregator sums Years by year. Both read the same entries, so
// the two views of a field can never disagree about what was found.
// ============================================================================

// entry is one category contribution from one entity.
type entry struct {
	Category string          `json:"name,omitempty"`
	Self     bool            `json:"self,omitempty"` // the category is the entity itself (ScalarWithYears, GenericLeafSum)
	Value    float64         `json:"value"`
	Years    map[int]float64 `json:"fiscal_year,omitempty"`
}

// normalizedField replaces a raw field value on derived (year-filtered)
// entities. Walkers return its entries unchanged.
type normalizedField struct {
	entries []entry
}

// MarshalJSON renders the already-walked entries as a list.
func (nf normalizedField) MarshalJSON() ([]byte, error) {
	if nf.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(nf.entries)
}

// walkField dispatches on the recipe's shape.
func walkField(value any, r catalog.Recipe) []entry {
	if nf, ok := value.(normalizedField); ok {
		return nf.entries
	}

	node := descend(value, r.Path)
	if node == nil {
		return nil
	}

	switch r.Shape {
	case catalog.ScalarWithYears:
		return walkScalarWithYears(node, r)
	case catalog.NamedCategoryMap:
		return walkNamedCategoryMap(node, r)
	case catalog.RankedArray:
		return walkRankedArray(node, r)
	case catalog.NestedByYear:
		return walkNestedByYear(node, r)
	case catalog.NestedByEntity:
		return walkNestedByEntity(node, r)
	default:
		return walkGenericLeafSum(node, r)
	}
}

// descend follows object keys; a missing step yields nil.
func descend(value any, path []string) any {
	node := value
	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return node
}

// ============================================================================
// (a) SCALAR WITH YEARS
// ============================================================================

func walkScalarWithYears(node any, r catalog.Recipe) []entry {
	if n, ok := toNumber(node); ok {
		return []entry{{Self: true, Value: n}}
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return nil
	}

	e, ok := categoryNode(obj, r)
	if !ok {
		return nil
	}
	e.Self = true
	return []entry{e}
}

// ============================================================================
// (b) NAMED CATEGORY MAP
// ============================================================================

func walkNamedCategoryMap(node any, r catalog.Recipe) []entry {
	switch n := node.(type) {
	case map[string]any:
		return categoryMap(n, r)
	case []any:
		return rankedItems(n, r, 0)
	}
	return nil
}

// ============================================================================
// (c) RANKED ARRAY
// ============================================================================

func walkRankedArray(node any, r catalog.Recipe) []entry {
	switch n := node.(type) {
	case []any:
		return rankedItems(n, r, 0)
	case map[string]any:
		// Some exports key the ranking by name instead of listing it.
		return categoryMap(n, r)
	}
	return nil
}

// ============================================================================
// (d) NESTED BY YEAR, THEN RANK
// ============================================================================

func walkNestedByYear(node any, r catalog.Recipe) []entry {
	switch n := node.(type) {
	case map[string]any:
		return walkYearFirst(n, r)
	case []any:
		return rankedItems(n, r, 0)
	}
	return nil
}

// categoryMap reads an object keyed either by category or by fiscal year.
func categoryMap(obj map[string]any, r catalog.Recipe) []entry {
	if yearFirst(obj, r) {
		return walkYearFirst(obj, r)
	}
	return namedCategories(obj, r, 0)
}

// yearFirst reports whether obj holds categories nested under fiscal years.
// Year-like keys alone are not enough: PSC and agency codes such as "2010"
// or "2100" parse as years. Every year key must hold a ranked list or a
// plain category map, never a number or a category node.
func yearFirst(obj map[string]any, r catalog.Recipe) bool {
	if r.CodeKeys || !catalog.IsYearKeyed(obj) {
		return false
	}
	for key, v := range obj {
		if _, ok := catalog.ParseFiscalYear(key); !ok {
			continue
		}
		switch inner := v.(type) {
		case []any:
		case map[string]any:
			if isCategoryNode(inner, r) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// isCategoryNode reports whether obj describes one category (a total, an
// item value or a fiscal-year breakdown) rather than a map of categories.
func isCategoryNode(obj map[string]any, r catalog.Recipe) bool {
	if catalog.IsYearKeyed(obj) {
		return true
	}
	for _, key := range append([]string{r.Totals(), r.Values(), r.Years()}, yearsKeyAliases...) {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// walkYearFirst reads {"<year>": container}. Non-year keys are ignored.
func walkYearFirst(obj map[string]any, r catalog.Recipe) []entry {
	var out []entry
	for _, key := range sortedKeys(obj) {
		year, ok := catalog.ParseFiscalYear(key)
		if !ok {
			continue
		}
		switch inner := obj[key].(type) {
		case []any:
			out = append(out, rankedItems(inner, r, year)...)
		case map[string]any:
			out = append(out, namedCategories(inner, r, year)...)
		}
	}
	return out
}

// ============================================================================
// (e) NESTED BY ENTITY, THEN CATEGORY
// ============================================================================

func walkNestedByEntity(node any, r catalog.Recipe) []entry {
	switch n := node.(type) {
	case map[string]any:
		if yearFirst(n, r) {
			return walkYearFirst(n, r)
		}
		var out []entry
		for _, group := range sortedKeys(n) {
			switch inner := n[group].(type) {
			case []any:
				out = append(out, rankedItems(inner, r, 0)...)
			case map[string]any:
				out = append(out, categoryMap(inner, r)...)
			}
		}
		return out
	case []any:
		return rankedItems(n, r, 0)
	}
	return nil
}

// ============================================================================
// GENERIC LEAF SUM — unknown fields
// ============================================================================

func walkGenericLeafSum(node any, r catalog.Recipe) []entry {
	if n, ok := toNumber(node); ok {
		return []entry{{Self: true, Value: n}}
	}

	switch n := node.(type) {
	case map[string]any:
		var total float64
		var found bool
		years := make(map[int]float64)
		for _, key := range sortedKeys(n) {
			v, ok := toNumber(n[key])
			if !ok {
				continue
			}
			if y, isYear := catalog.ParseFiscalYear(key); isYear {
				years[y] += v
			}
			total += v
			found = true
		}
		// An explicit total wins over the leaf sum so totals are not double counted.
		if t, ok := toNumber(n[r.Totals()]); ok {
			total, found = t, true
		}
		if !found {
			return nil
		}
		e := entry{Self: true, Value: total}
		if len(years) > 0 {
			e.Years = years
		}
		return []entry{e}
	case []any:
		var total float64
		var found bool
		for _, item := range n {
			if v, ok := toNumber(item); ok {
				total += v
				found = true
			}
		}
		if !found {
			return nil
		}
		return []entry{{Self: true, Value: total}}
	}
	return nil
}

// ============================================================================
// SHARED NODE READERS
// ============================================================================

// namedCategories reads {"<category>": n | {total, years}}.
// When year > 0 the values belong to that fiscal year.
func namedCategories(obj map[string]any, r catalog.Recipe, year int) []entry {
	out := make([]entry, 0, len(obj))
	for _, name := range sortedKeys(obj) {
		var e entry
		switch v := obj[name].(type) {
		case map[string]any:
			parsed, ok := categoryNode(v, r)
			if !ok {
				continue
			}
			e = parsed
		default:
			n, ok := toNumber(v)
			if !ok {
				continue
			}
			e = entry{Value: n}
		}
		e.Category = name
		out = append(out, pinYear(e, year))
	}
	return out
}

// rankedItems reads [{name, value, years}] preserving array order.
func rankedItems(items []any, r catalog.Recipe, year int) []entry {
	out := make([]entry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := toName(obj[r.Names()])
		if name == "" {
			continue
		}
		e, ok := categoryNode(obj, r)
		if !ok {
			continue
		}
		e.Category = name
		out = append(out, pinYear(e, year))
	}
	return out
}

// yearsKeyAliases are tried after the recipe's own years key.
var yearsKeyAliases = []string{"years", "fiscal_years", "by_year", "yearly"}

// categoryNode resolves one object's value: explicit total, item value,
// or the sum of its fiscal-year map. The object may itself be the year map.
func categoryNode(obj map[string]any, r catalog.Recipe) (entry, bool) {
	var e entry
	for _, key := range append([]string{r.Years()}, yearsKeyAliases...) {
		ym, ok := obj[key].(map[string]any)
		if !ok {
			continue
		}
		if years := yearMap(ym, r); len(years) > 0 {
			e.Years = years
			break
		}
	}
	if e.Years == nil && catalog.IsYearKeyed(obj) {
		if years := yearMap(obj, r); len(years) > 0 {
			e.Years = years
		}
	}

	if v, ok := toNumber(obj[r.Totals()]); ok {
		e.Value = v
		return e, true
	}
	if v, ok := toNumber(obj[r.Values()]); ok {
		e.Value = v
		return e, true
	}
	if e.Years != nil {
		e.Value = sumYears(e.Years)
		return e, true
	}
	return e, false
}

// yearMap reads {"<year>": n | {total}} ignoring non-year keys.
func yearMap(obj map[string]any, r catalog.Recipe) map[int]float64 {
	years := make(map[int]float64)
	for key, raw := range obj {
		y, ok := catalog.ParseFiscalYear(key)
		if !ok {
			continue
		}
		if v, ok := toNumber(raw); ok {
			years[y] += v
			continue
		}
		if inner, ok := raw.(map[string]any); ok {
			if v, ok := toNumber(inner[r.Totals()]); ok {
				years[y] += v
			}
		}
	}
	return years
}

// pinYear attributes an entry read under an outer year key to that year.
func pinYear(e entry, year int) entry {
	if year > 0 {
		e.Years = map[int]float64{year: e.Value}
	}
	return e
}

func sumYears(years map[int]float64) float64 {
	var total float64
	for _, y := range sortedYears(years) {
		total += years[y]
	}
	return total
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedYears(years map[int]float64) []int {
	keys := make([]int, 0, len(years))
	for y := range years {
		keys = append(keys, y)
	}
	sort.Ints(keys)
	return keys
}
