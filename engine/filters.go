package engine

import (
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// FILTER PIPELINE — Population filters and fiscal-year re-derivation
// ============================================================================
// Single pass over entities: a record passes when it matches ALL active
// filters. Values within one filter are OR-combined, case-insensitive.
// Empty filter = no restriction.
// ============================================================================

// FilterEntities applies selected-name, department and classification filters.
func FilterEntities(entities []Entity, opts ViewOptions) []Entity {
	names := toLowerSet(opts.SelectedEntityNames)
	depts := toLowerSet(opts.DepartmentFilter)
	classes := toLowerSet(opts.ClassificationFilter)

	if len(names) == 0 && len(depts) == 0 && len(classes) == 0 {
		return entities
	}

	return lo.Filter(entities, func(e Entity, _ int) bool {
		if len(names) > 0 && !names[strings.ToLower(e.Name)] && !names[strings.ToLower(e.ID)] {
			return false
		}
		if len(depts) > 0 && !depts[strings.ToLower(e.Department)] {
			return false
		}
		if len(classes) > 0 && !classes[strings.ToLower(e.Classification)] {
			return false
		}
		return true
	})
}

// ApplyYearFilter returns derived copies of entities whose field value has
// been re-summed over the selected fiscal years only. Entities are never
// mutated. Categories without any fiscal breakdown contribute zero under an
// active filter: nothing says which years their totals belong to.
//
// The derived field value is an already-walked form meant for
// ExtractCategories and AggregateFiscal on the same field. It marshals as a
// list of {name, value, fiscal_year} entries and is not a raw profile value;
// do not persist it or feed it back through a store.
func ApplyYearFilter(field string, entities []Entity, years catalog.YearRange) []Entity {
	if years.IsAll() {
		return entities
	}
	df := decodeField(field, entities)
	return deriveYearFiltered(field, entities, df, years)
}

func deriveYearFiltered(field string, entities []Entity, df decodedField, years catalog.YearRange) []Entity {
	if years.IsAll() {
		return entities
	}

	filtered := make(map[int]normalizedField, len(df.values))
	for _, fv := range df.values {
		filtered[fv.index] = normalizedField{
			entries: filterEntries(walkField(fv.value, df.recipe), years),
		}
	}

	out := make([]Entity, len(entities))
	for i, e := range entities {
		nf, ok := filtered[i]
		if !ok {
			// Absent or undecodable values are carried through unchanged.
			out[i] = e
			continue
		}
		derived := e
		derived.Fields = make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			derived.Fields[k] = v
		}
		derived.Fields[field] = nf
		out[i] = derived
	}
	return out
}

// filterEntries recomputes each entry's value from in-range years.
func filterEntries(entries []entry, years catalog.YearRange) []entry {
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		kept := make(map[int]float64, len(e.Years))
		var total float64
		for _, y := range sortedYears(e.Years) {
			if years.Contains(y) {
				kept[y] = e.Years[y]
				total += e.Years[y]
			}
		}
		e.Value = total
		e.Years = kept
		out = append(out, e)
	}
	return out
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			set[strings.ToLower(item)] = true
		}
	}
	return set
}
