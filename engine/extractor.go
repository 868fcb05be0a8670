package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// CATEGORY EXTRACTOR — field values → merged {name, value} aggregates
// ============================================================================
// Pipeline per entity: decode → walk by recipe → accumulate by category name.
// Categories merge ACROSS entities ("top resellers across the fleet"), in
// first-seen order so repeated runs produce identical output.
// ============================================================================

// Extraction is the Category Extractor's output.
type Extraction struct {
	Recipe     catalog.Recipe      `json:"recipe"`
	Categories []CategoryAggregate `json:"categories"`
	Skipped    []string            `json:"skipped,omitempty"` // entity keys whose value failed to decode
	Warnings   []string            `json:"warnings,omitempty"`
}

// Total sums every category value.
func (x Extraction) Total() float64 {
	var total float64
	for _, c := range x.Categories {
		total += c.Value
	}
	return total
}

// fieldValue is one entity's decoded value for the field being summarized.
type fieldValue struct {
	index  int // position in the input slice
	entity Entity
	value  any
}

// decodedField holds every entity's usable value plus decode failures.
type decodedField struct {
	recipe  catalog.Recipe
	values  []fieldValue
	skipped []string
}

// decodeField decodes one field across entities and resolves its recipe.
// Entities without the field are not failures; they simply contribute nothing.
func decodeField(field string, entities []Entity) decodedField {
	var out decodedField
	var samples []any

	for i, e := range entities {
		raw, ok := e.Fields[field]
		if !ok || raw == nil {
			continue
		}
		v, err := decodeFieldValue(raw)
		if err != nil {
			out.skipped = append(out.skipped, e.Key())
			continue
		}
		if _, derived := v.(normalizedField); !derived && len(samples) < maxDiscoverySamples {
			samples = append(samples, v)
		}
		out.values = append(out.values, fieldValue{index: i, entity: e, value: v})
	}

	out.recipe = catalog.Resolve(field, samples...)
	return out
}

// maxDiscoverySamples bounds how many decoded values an unknown field's
// recipe is discovered from.
const maxDiscoverySamples = 25

// ExtractCategories summarizes one field across entities.
// An empty result is valid: the field is absent or malformed everywhere.
func ExtractCategories(field string, entities []Entity) Extraction {
	return extractDecoded(decodeField(field, entities))
}

func extractDecoded(df decodedField) Extraction {
	x := Extraction{
		Recipe:     df.recipe,
		Categories: []CategoryAggregate{},
		Skipped:    df.skipped,
	}
	for _, key := range df.skipped {
		x.Warnings = append(x.Warnings, fmt.Sprintf("%s: could not decode %s; contribution skipped", key, df.recipe.Field))
	}

	acc := newCategoryAccumulator()
	var unread []string
	for _, fv := range df.values {
		entries := walkField(fv.value, df.recipe)
		if len(entries) == 0 && !isEmptyValue(fv.value) {
			unread = append(unread, fmt.Sprintf("%s: %s has no recognizable categories", fv.entity.Key(), df.recipe.Field))
		}
		for _, e := range entries {
			if e.Self {
				acc.addSelf(fv.entity, e)
			} else {
				acc.add(e.Category, e)
			}
		}
	}

	x.Categories = acc.result()
	x.Warnings = append(x.Warnings, unread...)
	x.Warnings = append(x.Warnings, acc.warnings...)
	return x
}

// isEmptyValue reports values that legitimately contribute nothing.
func isEmptyValue(v any) bool {
	switch n := v.(type) {
	case map[string]any:
		return len(n) == 0
	case []any:
		return len(n) == 0
	case normalizedField:
		return true
	}
	return false
}

// ============================================================================
// ACCUMULATOR
// ============================================================================

type categoryAccumulator struct {
	order    []string
	byKey    map[string]*CategoryAggregate
	selfName map[string]string   // accumulator key → entity display name
	selfID   map[string]string   // accumulator key → entity id
	nameKeys map[string][]string // display name → distinct self keys
	warnings []string
}

func newCategoryAccumulator() *categoryAccumulator {
	return &categoryAccumulator{
		byKey:    make(map[string]*CategoryAggregate),
		selfName: make(map[string]string),
		selfID:   make(map[string]string),
		nameKeys: make(map[string][]string),
	}
}

func (a *categoryAccumulator) add(name string, e entry) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	a.merge(name, name, e)
}

// addSelf keys the entity's own total by identity, not display name, so two
// different entities that share a name are never silently merged.
func (a *categoryAccumulator) addSelf(ent Entity, e entry) {
	key := "\x00entity:" + ent.Key()
	if _, seen := a.selfName[key]; !seen {
		a.selfName[key] = ent.Name
		a.selfID[key] = ent.Key()
		a.nameKeys[ent.Name] = append(a.nameKeys[ent.Name], key)
	}
	a.merge(key, ent.Name, e)
}

func (a *categoryAccumulator) merge(key, name string, e entry) {
	agg, ok := a.byKey[key]
	if !ok {
		agg = &CategoryAggregate{Name: name}
		a.byKey[key] = agg
		a.order = append(a.order, key)
	}
	agg.Value += e.Value
	if len(e.Years) > 0 {
		if agg.Years == nil {
			agg.Years = make(map[int]float64, len(e.Years))
		}
		for y, v := range e.Years {
			agg.Years[y] += v
		}
	}
}

func (a *categoryAccumulator) result() []CategoryAggregate {
	for name, keys := range a.nameKeys {
		if len(keys) < 2 {
			continue
		}
		a.warnings = append(a.warnings, fmt.Sprintf("%d entities share the name %q; labelled by id", len(keys), name))
		for _, key := range keys {
			a.byKey[key].Name = fmt.Sprintf("%s (%s)", name, a.selfID[key])
		}
	}

	out := make([]CategoryAggregate, 0, len(a.order))
	for _, key := range a.order {
		agg := *a.byKey[key]
		if agg.Value < 0 {
			a.warnings = append(a.warnings, fmt.Sprintf("%s: negative total %.2f clamped to 0", agg.Name, agg.Value))
			agg.Value = 0
		}
		out = append(out, agg)
	}
	sort.Strings(a.warnings)
	return out
}
