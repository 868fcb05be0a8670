package engine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// EXECUTOR — Buffet generation for one (entity type, field) request
// ============================================================================
// Entry point: Generate(entityType, field, entities, opts, options...)
//
// Pipeline:
//   1. Validate caller input → Result{Success: false, Errors} on misuse
//   2. Filter population (type, names, department, classification)
//   3. Observe fiscal years on the unfiltered population
//   4. Apply year filter → derived entities
//   5. Extract categories + aggregate fiscal series
//   6. Bucket → select chart kinds → render → drop nil cards
//
// Data-quality problems never fail the call. Anything that panics below this
// boundary becomes an empty card list plus a Diagnostic.
// ============================================================================

// Generate builds the card buffet for one field of one entity type.
func Generate(entityType EntityType, field string, entities []Entity, opts ViewOptions, options ...Option) (result *Result) {
	cfg := applyOptions(options)
	logger := cfg.Logger.With().Str("entity_type", string(entityType)).Str("field", field).Logger()

	result = &Result{
		Success:     false,
		EntityType:  entityType,
		Field:       field,
		Cards:       []Card{},
		FiscalYears: []int{},
		YearRange:   opts.YearFilter.String(),
	}

	if errs := validateRequest(entityType, field, opts); len(errs) > 0 {
		for _, err := range errs {
			result.Errors = append(result.Errors, err.Error())
		}
		logger.Warn().Strs("errors", result.Errors).Msg("buffet request rejected")
		return result
	}
	result.Success = true

	stage := "filter"
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("stage", stage).Interface("panic", r).Msg("buffet generation recovered")
			result.Cards = []Card{}
			result.Diagnostic = &Diagnostic{Stage: stage, Message: fmt.Sprint(r)}
		}
	}()

	// 1. Population
	typed := OfType(entities, entityType)
	population := FilterEntities(typed, opts)
	key := fieldKey(field, population)
	result.Field = key
	logger.Debug().Int("entities", len(entities)).Int("typed", len(typed)).Int("population", len(population)).Msg("population filtered")

	// 2. Observed years, unfiltered
	stage = "decode"
	unfiltered := decodeField(key, population)
	if years := observedDecoded(unfiltered); len(years) > 0 {
		result.FiscalYears = years
	}

	// 3. Year filter
	stage = "year_filter"
	working := unfiltered
	if !opts.YearFilter.IsAll() {
		derived := deriveYearFiltered(key, population, unfiltered, opts.YearFilter)
		working = decodeField(key, derived)
		working.recipe = unfiltered.recipe
	}

	// 4. Extraction + fiscal series
	stage = "extract"
	extraction := extractDecoded(working)
	result.Warnings = append(result.Warnings, extraction.Warnings...)
	series := aggregateDecoded(working, opts.YearFilter)
	if len(extraction.Skipped) > 0 {
		logger.Warn().Int("skipped", len(extraction.Skipped)).Msg("field values could not be decoded")
	}
	logger.Debug().
		Str("shape", string(extraction.Recipe.Shape)).
		Bool("discovered", extraction.Recipe.Discovered).
		Int("categories", len(extraction.Categories)).
		Int("fiscal_points", len(series)).
		Msg("field extracted")

	if len(extraction.Categories) == 0 {
		return result
	}

	// 5. Bucketing
	stage = "bucket"
	bucketed, err := Bucket(extraction.Categories, BucketOptions{
		DisplayCount:    opts.DisplayCount,
		IncludeOverflow: opts.IncludeOverflowBucket,
		Base:            opts.PercentageBase,
	})
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	// 6. Selection + rendering
	stage = "render"
	meta := RenderMeta{
		EntityType: entityType,
		Field:      key,
		Recipe:     extraction.Recipe,
		Years:      opts.YearFilter,
		Currency:   lo.Ternary(opts.Currency != "", opts.Currency, cfg.Currency),
		Palette:    cfg.Palette,
	}
	selection := cfg.Selector.Select(entityType, key, int(opts.DisplayCount))

	cards := []*Card{RenderKPI(bucketed, series, meta)}
	for _, kind := range selection.Kinds {
		if kind.IsTrend() {
			cards = append(cards, RenderTrend(kind, series, meta))
		} else {
			cards = append(cards, RenderDistribution(kind, bucketed, meta))
		}
	}
	cards = append(cards, RenderSummary(extraction.Categories, meta))

	for _, c := range cards {
		if c != nil {
			result.Cards = append(result.Cards, *c)
		}
	}

	logger.Info().
		Str("bucket", selection.Bucket).
		Str("selection", selection.Source).
		Int("cards", len(result.Cards)).
		Msg("buffet generated")
	return result
}

// FiscalYears lists the fiscal years a field carries for one entity type.
func FiscalYears(entityType EntityType, field string, entities []Entity) ([]int, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}
	typed := OfType(entities, entityType)
	years := ObservedYears(fieldKey(field, typed), typed)
	if years == nil {
		years = []int{}
	}
	return years, nil
}

// OfType keeps entities of one type. Untyped entities are kept: the store
// that produced them was already scoped to a type.
func OfType(entities []Entity, entityType EntityType) []Entity {
	return lo.Filter(entities, func(e Entity, _ int) bool {
		return e.Type == "" || e.Type == entityType
	})
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func validateRequest(entityType EntityType, field string, opts ViewOptions) []error {
	var errs []error
	if !entityType.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType))
	}
	if strings.TrimSpace(field) == "" {
		errs = append(errs, ErrFieldRequired)
	}
	if err := opts.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// fieldKey picks the key entities actually use for field: the identifier as
// given when present, otherwise its canonical form.
func fieldKey(field string, entities []Entity) string {
	for _, e := range entities {
		if _, ok := e.Fields[field]; ok {
			return field
		}
	}
	return catalog.Normalize(field)
}
