// Package cardbuffet turns one field of a population of procurement entity
// profiles (agencies, vendors, OEMs) into a card buffet: a KPI headline,
// distribution charts chosen for the field and category count, fiscal-year
// trends and a summary table, each card carrying an equivalent table.
//
// Usage:
//
//	import "github.com/spektr-org/cardbuffet"
//
//	opts := cardbuffet.NewViewOptions(cardbuffet.BaseTotal)
//	opts.DisplayCount = 5
//	result := cardbuffet.Generate(cardbuffet.EntityVendor, "top_resellers", entities, opts)
//
// Generate never returns a Go error. Misuse (unknown entity type, missing
// percentage base) yields Result.Success == false; bad records are skipped
// with a warning. The engine never calls any external service.
//
// Entity stores (JSON, CSV, Postgres) live in the store package and the HTTP
// surface in the server package.
package cardbuffet

import (
	"github.com/spektr-org/cardbuffet/engine"
)

type (
	Entity         = engine.Entity
	EntityType     = engine.EntityType
	ViewOptions    = engine.ViewOptions
	PercentageBase = engine.PercentageBase
	DisplayCount   = engine.DisplayCount
	Result         = engine.Result
	Card           = engine.Card
	Option         = engine.Option
)

const (
	EntityAgency = engine.EntityAgency
	EntityVendor = engine.EntityVendor
	EntityOEM    = engine.EntityOEM

	BaseTotal     = engine.BaseTotal
	BaseDisplayed = engine.BaseDisplayed

	AllCategories = engine.AllCategories
)

// Generate builds the card buffet for field across entities of entityType.
func Generate(entityType EntityType, field string, entities []Entity, opts ViewOptions, options ...Option) *Result {
	return engine.Generate(entityType, field, entities, opts, options...)
}

// FiscalYears lists the fiscal years present in field, ignoring any filter.
func FiscalYears(entityType EntityType, field string, entities []Entity) ([]int, error) {
	return engine.FiscalYears(entityType, field, entities)
}

// NewViewOptions returns the default view options for base.
func NewViewOptions(base PercentageBase) ViewOptions {
	return engine.NewViewOptions(base)
}
