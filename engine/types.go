package engine

// ============================================================================
// CARDBUFFET ENGINE TYPES
// ============================================================================
// Entity       — one business record with ~20 independently-shaped fields
// CategoryAggregate / FiscalSeries — normalized intermediates
// Card / Result — render-ready output consumed by chart and export layers
// ============================================================================

// ============================================================================
// ENTITY — Raw input record (owned by the Entity Store)
// ============================================================================

// EntityType is the closed set of record kinds the engine summarizes.
type EntityType string

const (
	EntityAgency EntityType = "agency"
	EntityVendor EntityType = "vendor"
	EntityOEM    EntityType = "oem"
)

// EntityTypes lists every valid entity type.
var EntityTypes = []EntityType{EntityAgency, EntityVendor, EntityOEM}

// Valid reports whether t is one of the supported entity types.
func (t EntityType) Valid() bool {
	for _, et := range EntityTypes {
		if t == et {
			return true
		}
	}
	return false
}

// Entity is one organizational record.
// Fields holds decoded JSON (maps, slices, float64) or serialized JSON strings;
// the shape of each value depends on its field identifier.
type Entity struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           EntityType     `json:"type"`
	Department     string         `json:"department,omitempty"`
	Classification string         `json:"classification,omitempty"`
	Fields         map[string]any `json:"fields"`
}

// Key returns the stable identity of the entity, falling back to its name.
func (e Entity) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Name
}

// ============================================================================
// CATEGORY AGGREGATE — Normalized extraction unit
// ============================================================================

// CategoryAggregate is one named category summed across entities.
type CategoryAggregate struct {
	Name             string          `json:"name"`
	Value            float64         `json:"value"`
	IsOverflowBucket bool            `json:"isOverflowBucket,omitempty"`
	Years            map[int]float64 `json:"years,omitempty"` // per-category fiscal breakdown, when the shape has one
}

// ============================================================================
// FISCAL SERIES — Year-ordered totals
// ============================================================================

// FiscalPoint is one fiscal year's total. Change fields are nil on the first
// point and ChangePercent is nil when the prior year was zero.
type FiscalPoint struct {
	Year          int      `json:"year"`
	Total         float64  `json:"total"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"changePercent,omitempty"`
}

// FiscalSeries is sorted ascending by year.
type FiscalSeries []FiscalPoint

// MinTrendPoints is the smallest series that can show change over time.
const MinTrendPoints = 2

// TrendEligible reports whether the series can back a trend card.
func (s FiscalSeries) TrendEligible() bool {
	return len(s) >= MinTrendPoints
}

// Years returns the series' years in order.
func (s FiscalSeries) Years() []int {
	out := make([]int, len(s))
	for i, p := range s {
		out[i] = p.Year
	}
	return out
}

// ============================================================================
// CARD — Render-ready output unit
// ============================================================================

// CardKind classifies a card for the rendering layer.
type CardKind string

const (
	CardChart   CardKind = "chart"
	CardFunnel  CardKind = "funnel"
	CardKPI     CardKind = "kpi"
	CardSummary CardKind = "summary"
)

// Card is a self-contained view: an optional chart description plus the
// equivalent table. TableSpec is always populated.
type Card struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CardKind  CardKind       `json:"cardKind"`
	ChartKind ChartKind      `json:"chartKind,omitempty"`
	ChartSpec *ChartSpec     `json:"chartSpec,omitempty"`
	TableSpec TableSpec      `json:"tableSpec"`
	Summary   map[string]any `json:"summary,omitempty"` // values are string or number
}

// ChartSpec is a declarative chart description for an external renderer.
type ChartSpec struct {
	Labels      []string      `json:"labels"`
	Series      []ChartSeries `json:"series"`
	Colors      []string      `json:"colors,omitempty"` // per-label colors; the overflow label is always muted
	Orientation string        `json:"orientation,omitempty"`
	Stacked     bool          `json:"stacked,omitempty"`
	Fill        bool          `json:"fill,omitempty"`
}

// ChartSeries represents one data series.
type ChartSeries struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Color  string    `json:"color,omitempty"`
}

// TableSpec is the tabular equivalent of a card. Cells are string or number.
type TableSpec struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// ============================================================================
// RESULT — Buffet envelope
// ============================================================================

// Result is the engine's output for one (entity type, field) request.
type Result struct {
	Success     bool        `json:"success"`
	EntityType  EntityType  `json:"entityType"`
	Field       string      `json:"field"`
	Cards       []Card      `json:"cards"`
	FiscalYears []int       `json:"fiscalYears"` // observed before any year filter
	YearRange   string      `json:"yearRange"`
	Warnings    []string    `json:"warnings,omitempty"`
	Errors      []string    `json:"errors,omitempty"`
	Diagnostic  *Diagnostic `json:"diagnostic,omitempty"`
}

// Diagnostic describes an internal failure converted at the buffet boundary.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}
