package engine

import (
	"sort"

	"github.com/samber/lo"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// FISCAL-YEAR AGGREGATOR — field values → year-ordered totals
// ============================================================================
// Same walk as the Category Extractor, but the accumulator key is the fiscal
// year. The year filter applies while accumulating, so filtered totals never
// include out-of-window years. Shapes that nest categories under years and
// shapes that nest years under categories both land here through the walkers.
// ============================================================================

// AggregateFiscal sums a field per fiscal year across entities.
func AggregateFiscal(field string, entities []Entity, years catalog.YearRange) FiscalSeries {
	return aggregateDecoded(decodeField(field, entities), years)
}

func aggregateDecoded(df decodedField, years catalog.YearRange) FiscalSeries {
	totals := make(map[int]float64)
	for _, fv := range df.values {
		for _, e := range walkField(fv.value, df.recipe) {
			for y, v := range e.Years {
				if years.Contains(y) {
					totals[y] += v
				}
			}
		}
	}

	series := make(FiscalSeries, 0, len(totals))
	for _, y := range sortedYears(totals) {
		series = append(series, FiscalPoint{Year: y, Total: totals[y]})
	}
	return series.WithChanges()
}

// ObservedYears lists every fiscal year present in a field, unfiltered.
func ObservedYears(field string, entities []Entity) []int {
	return observedDecoded(decodeField(field, entities))
}

func observedDecoded(df decodedField) []int {
	var all []int
	for _, fv := range df.values {
		for _, e := range walkField(fv.value, df.recipe) {
			all = append(all, lo.Keys(e.Years)...)
		}
	}
	years := lo.Uniq(all)
	sort.Ints(years)
	return years
}

// WithChanges returns a copy with year-over-year deltas filled in.
// The first point has no prior year; percent change is omitted after a zero year.
func (s FiscalSeries) WithChanges() FiscalSeries {
	out := make(FiscalSeries, len(s))
	copy(out, s)
	for i := range out {
		out[i].Change = nil
		out[i].ChangePercent = nil
		if i == 0 {
			continue
		}
		prev := out[i-1].Total
		change := out[i].Total - prev
		out[i].Change = &change
		if prev != 0 {
			pct := change / prev * 100
			out[i].ChangePercent = &pct
		}
	}
	return out
}

// Changes returns the year-over-year percentage changes for points 2..n.
// Entries are nil where the prior year was zero.
func (s FiscalSeries) Changes() []*float64 {
	if len(s) < 2 {
		return nil
	}
	withChanges := s.WithChanges()
	out := make([]*float64, 0, len(s)-1)
	for _, p := range withChanges[1:] {
		out = append(out, p.ChangePercent)
	}
	return out
}

// Total sums every point.
func (s FiscalSeries) Total() float64 {
	return lo.SumBy(s, func(p FiscalPoint) float64 { return p.Total })
}
