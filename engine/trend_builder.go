package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// TREND BUILDER — Fiscal series → trend cards
// ============================================================================
// A series with fewer than two points cannot show change: the renderer
// returns nil, which is "insufficient data", not an error.
// ============================================================================

type trendStyle struct {
	heading string
	fill    bool
	bars    bool
}

var trendStyles = map[ChartKind]trendStyle{
	ChartFiscalLine: {heading: "Fiscal Trend"},
	ChartFiscalArea: {heading: "Fiscal Trend", fill: true},
	ChartFiscalBar:  {heading: "Fiscal Totals", bars: true},
}

// RenderTrend renders one trend-family card.
func RenderTrend(kind ChartKind, series FiscalSeries, meta RenderMeta) *Card {
	style, ok := trendStyles[kind]
	if !ok || !series.TrendEligible() {
		return nil
	}
	series = series.WithChanges()

	labels := make([]string, len(series))
	values := make([]float64, len(series))
	rows := make([][]any, len(series))
	for i, p := range series {
		labels[i] = yearLabel(p.Year)
		values[i] = RoundTo2(p.Total)

		var change, pct any = "", ""
		if p.Change != nil {
			change = RoundTo2(*p.Change)
		}
		if p.ChangePercent != nil {
			pct = RoundTo2(*p.ChangePercent)
		}
		rows[i] = []any{labels[i], values[i], change, pct}
	}

	spec := &ChartSpec{
		Labels: labels,
		Series: []ChartSeries{{Label: meta.label(), Values: values, Color: meta.color(0)}},
		Fill:   style.fill,
	}
	if style.bars {
		spec.Orientation = "vertical"
	}

	return &Card{
		ID:        cardID(meta.EntityType, meta.Field, string(kind)),
		Title:     cardTitle(meta, meta.label(), style.heading),
		CardKind:  CardChart,
		ChartKind: kind,
		ChartSpec: spec,
		TableSpec: TableSpec{
			Headers: []string{"Fiscal Year", "Total", "YoY Change", "YoY %"},
			Rows:    rows,
		},
		Summary: trendSummary(series, meta),
	}
}

// ============================================================================
// GROWTH SUMMARY
// ============================================================================

func trendSummary(series FiscalSeries, meta RenderMeta) map[string]any {
	first, last := series[0], series[len(series)-1]
	change := last.Total - first.Total

	summary := map[string]any{
		"firstFiscalYear": first.Year,
		"lastFiscalYear":  last.Year,
		"points":          len(series),
		"total":           RoundTo2(series.Total()),
		"changeAmount":    RoundTo2(change),
		"direction":       "unchanged",
		"display":         "→ No change",
	}

	if first.Total == 0 {
		summary["direction"] = "insufficient data"
		summary["display"] = fmt.Sprintf("%s in %s", meta.format(last.Total), yearLabel(last.Year))
	} else {
		pct := change / first.Total * 100
		summary["changePercent"] = RoundTo2(pct)
		summary["formattedChangePercent"] = FormatSignedPercent(pct)
		switch {
		case pct > 0.5:
			summary["direction"] = "increased"
			summary["display"] = "↑ " + FormatPercent(math.Abs(pct))
		case pct < -0.5:
			summary["direction"] = "decreased"
			summary["display"] = "↓ " + FormatPercent(math.Abs(pct))
		}
	}

	peak := first
	for _, p := range series[1:] {
		if p.Total > peak.Total {
			peak = p
		}
	}
	summary["peakFiscalYear"] = peak.Year
	summary["peakTotal"] = RoundTo2(peak.Total)
	return summary
}
