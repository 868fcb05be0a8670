package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — Table specs, KPI card, summary card
// ============================================================================
// Every card's table is the fallback source of truth: it is built first and
// never depends on chart generation succeeding.
// ============================================================================

// rankedTable renders displayed rows. The overflow row has a blank rank.
func rankedTable(b Bucketed, meta RenderMeta) TableSpec {
	share := "% of Total"
	if b.Base == BaseDisplayed {
		share = "% of Displayed"
	}

	rows := make([][]any, 0, len(b.Items))
	for _, it := range b.Items {
		var rank any = it.Rank
		name := it.Name
		if it.IsOverflowBucket {
			rank = ""
			name = OverflowLabel
		}
		rows = append(rows, []any{rank, name, RoundTo2(it.Value), RoundTo2(it.Percent)})
	}

	return TableSpec{
		Headers: []string{"Rank", "Name", valueHeader(meta), share},
		Rows:    rows,
	}
}

// withYearColumns appends one column per fiscal year to a ranked table.
func withYearColumns(t TableSpec, b Bucketed, years []int) TableSpec {
	headers := append([]string{}, t.Headers...)
	for _, y := range years {
		headers = append(headers, yearLabel(y))
	}

	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out := append([]any{}, row...)
		for _, y := range years {
			out = append(out, RoundTo2(b.Items[i].Years[y]))
		}
		rows[i] = out
	}
	return TableSpec{Headers: headers, Rows: rows}
}

func valueHeader(meta RenderMeta) string {
	if meta.Recipe.Unit() == "currency" {
		return fmt.Sprintf("%s (%s)", meta.label(), meta.Currency)
	}
	return meta.label()
}

// ============================================================================
// KPI CARD
// ============================================================================

// RenderKPI summarizes the whole population: total, category count, top
// category and its share, and the fiscal years covered. Nil when nothing
// was extracted.
func RenderKPI(b Bucketed, series FiscalSeries, meta RenderMeta) *Card {
	if b.CategoryCount == 0 {
		return nil
	}

	summary := map[string]any{
		"total":          RoundTo2(b.Total),
		"formattedTotal": meta.format(b.Total),
		"compactTotal":   meta.compact(b.Total),
		"categories":     b.CategoryCount,
		"yearRange":      meta.Years.Label(),
	}
	rows := [][]any{
		{"Total " + meta.label(), meta.format(b.Total)},
		{"Categories", b.CategoryCount},
	}

	if ranked := b.Ranked(); len(ranked) > 0 {
		top := ranked[0]
		topShare := RoundTo2(percentOf(top.Value, b.Total))
		summary["topCategory"] = top.Name
		summary["topValue"] = RoundTo2(top.Value)
		summary["topShare"] = topShare
		rows = append(rows,
			[]any{"Top Category", top.Name},
			[]any{"Top Category Share", FormatPercent(topShare)},
		)
	}

	if len(series) > 0 {
		first, last := series[0].Year, series[len(series)-1].Year
		summary["firstFiscalYear"] = first
		summary["lastFiscalYear"] = last
		summary["fiscalYears"] = len(series)
		rows = append(rows, []any{"Fiscal Years", fiscalSpan(first, last)})
	}

	return &Card{
		ID:        cardID(meta.EntityType, meta.Field, string(CardKPI)),
		Title:     cardTitle(meta, meta.label(), "Key Figures"),
		CardKind:  CardKPI,
		TableSpec: TableSpec{Headers: []string{"Metric", "Value"}, Rows: rows},
		Summary:   summary,
	}
}

func fiscalSpan(first, last int) string {
	if first == last {
		return yearLabel(first)
	}
	return fmt.Sprintf("%s–%s", yearLabel(first), yearLabel(last))
}

// ============================================================================
// SUMMARY CARD
// ============================================================================

// RenderSummary ranks every category against the population total,
// independent of the requested display count.
func RenderSummary(categories []CategoryAggregate, meta RenderMeta) *Card {
	full, err := Bucket(categories, BucketOptions{
		DisplayCount: AllCategories,
		Base:         BaseTotal,
	})
	if err != nil || len(full.Items) == 0 {
		return nil
	}

	return &Card{
		ID:        cardID(meta.EntityType, meta.Field, string(CardSummary)),
		Title:     cardTitle(meta, "All "+meta.label(), "Summary"),
		CardKind:  CardSummary,
		TableSpec: rankedTable(full, meta),
		Summary: map[string]any{
			"total":          RoundTo2(full.Total),
			"formattedTotal": meta.format(full.Total),
			"categories":     full.CategoryCount,
			"yearRange":      meta.Years.Label(),
		},
	}
}
