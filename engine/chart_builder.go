package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// CHART BUILDER — Distribution renderers (bucketed categories → Card)
// ============================================================================
// One parameterized renderer; the style table below is the only per-kind
// difference. Every card carries the equivalent table.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// mutedColor marks the "All Other" row on every chart.
const mutedColor = "#9CA3AF"

// RenderMeta is the display context shared by every renderer for one request.
type RenderMeta struct {
	EntityType EntityType
	Field      string
	Recipe     catalog.Recipe
	Years      catalog.YearRange
	Currency   string
	Palette    []string
}

func (m RenderMeta) label() string {
	if m.Recipe.Label != "" {
		return m.Recipe.Label
	}
	return catalog.DisplayName(m.Field)
}

func (m RenderMeta) color(i int) string {
	palette := m.Palette
	if len(palette) == 0 {
		palette = defaultColors
	}
	return palette[i%len(palette)]
}

func (m RenderMeta) format(v float64) string {
	return FormatValue(v, m.Recipe.Unit(), m.Currency)
}

// compact renders money as "$2.5M"; counts keep their full grouping.
func (m RenderMeta) compact(v float64) string {
	if m.Recipe.Unit() == "currency" {
		return FormatCompactCurrency(v, m.Currency)
	}
	return FormatCount(v)
}

// cardNamespace scopes card ids so they are stable across regeneration.
var cardNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://spektr.org/cardbuffet/cards"))

// cardID is derived from (entity type, field, chart kind) only.
func cardID(entityType EntityType, field, kind string) string {
	key := fmt.Sprintf("%s/%s/%s", entityType, catalog.Normalize(field), kind)
	return uuid.NewSHA1(cardNamespace, []byte(key)).String()
}

// cardTitle joins the heading parts and always ends with the year range.
func cardTitle(meta RenderMeta, parts ...string) string {
	parts = append(parts, meta.Years.Label())
	return strings.Join(parts, " · ")
}

// ============================================================================
// DISTRIBUTION STYLES
// ============================================================================

type distributionStyle struct {
	heading        string
	cardKind       CardKind
	orientation    string
	fill           bool
	perPointColors bool // one color per label instead of one per series
	stackedByYear  bool // one series per fiscal year
}

var distributionStyles = map[ChartKind]distributionStyle{
	ChartBar:           {heading: "Ranking", cardKind: CardChart, orientation: "vertical"},
	ChartBarHorizontal: {heading: "Ranking", cardKind: CardChart, orientation: "horizontal"},
	ChartPie:           {heading: "Share", cardKind: CardChart, perPointColors: true},
	ChartDoughnut:      {heading: "Share", cardKind: CardChart, perPointColors: true},
	ChartFunnel:        {heading: "Leaderboard", cardKind: CardFunnel, perPointColors: true},
	ChartStacked:       {heading: "By Fiscal Year", cardKind: CardChart, orientation: "vertical", stackedByYear: true},
	ChartArea:          {heading: "Distribution", cardKind: CardChart, fill: true},
	ChartLine:          {heading: "Distribution", cardKind: CardChart},
}

// RenderDistribution renders one distribution-family card. It returns nil for
// empty input, for a non-distribution kind, and for "stacked" when no category
// carries a fiscal-year breakdown.
func RenderDistribution(kind ChartKind, b Bucketed, meta RenderMeta) *Card {
	style, ok := distributionStyles[kind]
	if !ok || len(b.Items) == 0 {
		return nil
	}

	labels := make([]string, len(b.Items))
	colors := make([]string, len(b.Items))
	for i, it := range b.Items {
		labels[i] = it.Name
		switch {
		case it.IsOverflowBucket:
			labels[i] = OverflowLabel
			colors[i] = mutedColor
		case style.perPointColors:
			colors[i] = meta.color(i)
		default:
			colors[i] = meta.color(0)
		}
	}

	spec := &ChartSpec{
		Labels:      labels,
		Colors:      colors,
		Orientation: style.orientation,
		Fill:        style.fill,
	}

	table := rankedTable(b, meta)
	if style.stackedByYear {
		series, years := yearSeries(b, meta)
		if len(series) == 0 {
			return nil
		}
		spec.Series = series
		spec.Stacked = true
		table = withYearColumns(table, b, years)
	} else {
		values := make([]float64, len(b.Items))
		for i, it := range b.Items {
			values[i] = RoundTo2(it.Value)
		}
		spec.Series = []ChartSeries{{Label: meta.label(), Values: values, Color: meta.color(0)}}
	}

	return &Card{
		ID:        cardID(meta.EntityType, meta.Field, string(kind)),
		Title:     cardTitle(meta, distributionHeading(b, meta), style.heading),
		CardKind:  style.cardKind,
		ChartKind: kind,
		ChartSpec: spec,
		TableSpec: table,
		Summary:   distributionSummary(b, meta),
	}
}

// distributionHeading renders "Top 10 Resellers" or "All Resellers".
func distributionHeading(b Bucketed, meta RenderMeta) string {
	shown := len(b.Ranked())
	if shown < b.CategoryCount {
		return fmt.Sprintf("Top %d %s", shown, meta.label())
	}
	return "All " + meta.label()
}

// yearSeries builds one series per fiscal year across the displayed rows.
func yearSeries(b Bucketed, meta RenderMeta) ([]ChartSeries, []int) {
	all := make(map[int]float64)
	for _, it := range b.Items {
		for y, v := range it.Years {
			all[y] += v
		}
	}
	if len(all) == 0 {
		return nil, nil
	}

	years := sortedYears(all)
	series := make([]ChartSeries, len(years))
	for i, y := range years {
		values := make([]float64, len(b.Items))
		for j, it := range b.Items {
			values[j] = RoundTo2(it.Years[y])
		}
		series[i] = ChartSeries{Label: yearLabel(y), Values: values, Color: meta.color(i)}
	}
	return series, years
}

func distributionSummary(b Bucketed, meta RenderMeta) map[string]any {
	summary := map[string]any{
		"total":          RoundTo2(b.Total),
		"displayedTotal": RoundTo2(b.DisplayedTotal),
		"formattedTotal": meta.format(b.Total),
		"categories":     b.CategoryCount,
		"shown":          len(b.Ranked()),
		"percentageBase": string(b.Base),
		"yearRange":      meta.Years.Label(),
	}
	if o, ok := b.Overflow(); ok {
		summary["overflowValue"] = RoundTo2(o.Value)
		summary["overflowCount"] = b.OverflowCount
	}
	return summary
}

func yearLabel(y int) string {
	return fmt.Sprintf("FY%d", y)
}
