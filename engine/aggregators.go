package engine

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ============================================================================
// AGGREGATORS — Top-N bucketing, percentage bases, formatting
// ============================================================================
// Pipeline: sort (stable, descending) → limit → overflow bucket → percentages.
// ============================================================================

// OverflowLabel is the fixed name of the synthetic remainder row.
const OverflowLabel = "All Other"

// BucketOptions configures Top-N selection.
type BucketOptions struct {
	DisplayCount    DisplayCount
	IncludeOverflow bool
	Base            PercentageBase
}

// BucketedItem is one displayed row with its share of the chosen base.
type BucketedItem struct {
	Name             string          `json:"name"`
	Value            float64         `json:"value"`
	Percent          float64         `json:"percent"`
	Rank             int             `json:"rank,omitempty"` // 1-based; 0 for the overflow bucket
	IsOverflowBucket bool            `json:"isOverflowBucket,omitempty"`
	Years            map[int]float64 `json:"years,omitempty"`
}

// Bucketed is the Top-N engine's output.
type Bucketed struct {
	Items          []BucketedItem `json:"items"`
	Total          float64        `json:"total"`          // every input category
	DisplayedTotal float64        `json:"displayedTotal"` // displayed rows, overflow included
	Base           PercentageBase `json:"base"`
	BaseValue      float64        `json:"baseValue"`
	CategoryCount  int            `json:"categoryCount"` // rankable inputs
	OverflowCount  int            `json:"overflowCount"` // categories folded into the overflow bucket
}

// Overflow returns the overflow row, if any.
func (b Bucketed) Overflow() (BucketedItem, bool) {
	return lo.Find(b.Items, func(it BucketedItem) bool { return it.IsOverflowBucket })
}

// Ranked returns the rows that carry a rank.
func (b Bucketed) Ranked() []BucketedItem {
	return lo.Filter(b.Items, func(it BucketedItem, _ int) bool { return !it.IsOverflowBucket })
}

// Bucket sorts categories descending, keeps the top DisplayCount and, when
// asked, folds the remainder into one "All Other" row. Inputs already flagged
// as overflow never compete for a rank; their value joins the new remainder.
func Bucket(categories []CategoryAggregate, opts BucketOptions) (Bucketed, error) {
	base, err := ParsePercentageBase(string(opts.Base))
	if err != nil {
		return Bucketed{}, err
	}

	var rankable []CategoryAggregate
	var carried CategoryAggregate
	for _, c := range categories {
		if c.IsOverflowBucket {
			carried.Value += c.Value
			carried.Years = addYears(carried.Years, c.Years)
			continue
		}
		rankable = append(rankable, c)
	}

	// Stable: ties keep enumeration order.
	sort.SliceStable(rankable, func(i, j int) bool { return rankable[i].Value > rankable[j].Value })

	total := carried.Value
	for _, c := range rankable {
		total += c.Value
	}

	n := len(rankable)
	if !opts.DisplayCount.IsAll() && int(opts.DisplayCount) < n {
		n = int(opts.DisplayCount)
	}

	out := Bucketed{
		Base:          base,
		Total:         total,
		CategoryCount: len(rankable),
		Items:         make([]BucketedItem, 0, n+1),
	}

	var displayed float64
	for i, c := range rankable[:n] {
		out.Items = append(out.Items, BucketedItem{
			Name:  c.Name,
			Value: c.Value,
			Rank:  i + 1,
			Years: c.Years,
		})
		displayed += c.Value
	}

	remainder := total - displayed
	if opts.IncludeOverflow && remainder > 0 && len(categories) > n {
		var years map[int]float64
		for _, c := range rankable[n:] {
			years = addYears(years, c.Years)
		}
		years = addYears(years, carried.Years)
		out.Items = append(out.Items, BucketedItem{
			Name:             OverflowLabel,
			Value:            remainder,
			IsOverflowBucket: true,
			Years:            years,
		})
		out.OverflowCount = len(rankable) - n
		displayed += remainder
	}
	out.DisplayedTotal = displayed

	switch base {
	case BaseTotal:
		out.BaseValue = total
	case BaseDisplayed:
		out.BaseValue = displayed
	}
	for i := range out.Items {
		out.Items[i].Percent = percentOf(out.Items[i].Value, out.BaseValue)
	}
	return out, nil
}

func percentOf(v, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return v / base * 100
}

func addYears(dst, src map[int]float64) map[int]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[int]float64, len(src))
	}
	for y, v := range src {
		dst[y] += v
	}
	return dst
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatCurrency formats an amount with a currency prefix and comma separators.
func FormatCurrency(amount float64, symbol string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	negative := d.IsNegative()
	if negative {
		d = d.Neg()
	}

	s := d.StringFixed(2)
	intPart, decPart := s[:len(s)-3], s[len(s)-2:]
	result := symbol + groupThousands(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// FormatCompactCurrency renders large amounts as "$1.2M", "$3.4B".
func FormatCompactCurrency(amount float64, symbol string) string {
	abs := amount
	if abs < 0 {
		abs = -abs
	}
	units := []struct {
		div    float64
		suffix string
	}{
		{1e12, "T"}, {1e9, "B"}, {1e6, "M"}, {1e3, "K"},
	}
	for _, u := range units {
		if abs >= u.div {
			v := decimal.NewFromFloat(amount / u.div).Round(1)
			return signPrefix(v, symbol) + v.Abs().StringFixed(1) + u.suffix
		}
	}
	return FormatCurrency(amount, symbol)
}

func signPrefix(v decimal.Decimal, symbol string) string {
	if v.IsNegative() {
		return "-" + symbol
	}
	return symbol
}

// FormatCount formats a count with comma separators, rounding to whole units.
func FormatCount(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)
	s := d.Abs().String()
	if d.IsNegative() {
		return "-" + groupThousands(s)
	}
	return groupThousands(s)
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).Round(1).StringFixed(1) + "%"
}

// FormatSignedPercent renders "+50.0%" / "-12.5%".
func FormatSignedPercent(p float64) string {
	s := FormatPercent(p)
	if p > 0 {
		return "+" + s
	}
	return s
}

// FormatValue formats by unit: "currency" or "count".
func FormatValue(v float64, unit, symbol string) string {
	if unit == "currency" {
		return FormatCurrency(v, symbol)
	}
	return FormatCount(v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func groupThousands(intStr string) string {
	if len(intStr) <= 3 {
		return intStr
	}
	var parts []string
	for len(intStr) > 3 {
		parts = append([]string{intStr[len(intStr)-3:]}, parts...)
		intStr = intStr[:len(intStr)-3]
	}
	parts = append([]string{intStr}, parts...)
	return strings.Join(parts, ",")
}
