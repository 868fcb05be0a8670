package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================================
// FISCAL YEARS — Year-key parsing and year-range filters
// ============================================================================
// Year-keyed maps arrive with inconsistent keys: "2023", "FY2023", "FY 23",
// "fy-2024", even "2023.0" when a spreadsheet round-tripped the data.
// All of them normalize to a four-digit int.
// ============================================================================

var yearPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^(\d{4})$`), "yyyy"},                      // 2024
	{regexp.MustCompile(`^(\d{4})\.0+$`), "yyyy.0"},                // 2024.0
	{regexp.MustCompile(`(?i)^fy[\s\-_]?(\d{4})$`), "FYyyyy"},      // FY2024, FY 2024, fy-2024
	{regexp.MustCompile(`(?i)^fy[\s\-_]?(\d{2})$`), "FYyy"},        // FY24
}

const (
	minFiscalYear = 1900
	maxFiscalYear = 2199
)

// ParseFiscalYear converts a fiscal-year map key into a year.
// Returns false for anything that is not recognizably a year.
func ParseFiscalYear(key string) (int, bool) {
	key = strings.TrimSpace(key)
	for _, p := range yearPatterns {
		m := p.re.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		if p.format == "FYyy" {
			n += 2000
		}
		if n < minFiscalYear || n > maxFiscalYear {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ============================================================================
// YEAR RANGE
// ============================================================================

// YearRange is an inclusive fiscal-year window. The zero value means all years.
type YearRange struct {
	From int
	To   int
}

// AllYears is the unrestricted range.
var AllYears = YearRange{}

// SingleYear returns a range covering one fiscal year.
func SingleYear(year int) YearRange {
	return YearRange{From: year, To: year}
}

// IsAll reports whether the range places no restriction on years.
func (r YearRange) IsAll() bool {
	return r.From == 0 && r.To == 0
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	if r.From != 0 && year < r.From {
		return false
	}
	if r.To != 0 && year > r.To {
		return false
	}
	return true
}

// Label renders the range for card titles.
func (r YearRange) Label() string {
	switch {
	case r.IsAll():
		return "All Years"
	case r.From == r.To:
		return fmt.Sprintf("FY%d", r.From)
	case r.From == 0:
		return fmt.Sprintf("Through FY%d", r.To)
	case r.To == 0:
		return fmt.Sprintf("FY%d Onward", r.From)
	default:
		return fmt.Sprintf("FY%d–FY%d", r.From, r.To)
	}
}

// String implements fmt.Stringer using the filter syntax accepted by ParseYearRange.
func (r YearRange) String() string {
	switch {
	case r.IsAll():
		return "all"
	case r.From == r.To:
		return strconv.Itoa(r.From)
	default:
		from, to := "", ""
		if r.From != 0 {
			from = strconv.Itoa(r.From)
		}
		if r.To != 0 {
			to = strconv.Itoa(r.To)
		}
		return from + "-" + to
	}
}

var rangeSeparators = strings.NewReplacer("–", "-", "—", "-", " to ", "-", "..", "-")

// ParseYearRange parses "all", "", "2024", "FY24", "2023-2025", "2023–2025" or
// "FY2023-FY2025". Open-ended ranges ("2023-", "-2025") are accepted.
func ParseYearRange(s string) (YearRange, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllYears, nil
	}

	s = rangeSeparators.Replace(s)

	if y, ok := ParseFiscalYear(s); ok {
		return SingleYear(y), nil
	}

	parts := strings.Split(s, "-")
	// "FY-2023" parses as a single year above; anything left with a dash is a range.
	if len(parts) != 2 {
		return AllYears, fmt.Errorf("invalid year filter %q", s)
	}

	var r YearRange
	if p := strings.TrimSpace(parts[0]); p != "" {
		y, ok := ParseFiscalYear(p)
		if !ok {
			return AllYears, fmt.Errorf("invalid start year %q in filter %q", p, s)
		}
		r.From = y
	}
	if p := strings.TrimSpace(parts[1]); p != "" {
		y, ok := ParseFiscalYear(p)
		if !ok {
			return AllYears, fmt.Errorf("invalid end year %q in filter %q", p, s)
		}
		r.To = y
	}
	if r.From != 0 && r.To != 0 && r.From > r.To {
		r.From, r.To = r.To, r.From
	}
	return r, nil
}

// UnmarshalText lets YearRange be decoded from JSON strings, TOML and flags.
func (r *YearRange) UnmarshalText(text []byte) error {
	parsed, err := ParseYearRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalText renders the filter syntax.
func (r YearRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
