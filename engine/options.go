package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// VIEW OPTIONS — Per-request configuration threaded through the pipeline
// ============================================================================

// PercentageBase selects the denominator for percentage labels.
type PercentageBase string

const (
	// BaseTotal divides by the sum of every category in the population.
	BaseTotal PercentageBase = "total"
	// BaseDisplayed divides by the sum of the displayed rows, overflow included.
	BaseDisplayed PercentageBase = "displayed"
)

// ParsePercentageBase validates a caller-supplied base. Empty is an error:
// there is deliberately no implicit default.
func ParsePercentageBase(s string) (PercentageBase, error) {
	switch PercentageBase(strings.ToLower(strings.TrimSpace(s))) {
	case BaseTotal:
		return BaseTotal, nil
	case BaseDisplayed:
		return BaseDisplayed, nil
	case "":
		return "", ErrPercentageBaseRequired
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPercentageBase, s)
	}
}

// DisplayCount is the Top-N size. Zero means "all".
type DisplayCount int

// AllCategories requests every category.
const AllCategories DisplayCount = 0

// IsAll reports whether every category is displayed.
func (d DisplayCount) IsAll() bool { return d <= 0 }

// String renders "all" or the count.
func (d DisplayCount) String() string {
	if d.IsAll() {
		return "all"
	}
	return strconv.Itoa(int(d))
}

// ParseDisplayCount accepts a positive integer or "all".
func ParseDisplayCount(s string) (DisplayCount, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllCategories, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return AllCategories, fmt.Errorf("%w: %q", ErrInvalidDisplayCount, s)
	}
	return DisplayCount(n), nil
}

// UnmarshalJSON accepts a number or the string "all".
func (d *DisplayCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseDisplayCount(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDisplayCount, data)
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDisplayCount, n)
	}
	*d = DisplayCount(n)
	return nil
}

// MarshalJSON renders "all" for zero, the number otherwise.
func (d DisplayCount) MarshalJSON() ([]byte, error) {
	if d.IsAll() {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(int(d))), nil
}

// ViewOptions configures one buffet request.
type ViewOptions struct {
	DisplayCount          DisplayCount      `json:"displayCount"`
	SelectedEntityNames   []string          `json:"selectedEntityNames,omitempty"`
	IncludeOverflowBucket bool              `json:"includeOverflowBucket"`
	PercentageBase        PercentageBase    `json:"percentageBase"`
	DepartmentFilter      []string          `json:"departmentFilter,omitempty"`
	ClassificationFilter  []string          `json:"classificationFilter,omitempty"`
	YearFilter            catalog.YearRange `json:"yearFilter"`
	Currency              string            `json:"currency,omitempty"`
}

// NewViewOptions returns options with the documented defaults: top 10, overflow
// bucket on, all years. The percentage base is left for the caller to choose.
func NewViewOptions(base PercentageBase) ViewOptions {
	return ViewOptions{
		DisplayCount:          10,
		IncludeOverflowBucket: true,
		PercentageBase:        base,
		YearFilter:            catalog.AllYears,
	}
}

// UnmarshalJSON applies defaults for absent members (overflow bucket on).
func (o *ViewOptions) UnmarshalJSON(data []byte) error {
	type plain ViewOptions
	aux := struct {
		*plain
		IncludeOverflowBucket *bool `json:"includeOverflowBucket"`
	}{plain: (*plain)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.IncludeOverflowBucket = true
	if aux.IncludeOverflowBucket != nil {
		o.IncludeOverflowBucket = *aux.IncludeOverflowBucket
	}
	return nil
}

// Validate checks caller-controlled settings.
func (o ViewOptions) Validate() error {
	if _, err := ParsePercentageBase(string(o.PercentageBase)); err != nil {
		return err
	}
	if o.DisplayCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDisplayCount, o.DisplayCount)
	}
	return nil
}

// ============================================================================
// ENGINE OPTIONS — Functional options for Generate()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Selector *Selector
	Palette  []string
	Logger   zerolog.Logger
	Currency string
}

// WithSelector replaces the default chart-type context selector.
func WithSelector(s *Selector) Option {
	return func(c *config) {
		c.Selector = s
	}
}

// WithPalette overrides the series color palette.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// WithLogger routes engine logs to l.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

// WithCurrency sets the display prefix for money values (default "$").
func WithCurrency(symbol string) Option {
	return func(c *config) {
		c.Currency = symbol
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Palette:  defaultColors,
		Logger:   log.Logger,
		Currency: "$",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Selector == nil {
		cfg.Selector = DefaultSelector()
	}
	return cfg
}
