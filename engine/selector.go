package engine

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/samber/lo"
	"gopkg.in/yaml.v2"

	"github.com/spektr-org/cardbuffet/catalog"
)

// ============================================================================
// CHART-TYPE CONTEXT SELECTOR
// ============================================================================
// (entityType, field, displayed-count bucket) → ordered chart kinds.
// Lookup order on miss:
//   1. exact triple
//   2. same entity type + field, bucket "all"
//   3. "default" entity type + field (exact bucket, then "all")
//   4. legacy heuristic on count and ranking-style fields
// Pure: never touches entity data.
// ============================================================================

// ChartKind names one renderer.
type ChartKind string

const (
	ChartBar           ChartKind = "bar"
	ChartBarHorizontal ChartKind = "bar_horizontal"
	ChartPie           ChartKind = "pie"
	ChartDoughnut      ChartKind = "doughnut"
	ChartFunnel        ChartKind = "funnel"
	ChartStacked       ChartKind = "stacked"
	ChartArea          ChartKind = "area"
	ChartLine          ChartKind = "line"
	ChartFiscalLine    ChartKind = "fiscal_line"
	ChartFiscalArea    ChartKind = "fiscal_area"
	ChartFiscalBar     ChartKind = "fiscal_bar"
)

// ChartKinds lists every renderable kind.
var ChartKinds = []ChartKind{
	ChartBar, ChartBarHorizontal, ChartPie, ChartDoughnut, ChartFunnel,
	ChartStacked, ChartArea, ChartLine,
	ChartFiscalLine, ChartFiscalArea, ChartFiscalBar,
}

// IsTrend reports whether the kind renders a fiscal series.
func (k ChartKind) IsTrend() bool {
	switch k {
	case ChartFiscalLine, ChartFiscalArea, ChartFiscalBar:
		return true
	}
	return false
}

// Valid reports whether k has a renderer.
func (k ChartKind) Valid() bool {
	return lo.Contains(ChartKinds, k)
}

// Displayed-count buckets.
const (
	Bucket5   = "5"
	Bucket10  = "10"
	Bucket15  = "15"
	Bucket20  = "20"
	BucketAll = "all"
)

var bucketSizes = []int{5, 10, 15, 20}

// DefaultEntityType is the matrix row shared by every entity type.
const DefaultEntityType = "default"

// Selection sources, most to least specific.
const (
	SourceExact     = "exact"
	SourceTypeAll   = "type_all"
	SourceDefault   = "default"
	SourceHeuristic = "heuristic"
)

// Selection is the selector's answer for one request.
type Selection struct {
	Kinds  []ChartKind `json:"kinds"`
	Bucket string      `json:"bucket"`
	Source string      `json:"source"`
}

// SnapBucket rounds a displayed count up to the nearest bucket.
// Zero (all) and counts above the largest bucket map to "all".
func SnapBucket(count int) string {
	if count <= 0 {
		return BucketAll
	}
	for _, size := range bucketSizes {
		if count <= size {
			return strconv.Itoa(size)
		}
	}
	return BucketAll
}

// contextMatrix is entity type → field → bucket → kinds.
type contextMatrix map[string]map[string]map[string][]ChartKind

// Selector looks chart kinds up in a context matrix. Immutable after load.
type Selector struct {
	matrix contextMatrix
}

//go:embed context_matrix.yaml
var defaultMatrix []byte

var builtinSelector = mustLoadSelector(defaultMatrix)

// DefaultSelector returns the selector built from the embedded matrix.
func DefaultSelector() *Selector {
	return builtinSelector
}

func mustLoadSelector(data []byte) *Selector {
	s, err := LoadSelector(data)
	if err != nil {
		panic(fmt.Sprintf("embedded context matrix: %v", err))
	}
	return s
}

// LoadSelector parses a YAML context matrix.
func LoadSelector(data []byte) (*Selector, error) {
	var raw map[string]map[string]map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse context matrix: %w", err)
	}

	m := make(contextMatrix, len(raw))
	for entityType, byField := range raw {
		if entityType != DefaultEntityType && !EntityType(entityType).Valid() {
			return nil, fmt.Errorf("context matrix: %w: %q", ErrUnknownEntityType, entityType)
		}
		m[entityType] = make(map[string]map[string][]ChartKind, len(byField))
		for field, byBucket := range byField {
			field = catalog.Normalize(field)
			m[entityType][field] = make(map[string][]ChartKind, len(byBucket))
			for bucket, kinds := range byBucket {
				if !validBucket(bucket) {
					return nil, fmt.Errorf("context matrix: %s/%s: unknown bucket %q", entityType, field, bucket)
				}
				parsed := make([]ChartKind, 0, len(kinds))
				for _, k := range kinds {
					kind := ChartKind(k)
					if !kind.Valid() {
						return nil, fmt.Errorf("context matrix: %s/%s/%s: unknown chart kind %q", entityType, field, bucket, k)
					}
					parsed = append(parsed, kind)
				}
				m[entityType][field][bucket] = lo.Uniq(parsed)
			}
		}
	}
	return &Selector{matrix: m}, nil
}

// LoadSelectorFile reads a YAML context matrix from disk.
func LoadSelectorFile(path string) (*Selector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context matrix: %w", err)
	}
	return LoadSelector(data)
}

func validBucket(b string) bool {
	return b == BucketAll || lo.Contains(bucketSizes, atoiOrZero(b))
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Select returns the chart kinds for a request. count is the number of ranked
// rows being displayed; 0 means every category.
func (s *Selector) Select(entityType EntityType, field string, count int) Selection {
	field = catalog.Normalize(field)
	bucket := SnapBucket(count)

	if kinds, ok := s.lookup(string(entityType), field, bucket); ok {
		return Selection{Kinds: kinds, Bucket: bucket, Source: SourceExact}
	}
	if kinds, ok := s.lookup(string(entityType), field, BucketAll); ok {
		return Selection{Kinds: kinds, Bucket: bucket, Source: SourceTypeAll}
	}
	if kinds, ok := s.lookup(DefaultEntityType, field, bucket); ok {
		return Selection{Kinds: kinds, Bucket: bucket, Source: SourceDefault}
	}
	if kinds, ok := s.lookup(DefaultEntityType, field, BucketAll); ok {
		return Selection{Kinds: kinds, Bucket: bucket, Source: SourceDefault}
	}
	return Selection{Kinds: legacyKinds(field, count), Bucket: bucket, Source: SourceHeuristic}
}

func (s *Selector) lookup(entityType, field, bucket string) ([]ChartKind, bool) {
	if s == nil {
		return nil, false
	}
	kinds, ok := s.matrix[entityType][field][bucket]
	if !ok || len(kinds) == 0 {
		return nil, false
	}
	out := make([]ChartKind, len(kinds))
	copy(out, kinds)
	return out, true
}

// legacyKinds picks layouts from result size alone, except for ranking-style
// fields which always lead with a funnel.
func legacyKinds(field string, count int) []ChartKind {
	switch {
	case catalog.IsRanking(field):
		return []ChartKind{ChartFunnel, ChartBarHorizontal, ChartFiscalLine}
	case count > 0 && count <= 5:
		return []ChartKind{ChartPie, ChartBar, ChartFiscalLine}
	case count > 0 && count <= 10:
		return []ChartKind{ChartBar, ChartDoughnut, ChartFiscalLine}
	default:
		return []ChartKind{ChartBarHorizontal, ChartStacked, ChartFiscalBar}
	}
}
