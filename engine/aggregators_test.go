package engine

import (
	"errors"
	"testing"
)

// ============================================================================
// TOP-N / PERCENTAGE ENGINE TESTS
// ============================================================================

func TestBucketWorkedExample(t *testing.T) {
	b, err := Bucket([]CategoryAggregate{{Name: "A", Value: 100}, {Name: "B", Value: 50}}, BucketOptions{
		DisplayCount:    1,
		IncludeOverflow: true,
		Base:            BaseDisplayed,
	})
	if err != nil {
		t.Fatalf("Bucket failed: %v", err)
	}
	if len(b.Items) != 2 {
		t.Fatalf("items = %+v, want A + All Other", b.Items)
	}

	a, other := b.Items[0], b.Items[1]
	if a.Name != "A" || a.Rank != 1 {
		t.Errorf("first item = %+v", a)
	}
	if !other.IsOverflowBucket || other.Name != OverflowLabel || other.Rank != 0 {
		t.Errorf("overflow item = %+v", other)
	}
	assertNear(t, other.Value, 50, "overflow value")
	assertNear(t, a.Percent, 66.67, "A share")
	assertNear(t, other.Percent, 33.33, "All Other share")
}

func TestBucketPercentageBases(t *testing.T) {
	cats := []CategoryAggregate{
		{Name: "a", Value: 7}, {Name: "b", Value: 13.3}, {Name: "c", Value: 0.4},
		{Name: "d", Value: 21}, {Name: "e", Value: 9.9}, {Name: "f", Value: 3},
	}

	for _, n := range []DisplayCount{1, 2, 3, 5, 6, 10, AllCategories} {
		displayed, err := Bucket(cats, BucketOptions{DisplayCount: n, IncludeOverflow: true, Base: BaseDisplayed})
		if err != nil {
			t.Fatal(err)
		}
		var sum float64
		for _, it := range displayed.Items {
			sum += it.Percent
		}
		if sum < 99.9 || sum > 100.1 {
			t.Errorf("top %s displayed-base percentages sum to %.4f", n, sum)
		}

		total, _ := Bucket(cats, BucketOptions{DisplayCount: n, IncludeOverflow: false, Base: BaseTotal})
		sum = 0
		for _, it := range total.Items {
			sum += it.Percent
		}
		if sum > 100.0001 {
			t.Errorf("top %s total-base percentages sum to %.4f", n, sum)
		}
	}
}

func TestBucketOrderingAndTies(t *testing.T) {
	cats := []CategoryAggregate{
		{Name: "first", Value: 5}, {Name: "big", Value: 9}, {Name: "second", Value: 5}, {Name: "small", Value: 1},
	}
	b, _ := Bucket(cats, BucketOptions{DisplayCount: 3, Base: BaseTotal})

	want := []string{"big", "first", "second"}
	if len(b.Items) != len(want) {
		t.Fatalf("items = %+v", b.Items)
	}
	for i, it := range b.Items {
		if it.Name != want[i] || it.Rank != i+1 {
			t.Errorf("item %d = %s rank %d, want %s rank %d", i, it.Name, it.Rank, want[i], i+1)
		}
	}
	if _, ok := b.Overflow(); ok {
		t.Error("overflow bucket must not appear when not requested")
	}
}

func TestBucketNoOverflowWhenEverythingFits(t *testing.T) {
	cats := []CategoryAggregate{{Name: "a", Value: 1}, {Name: "b", Value: 2}}
	b, _ := Bucket(cats, BucketOptions{DisplayCount: 5, IncludeOverflow: true, Base: BaseTotal})
	if _, ok := b.Overflow(); ok {
		t.Error("no remainder, no overflow bucket")
	}
}

func TestBucketOverflowInputsNeverRank(t *testing.T) {
	cats := []CategoryAggregate{
		{Name: "All Other", Value: 1000, IsOverflowBucket: true},
		{Name: "a", Value: 10}, {Name: "b", Value: 5},
	}
	b, _ := Bucket(cats, BucketOptions{DisplayCount: 1, IncludeOverflow: true, Base: BaseTotal})

	if b.Items[0].Name != "a" {
		t.Fatalf("top item = %s, want a", b.Items[0].Name)
	}
	other, ok := b.Overflow()
	if !ok {
		t.Fatal("expected overflow bucket")
	}
	assertNear(t, other.Value, 1005, "carried overflow joins the remainder")
	if len(b.Ranked()) != 1 {
		t.Errorf("ranked = %d, want 1", len(b.Ranked()))
	}
}

func TestBucketRequiresBase(t *testing.T) {
	_, err := Bucket([]CategoryAggregate{{Name: "a", Value: 1}}, BucketOptions{DisplayCount: 1})
	if !errors.Is(err, ErrPercentageBaseRequired) {
		t.Errorf("err = %v, want ErrPercentageBaseRequired", err)
	}
	_, err = Bucket(nil, BucketOptions{Base: "median"})
	if !errors.Is(err, ErrInvalidPercentageBase) {
		t.Errorf("err = %v, want ErrInvalidPercentageBase", err)
	}
}

func TestBucketEmpty(t *testing.T) {
	b, err := Bucket(nil, BucketOptions{DisplayCount: 10, IncludeOverflow: true, Base: BaseTotal})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Items) != 0 || b.Total != 0 {
		t.Errorf("empty input produced %+v", b)
	}
}

// ============================================================================
// FORMATTING TESTS
// ============================================================================

func TestFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatCurrency(1234567.891, "$"), "$1,234,567.89"},
		{FormatCurrency(-42.5, "$"), "-$42.50"},
		{FormatCurrency(999, "€"), "€999.00"},
		{FormatCompactCurrency(2_450_000, "$"), "$2.5M"},
		{FormatCompactCurrency(3_100_000_000, "$"), "$3.1B"},
		{FormatCompactCurrency(512, "$"), "$512.00"},
		{FormatCount(1234.4), "1,234"},
		{FormatPercent(66.6666), "66.7%"},
		{FormatSignedPercent(50), "+50.0%"},
		{FormatSignedPercent(-12.5), "-12.5%"},
		{FormatValue(1500, "count", "$"), "1,500"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
	if RoundTo2(2.3456) != 2.35 {
		t.Errorf("RoundTo2(2.3456) = %v", RoundTo2(2.3456))
	}
}

func TestParseDisplayCount(t *testing.T) {
	tests := []struct {
		in      string
		want    DisplayCount
		wantErr bool
	}{
		{"10", 10, false},
		{"all", AllCategories, false},
		{"ALL", AllCategories, false},
		{"", AllCategories, false},
		{"-3", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDisplayCount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDisplayCount(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDisplayCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
