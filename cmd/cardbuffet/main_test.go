package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spektr-org/cardbuffet/catalog"
	"github.com/spektr-org/cardbuffet/config"
	"github.com/spektr-org/cardbuffet/engine"
)

func TestWriteCSVBlocks(t *testing.T) {
	result := &engine.Result{Cards: []engine.Card{
		{Title: "Top 2 Resellers", TableSpec: engine.TableSpec{
			Headers: []string{"Rank", "Name", "Value"},
			Rows:    [][]any{{1, "SHI", 60.0}, {"", "All Other", 12.5}},
		}},
		{Title: "Summary", TableSpec: engine.TableSpec{Headers: []string{"Metric", "Value"}}},
	}}

	var buf bytes.Buffer
	if err := writeCSV(&buf, result); err != nil {
		t.Fatal(err)
	}
	want := "Top 2 Resellers\nRank,Name,Value\n1,SHI,60\n,All Other,12.50\n\nSummary\nMetric,Value\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestViewOptionsFromFlags(t *testing.T) {
	cfg = config.DefaultConfig()
	genTop, genBase, genYears, genOverflow = "all", "displayed", "FY2022-FY2023", false
	genDepts = []string{"DoD"}
	t.Cleanup(func() {
		genTop, genBase, genYears, genOverflow, genDepts = "", "", "", true, nil
	})

	opts, err := viewOptions()
	if err != nil {
		t.Fatal(err)
	}
	if !opts.DisplayCount.IsAll() || opts.PercentageBase != engine.BaseDisplayed || opts.IncludeOverflowBucket {
		t.Errorf("opts = %+v", opts)
	}
	if opts.YearFilter != (catalog.YearRange{From: 2022, To: 2023}) {
		t.Errorf("year filter = %+v", opts.YearFilter)
	}

	genBase = "median"
	if _, err := viewOptions(); err == nil || !strings.Contains(err.Error(), "percentage base") {
		t.Errorf("err = %v", err)
	}
}

func TestStoreOptionsOverrides(t *testing.T) {
	cfg = config.DefaultConfig()
	storeCSV = "agencies.csv"
	t.Cleanup(func() { storeCSV = "" })

	opts := storeOptions()
	if opts.Kind != "csv" || opts.Path != "agencies.csv" {
		t.Errorf("opts = %+v", opts)
	}
}
