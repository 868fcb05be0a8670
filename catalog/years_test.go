package catalog

import (
	"encoding/json"
	"testing"
)

func TestParseFiscalYear(t *testing.T) {
	tests := []struct {
		key  string
		year int
		ok   bool
	}{
		{"2024", 2024, true},
		{"FY2024", 2024, true},
		{"fy 2023", 2023, true},
		{"FY-2022", 2022, true},
		{"FY24", 2024, true},
		{"2024.0", 2024, true},
		{" 2021 ", 2021, true},
		{"Q1-2024", 0, false},
		{"Cisco", 0, false},
		{"12345", 0, false},
		{"0999", 0, false},
	}

	for _, tt := range tests {
		y, ok := ParseFiscalYear(tt.key)
		if y != tt.year || ok != tt.ok {
			t.Errorf("ParseFiscalYear(%q) = %d, %v; want %d, %v", tt.key, y, ok, tt.year, tt.ok)
		}
	}
}

func TestParseYearRange(t *testing.T) {
	tests := []struct {
		input string
		want  YearRange
		label string
	}{
		{"", AllYears, "All Years"},
		{"all", AllYears, "All Years"},
		{"2023", SingleYear(2023), "FY2023"},
		{"FY25", SingleYear(2025), "FY2025"},
		{"2023-2025", YearRange{From: 2023, To: 2025}, "FY2023–FY2025"},
		{"2023–2025", YearRange{From: 2023, To: 2025}, "FY2023–FY2025"},
		{"FY2023-FY2025", YearRange{From: 2023, To: 2025}, "FY2023–FY2025"},
		{"2025-2023", YearRange{From: 2023, To: 2025}, "FY2023–FY2025"},
		{"2023-", YearRange{From: 2023}, "FY2023 Onward"},
		{"-2024", YearRange{To: 2024}, "Through FY2024"},
	}

	for _, tt := range tests {
		got, err := ParseYearRange(tt.input)
		if err != nil {
			t.Errorf("ParseYearRange(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseYearRange(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
		if got.Label() != tt.label {
			t.Errorf("ParseYearRange(%q).Label() = %q, want %q", tt.input, got.Label(), tt.label)
		}
	}
}

func TestParseYearRangeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"last year", "2023-2024-2025", "abc-2024"} {
		if _, err := ParseYearRange(in); err == nil {
			t.Errorf("ParseYearRange(%q) expected error", in)
		}
	}
}

func TestYearRangeContains(t *testing.T) {
	r := YearRange{From: 2023, To: 2024}
	if r.Contains(2022) || !r.Contains(2023) || !r.Contains(2024) || r.Contains(2025) {
		t.Errorf("Contains misbehaves for %+v", r)
	}
	if !AllYears.Contains(1999) {
		t.Error("AllYears should contain every year")
	}
}

func TestYearRangeJSON(t *testing.T) {
	var payload struct {
		Years YearRange `json:"years"`
	}
	if err := json.Unmarshal([]byte(`{"years":"2023-2025"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Years != (YearRange{From: 2023, To: 2025}) {
		t.Errorf("decoded %+v", payload.Years)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"years":"2023-2025"}` {
		t.Errorf("marshal = %s", out)
	}
}
