package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spektr-org/cardbuffet/engine"
)

// ============================================================================
// ENTITY STORE TESTS
// ============================================================================

var entitiesCSV = []byte(`ID,Name,Type,Department,Classification,Top Resellers,Obligations
v1,Acme Federal,vendor,Defense,Small,"[{""name"":""SHI"",""value"":120},{""name"":""CDW"",""value"":80}]",200
v2,Globex,vendor,Energy,Large,"[{'name':'SHI','value':30}]",
a1,Army,agency,Defense,Cabinet,,"{""total"":900,""years"":{""2023"":400,""2024"":500}}"
,,vendor,,,,
`)

var entitiesByType = []byte(`{
  "agency": [{"id": "a1", "name": "Army", "fields": {"obligations": 900}}],
  "vendor": [{"id": "v1", "name": "Acme", "fields": {"obligations": "250"}}]
}`)

func TestParseEntitiesCSV(t *testing.T) {
	entities, err := ParseEntitiesCSV(entitiesCSV)
	if err != nil {
		t.Fatalf("ParseEntitiesCSV failed: %v", err)
	}
	if len(entities) != 3 {
		t.Fatalf("got %d entities, want 3 (blank row skipped)", len(entities))
	}

	acme := entities[0]
	if acme.ID != "v1" || acme.Type != engine.EntityVendor || acme.Department != "Defense" {
		t.Errorf("identity columns = %+v", acme)
	}
	if _, ok := acme.Fields["top_resellers"].(string); !ok {
		t.Errorf("field columns are normalized and kept serialized: %v", acme.Fields)
	}
	if _, ok := entities[1].Fields["obligations"]; ok {
		t.Error("empty cells must be absent fields")
	}
}

func TestParseEntitiesCSVRequiresIdentity(t *testing.T) {
	if _, err := ParseEntitiesCSV([]byte("foo,bar\n1,2\n")); err == nil {
		t.Error("expected error for CSV without id or name")
	}
	if _, err := ParseEntitiesCSV(nil); err == nil {
		t.Error("expected error for empty CSV")
	}
}

func TestParseEntitiesJSONLayouts(t *testing.T) {
	byType, err := ParseEntitiesJSON(entitiesByType)
	if err != nil {
		t.Fatal(err)
	}
	if len(byType) != 2 || byType[0].Type != engine.EntityAgency || byType[1].Type != engine.EntityVendor {
		t.Errorf("by-type layout = %+v", byType)
	}

	list, err := ParseEntitiesJSON([]byte(`[{"id":"o1","name":"Cisco","type":"oem","fields":{}}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Type != engine.EntityOEM {
		t.Errorf("list layout = %+v", list)
	}

	if _, err := ParseEntitiesJSON([]byte(`{"agency": 3}`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestMemoryStoreScopesByType(t *testing.T) {
	entities, _ := ParseEntitiesCSV(entitiesCSV)
	s := NewMemoryStore(entities)

	vendors, err := s.Entities(context.Background(), engine.EntityVendor)
	if err != nil {
		t.Fatal(err)
	}
	if len(vendors) != 2 {
		t.Errorf("vendors = %d, want 2", len(vendors))
	}

	if _, err := s.Entities(context.Background(), "fleet"); !errors.Is(err, engine.ErrUnknownEntityType) {
		t.Errorf("err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Entities(ctx, engine.EntityVendor); err == nil {
		t.Error("cancelled context must fail")
	}
}

func TestFileStores(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "entities.json")
	csvPath := filepath.Join(dir, "entities.csv")
	if err := os.WriteFile(jsonPath, entitiesByType, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(csvPath, entitiesCSV, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		opts Options
		want int
	}{
		{Options{Kind: "file", Path: jsonPath}, 1},
		{Options{Kind: "csv", Path: csvPath}, 1},
	}
	for _, tt := range tests {
		s, err := Open(context.Background(), tt.opts)
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", tt.opts.Kind, err)
		}
		agencies, err := s.Entities(context.Background(), engine.EntityAgency)
		if err != nil {
			t.Fatalf("%s: %v", tt.opts.Kind, err)
		}
		if len(agencies) != tt.want {
			t.Errorf("%s agencies = %d, want %d", tt.opts.Kind, len(agencies), tt.want)
		}
	}

	if _, err := Open(context.Background(), Options{Kind: "csv", Path: filepath.Join(dir, "missing.csv")}); err == nil {
		t.Error("missing file must fail")
	}
	if _, err := Open(context.Background(), Options{Kind: "s3"}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestCSVEntitiesFeedTheEngine(t *testing.T) {
	entities, _ := ParseEntitiesCSV(entitiesCSV)
	result := engine.Generate(engine.EntityVendor, "top_resellers", entities, engine.NewViewOptions(engine.BaseTotal))

	if !result.Success || len(result.Cards) == 0 {
		t.Fatalf("result = %+v", result)
	}
	for _, c := range result.Cards {
		if c.CardKind == engine.CardKPI && c.Summary["topCategory"] != "SHI" {
			t.Errorf("top category = %v, want SHI", c.Summary["topCategory"])
		}
	}
}

func TestPostgresRowMapping(t *testing.T) {
	in := engine.Entity{
		ID: "v1", Name: "Acme", Type: engine.EntityVendor,
		Fields: map[string]any{"obligations": 250.0},
	}
	row, err := rowFromEntity(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(row.Fields) != `{"obligations":250}` {
		t.Errorf("fields = %s", row.Fields)
	}

	out, err := row.entity()
	if err != nil {
		t.Fatal(err)
	}
	if out.ID != "v1" || out.Fields["obligations"] != 250.0 {
		t.Errorf("entity = %+v", out)
	}

	if _, err := rowFromEntity(engine.Entity{ID: "x", Type: "fleet"}); !errors.Is(err, engine.ErrUnknownEntityType) {
		t.Errorf("err = %v", err)
	}
	if _, err := (entityRow{ID: "bad", Fields: []byte("{")}).entity(); err == nil {
		t.Error("expected decode error")
	}
}
