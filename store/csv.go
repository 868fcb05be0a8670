package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/cardbuffet/catalog"
	"github.com/spektr-org/cardbuffet/engine"
)

// ============================================================================
// CSV STORE — Spreadsheet exports into []engine.Entity
// ============================================================================
// Identity columns: id, name, type, department, classification.
// Every other column is a field; its cells hold serialized JSON (or a bare
// number) and are passed to the engine as-is. Empty cells are absent fields.
// ============================================================================

// CSVStore reads entities from a CSV file on every call.
type CSVStore struct {
	path string
}

// NewCSVStore checks that path exists.
func NewCSVStore(path string) (*CSVStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("entity csv: %w", err)
	}
	return &CSVStore{path: path}, nil
}

// Entities loads the file and returns entities of entityType.
func (s *CSVStore) Entities(ctx context.Context, entityType engine.EntityType) ([]engine.Entity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read entity csv: %w", err)
	}
	entities, err := ParseEntitiesCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return NewMemoryStore(entities).Entities(ctx, entityType)
}

// ParseEntitiesCSV parses CSV bytes into entities. Malformed rows are skipped.
func ParseEntitiesCSV(data []byte) ([]engine.Entity, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Read header
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = catalog.Normalize(strings.TrimPrefix(h, "\ufeff"))
	}
	if !lo.Contains(keys, "id") && !lo.Contains(keys, "name") {
		return nil, fmt.Errorf("CSV needs an id or name column, got %v", headers)
	}

	var entities []engine.Entity
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		e := engine.Entity{Fields: make(map[string]any)}
		for i, val := range row {
			if i >= len(keys) {
				break
			}
			val = strings.TrimSpace(val)
			switch keys[i] {
			case "id":
				e.ID = val
			case "name":
				e.Name = val
			case "type":
				e.Type = engine.EntityType(strings.ToLower(val))
			case "department":
				e.Department = val
			case "classification":
				e.Classification = val
			default:
				if val != "" && keys[i] != "" {
					e.Fields[keys[i]] = val
				}
			}
		}
		if e.ID == "" && e.Name == "" {
			continue
		}
		entities = append(entities, e)
	}

	return entities, nil
}
