package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spektr-org/cardbuffet/engine"
)

// FileStore reads entities from a JSON document, re-read on every call so
// edits show up without a restart.
//
// Accepted layouts:
//
//	[ {"id": "...", "type": "agency", "fields": {...}}, ... ]
//	{ "agency": [ {...} ], "vendor": [ {...} ] }
type FileStore struct {
	path string
}

// NewFileStore checks that path exists.
func NewFileStore(path string) (*FileStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("entity file: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Entities loads the file and returns entities of entityType.
func (s *FileStore) Entities(ctx context.Context, entityType engine.EntityType) ([]engine.Entity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read entity file: %w", err)
	}
	entities, err := ParseEntitiesJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return NewMemoryStore(entities).Entities(ctx, entityType)
}

// ParseEntitiesJSON decodes either accepted layout.
func ParseEntitiesJSON(data []byte) ([]engine.Entity, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var list []engine.Entity
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode entity list: %w", err)
		}
		return list, nil
	}

	var byType map[engine.EntityType][]engine.Entity
	if err := json.Unmarshal(data, &byType); err != nil {
		return nil, fmt.Errorf("decode entities by type: %w", err)
	}
	var out []engine.Entity
	for _, t := range engine.EntityTypes {
		for _, e := range byType[t] {
			if e.Type == "" {
				e.Type = t
			}
			out = append(out, e)
		}
	}
	return out, nil
}
