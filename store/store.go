package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/spektr-org/cardbuffet/engine"
)

// ============================================================================
// ENTITY STORE — Where buffet input comes from
// ============================================================================
// Every implementation returns the entities of one type with their field
// values untouched: decoded JSON, or serialized JSON strings the engine
// decodes leniently.
// ============================================================================

// EntityStore returns every entity of one type.
type EntityStore interface {
	Entities(ctx context.Context, entityType engine.EntityType) ([]engine.Entity, error)
}

// ErrUnknownKind is returned by Open for an unsupported store kind.
var ErrUnknownKind = errors.New("unknown store kind")

// MemoryStore serves a fixed entity set. Safe for concurrent reads.
type MemoryStore struct {
	entities []engine.Entity
}

// NewMemoryStore wraps entities.
func NewMemoryStore(entities []engine.Entity) *MemoryStore {
	return &MemoryStore{entities: entities}
}

// Entities returns entities of entityType; untyped entities match every type.
func (s *MemoryStore) Entities(ctx context.Context, entityType engine.EntityType) ([]engine.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownEntityType, entityType)
	}
	return engine.OfType(s.entities, entityType), nil
}

// Options selects and configures a store.
type Options struct {
	Kind string // memory, file, csv, postgres
	Path string
	DSN  string
}

// Open builds the store described by opts. The caller closes it when it
// implements io.Closer.
func Open(ctx context.Context, opts Options) (EntityStore, error) {
	switch opts.Kind {
	case "file", "json":
		return NewFileStore(opts.Path)
	case "csv":
		return NewCSVStore(opts.Path)
	case "postgres", "pg":
		return NewPostgresStore(ctx, opts.DSN)
	case "memory", "":
		return NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}
