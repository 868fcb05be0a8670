package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spektr-org/cardbuffet/engine"
)

//go:embed schema.sql
var schemaSQL string

const selectEntities = `
	SELECT id, name, type, COALESCE(department, ''), COALESCE(classification, ''), fields
	FROM entities
	WHERE type = $1
	ORDER BY name, id`

const upsertEntity = `
	INSERT INTO entities (id, name, type, department, classification, fields, updated_at)
	VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, now())
	ON CONFLICT (type, id)
	DO UPDATE SET
		name = EXCLUDED.name,
		department = EXCLUDED.department,
		classification = EXCLUDED.classification,
		fields = EXCLUDED.fields,
		updated_at = EXCLUDED.updated_at`

// PostgresStore reads entities from an `entities` table whose field values
// live in one JSONB column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects using dsn (a postgres:// URL).
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: DSN not set")
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the entities table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Entities returns every row of entityType.
func (s *PostgresStore) Entities(ctx context.Context, entityType engine.EntityType) ([]engine.Entity, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownEntityType, entityType)
	}

	rows, err := s.pool.Query(ctx, selectEntities, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []engine.Entity
	for rows.Next() {
		var r entityRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Department, &r.Classification, &r.Fields); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e, err := r.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return out, nil
}

// Upsert writes entities in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, entities []engine.Entity) error {
	batch := &pgx.Batch{}
	for _, e := range entities {
		r, err := rowFromEntity(e)
		if err != nil {
			return err
		}
		batch.Queue(upsertEntity, r.ID, r.Name, r.Type, r.Department, r.Classification, r.Fields)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range entities {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("upsert entity: %w", err)
			}
		}
		return results.Close()
	})
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ============================================================================
// ROW MAPPING
// ============================================================================

type entityRow struct {
	ID             string
	Name           string
	Type           string
	Department     string
	Classification string
	Fields         []byte
}

func (r entityRow) entity() (engine.Entity, error) {
	e := engine.Entity{
		ID:             r.ID,
		Name:           r.Name,
		Type:           engine.EntityType(r.Type),
		Department:     r.Department,
		Classification: r.Classification,
		Fields:         map[string]any{},
	}
	if len(r.Fields) == 0 {
		return e, nil
	}
	if err := json.Unmarshal(r.Fields, &e.Fields); err != nil {
		return engine.Entity{}, fmt.Errorf("entity %s: decode fields: %w", r.ID, err)
	}
	return e, nil
}

func rowFromEntity(e engine.Entity) (entityRow, error) {
	if e.Key() == "" {
		return entityRow{}, fmt.Errorf("entity without id or name")
	}
	if !e.Type.Valid() {
		return entityRow{}, fmt.Errorf("entity %s: %w: %q", e.Key(), engine.ErrUnknownEntityType, e.Type)
	}
	fields := e.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return entityRow{}, fmt.Errorf("entity %s: encode fields: %w", e.Key(), err)
	}
	return entityRow{
		ID:             e.Key(),
		Name:           e.Name,
		Type:           string(e.Type),
		Department:     e.Department,
		Classification: e.Classification,
		Fields:         data,
	}, nil
}
