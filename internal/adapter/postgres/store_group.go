package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
)

// CreateGroup inserts the group and derives its public key from the new row
// id inside the same transaction.
func (s *Store) CreateGroup(ctx context.Context, g *sensor.Group) (*sensor.Group, error) {
	g.CreatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create group: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.insertGroup(ctx, tx, g); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create group: commit: %w", err)
	}
	return g, nil
}

// insertGroup runs the insert-then-key steps on the given transaction so
// blueprint instantiation can reuse them atomically.
func (s *Store) insertGroup(ctx context.Context, tx pgx.Tx, g *sensor.Group) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO groups (tenant_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		g.TenantID, g.Name, g.CreatedAt,
	).Scan(&g.ID)
	if err != nil {
		return conflictWrap(err, "create group")
	}

	g.Key, err = s.groupKeys.Encode(g.ID)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE groups SET key = $1 WHERE id = $2`, g.Key, g.ID); err != nil {
		return fmt.Errorf("create group: set key: %w", err)
	}
	return nil
}

func (s *Store) GetGroupByKey(ctx context.Context, key string) (*sensor.Group, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, key, created_at
		FROM groups WHERE key = $1`, key)
	return scanGroup(row, "get group by key")
}

func (s *Store) ListGroups(ctx context.Context, tenantID int64) ([]sensor.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, key, created_at
		FROM groups WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return collectGroups(rows)
}

// SearchGroups lists groups across all tenants, optionally filtered by a
// case-insensitive name substring. Results expose only name and key to
// callers, so the cross-tenant scope leaks no readings.
func (s *Store) SearchGroups(ctx context.Context, nameFilter string) ([]sensor.Group, error) {
	query := `
		SELECT id, tenant_id, name, key, created_at
		FROM groups`
	args := []any{}
	if nameFilter != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%'`
		args = append(args, nameFilter)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search groups: %w", err)
	}
	return collectGroups(rows)
}

// DeleteGroup removes a group; its sensors and their readings cascade at
// the schema level.
func (s *Store) DeleteGroup(ctx context.Context, id, tenantID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete group %d", id)
}

func scanGroup(row scannable, format string, args ...any) (*sensor.Group, error) {
	var g sensor.Group
	err := row.Scan(&g.ID, &g.TenantID, &g.Name, &g.Key, &g.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, format, args...)
	}
	return &g, nil
}

func collectGroups(rows pgx.Rows) ([]sensor.Group, error) {
	defer rows.Close()

	var groups []sensor.Group
	for rows.Next() {
		g, err := scanGroup(rows, "scan group")
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return orEmpty(groups), rows.Err()
}
