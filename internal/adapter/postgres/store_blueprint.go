package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
)

func (s *Store) CreateBlueprint(ctx context.Context, b *sensor.Blueprint) (*sensor.Blueprint, error) {
	b.CreatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create blueprint: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO group_blueprints (tenant_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		b.TenantID, b.Name, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return nil, conflictWrap(err, "create blueprint")
	}

	for i := range b.Sensors {
		bs := &b.Sensors[i]
		bs.BlueprintID = b.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO sensor_blueprints (blueprint_id, name, data_type)
			VALUES ($1, $2, $3)
			RETURNING id`,
			bs.BlueprintID, bs.Name, string(bs.DataType),
		).Scan(&bs.ID)
		if err != nil {
			return nil, conflictWrap(err, "create blueprint sensor %s", bs.Name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create blueprint: commit: %w", err)
	}
	return b, nil
}

func (s *Store) GetBlueprint(ctx context.Context, id, tenantID int64) (*sensor.Blueprint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, created_at
		FROM group_blueprints WHERE id = $1 AND tenant_id = $2`, id, tenantID)

	var b sensor.Blueprint
	if err := row.Scan(&b.ID, &b.TenantID, &b.Name, &b.CreatedAt); err != nil {
		return nil, notFoundWrap(err, "get blueprint %d", id)
	}

	sensors, err := s.listBlueprintSensors(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Sensors = sensors
	return &b, nil
}

func (s *Store) ListBlueprints(ctx context.Context, tenantID int64) ([]sensor.Blueprint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, created_at
		FROM group_blueprints WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list blueprints: %w", err)
	}
	defer rows.Close()

	var blueprints []sensor.Blueprint
	for rows.Next() {
		var b sensor.Blueprint
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan blueprint: %w", err)
		}
		blueprints = append(blueprints, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range blueprints {
		sensors, err := s.listBlueprintSensors(ctx, blueprints[i].ID)
		if err != nil {
			return nil, err
		}
		blueprints[i].Sensors = sensors
	}
	return orEmpty(blueprints), nil
}

func (s *Store) DeleteBlueprint(ctx context.Context, id, tenantID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM group_blueprints WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete blueprint %d", id)
}

// CreateGroupWithSensors creates a group and its member sensors in one
// transaction, deriving every public key before commit. Either the whole
// group materializes or nothing does.
func (s *Store) CreateGroupWithSensors(ctx context.Context, g *sensor.Group, sensors []sensor.Sensor) (*sensor.Group, []sensor.Sensor, error) {
	now := time.Now().UTC()
	g.CreatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("instantiate group: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.insertGroup(ctx, tx, g); err != nil {
		return nil, nil, err
	}

	for i := range sensors {
		sn := &sensors[i]
		sn.TenantID = g.TenantID
		sn.GroupID = g.ID
		sn.GroupName = g.Name
		sn.CreatedAt = now

		err = tx.QueryRow(ctx, `
			INSERT INTO sensors (tenant_id, group_id, name, data_type, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			sn.TenantID, sn.GroupID, sn.Name, string(sn.DataType), sn.CreatedAt,
		).Scan(&sn.ID)
		if err != nil {
			return nil, nil, conflictWrap(err, "instantiate sensor %s", sn.Name)
		}

		sn.Key, err = s.sensorKeys.Encode(sn.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("instantiate sensor %s: %w", sn.Name, err)
		}
		if _, err := tx.Exec(ctx, `UPDATE sensors SET key = $1 WHERE id = $2`, sn.Key, sn.ID); err != nil {
			return nil, nil, fmt.Errorf("instantiate sensor %s: set key: %w", sn.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("instantiate group: commit: %w", err)
	}
	return g, sensors, nil
}

func (s *Store) listBlueprintSensors(ctx context.Context, blueprintID int64) ([]sensor.BlueprintSensor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, blueprint_id, name, data_type
		FROM sensor_blueprints WHERE blueprint_id = $1 ORDER BY id`, blueprintID)
	if err != nil {
		return nil, fmt.Errorf("list blueprint sensors: %w", err)
	}
	defer rows.Close()

	var sensors []sensor.BlueprintSensor
	for rows.Next() {
		var bs sensor.BlueprintSensor
		var dt string
		if err := rows.Scan(&bs.ID, &bs.BlueprintID, &bs.Name, &dt); err != nil {
			return nil, fmt.Errorf("scan blueprint sensor: %w", err)
		}
		bs.DataType = sensor.DataType(dt)
		sensors = append(sensors, bs)
	}
	return orEmpty(sensors), rows.Err()
}
