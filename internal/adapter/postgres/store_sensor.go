package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
)

// CreateSensor inserts the sensor and derives its public key from the new
// row id inside the same transaction, so a sensor is never visible without
// a key.
func (s *Store) CreateSensor(ctx context.Context, sn *sensor.Sensor) (*sensor.Sensor, error) {
	sn.CreatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create sensor: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO sensors (tenant_id, group_id, name, data_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		sn.TenantID, nullID(sn.GroupID), sn.Name, string(sn.DataType), sn.CreatedAt,
	).Scan(&sn.ID)
	if err != nil {
		return nil, conflictWrap(err, "create sensor")
	}

	sn.Key, err = s.sensorKeys.Encode(sn.ID)
	if err != nil {
		return nil, fmt.Errorf("create sensor: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE sensors SET key = $1 WHERE id = $2`, sn.Key, sn.ID); err != nil {
		return nil, fmt.Errorf("create sensor: set key: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create sensor: commit: %w", err)
	}
	return sn, nil
}

const sensorColumns = `
	s.id, s.tenant_id, s.group_id, s.name, s.data_type, s.key, s.created_at,
	COALESCE(g.name, '')`

func (s *Store) GetSensorByKey(ctx context.Context, key string) (*sensor.Sensor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sensorColumns+`
		FROM sensors s LEFT JOIN groups g ON g.id = s.group_id
		WHERE s.key = $1`, key)
	return scanSensor(row, "get sensor by key")
}

func (s *Store) ListSensors(ctx context.Context, tenantID int64) ([]sensor.Sensor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sensorColumns+`
		FROM sensors s LEFT JOIN groups g ON g.id = s.group_id
		WHERE s.tenant_id = $1 ORDER BY s.created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	return collectSensors(rows)
}

// ListSensorsByGroup returns the group's sensors in creation order. The
// order is stable so group query responses list members consistently.
func (s *Store) ListSensorsByGroup(ctx context.Context, groupID int64) ([]sensor.Sensor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sensorColumns+`
		FROM sensors s LEFT JOIN groups g ON g.id = s.group_id
		WHERE s.group_id = $1 ORDER BY s.id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group sensors: %w", err)
	}
	return collectSensors(rows)
}

func (s *Store) GetGroupSensorByKey(ctx context.Context, groupID int64, key string) (*sensor.Sensor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sensorColumns+`
		FROM sensors s LEFT JOIN groups g ON g.id = s.group_id
		WHERE s.group_id = $1 AND s.key = $2`, groupID, key)
	return scanSensor(row, "get group sensor by key")
}

// GetGroupSensorByName matches the sensor name case-insensitively, the way
// batch ingest entries address group members.
func (s *Store) GetGroupSensorByName(ctx context.Context, groupID int64, name string) (*sensor.Sensor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sensorColumns+`
		FROM sensors s LEFT JOIN groups g ON g.id = s.group_id
		WHERE s.group_id = $1 AND LOWER(s.name) = LOWER($2)`, groupID, name)
	return scanSensor(row, "get group sensor by name")
}

// DeleteSensor removes a sensor and, via schema cascade, its readings.
func (s *Store) DeleteSensor(ctx context.Context, id, tenantID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sensors WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return execExpectOne(tag, err, "delete sensor %d", id)
}

func scanSensor(row scannable, format string, args ...any) (*sensor.Sensor, error) {
	var sn sensor.Sensor
	var groupID sql.NullInt64
	var dt string
	err := row.Scan(&sn.ID, &sn.TenantID, &groupID, &sn.Name, &dt, &sn.Key, &sn.CreatedAt, &sn.GroupName)
	if err != nil {
		return nil, notFoundWrap(err, format, args...)
	}
	if groupID.Valid {
		sn.GroupID = groupID.Int64
	}
	sn.DataType = sensor.DataType(dt)
	return &sn, nil
}

func collectSensors(rows pgx.Rows) ([]sensor.Sensor, error) {
	defer rows.Close()

	var sensors []sensor.Sensor
	for rows.Next() {
		sn, err := scanSensor(rows, "scan sensor")
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, *sn)
	}
	return orEmpty(sensors), rows.Err()
}

// nullID converts a zero id to nil for nullable foreign key columns.
func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
