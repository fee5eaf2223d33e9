package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
)

// AddReading appends one raw value for a sensor. The value is stored
// verbatim; type coercion happens at read time.
func (s *Store) AddReading(ctx context.Context, r *sensor.Reading) (*sensor.Reading, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sensor_readings (sensor_id, value, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		r.SensorID, r.Value, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("add reading: %w", err)
	}
	return r, nil
}

// ListReadings returns one sensor's readings per the query: sort direction,
// optional row limit, optional lower timestamp bound.
func (s *Store) ListReadings(ctx context.Context, q sensor.ReadingQuery) ([]sensor.Reading, error) {
	query := `
		SELECT id, sensor_id, value, created_at
		FROM sensor_readings WHERE sensor_id = $1`
	args := []any{q.SensorID}

	if !q.Since.IsZero() {
		args = append(args, q.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if q.Ascending {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var readings []sensor.Reading
	for rows.Next() {
		var r sensor.Reading
		if err := rows.Scan(&r.ID, &r.SensorID, &r.Value, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return orEmpty(readings), rows.Err()
}
