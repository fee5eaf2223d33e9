// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/domain/tenant"
)

// Store is the port interface for database operations.
type Store interface {
	// Tenants
	CreateTenant(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id int64) (*tenant.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (*tenant.Tenant, error)
	DeleteTenant(ctx context.Context, id int64) error

	// API keys
	CreateAPIKey(ctx context.Context, k *tenant.APIKey) (*tenant.APIKey, error)
	GetAPIKeyByToken(ctx context.Context, token string) (*tenant.APIKey, error)
	ListAPIKeys(ctx context.Context, tenantID int64) ([]tenant.APIKey, error)
	DeleteAPIKey(ctx context.Context, id, tenantID int64) error

	// Sensors
	CreateSensor(ctx context.Context, s *sensor.Sensor) (*sensor.Sensor, error)
	GetSensorByKey(ctx context.Context, key string) (*sensor.Sensor, error)
	ListSensors(ctx context.Context, tenantID int64) ([]sensor.Sensor, error)
	ListSensorsByGroup(ctx context.Context, groupID int64) ([]sensor.Sensor, error)
	GetGroupSensorByKey(ctx context.Context, groupID int64, key string) (*sensor.Sensor, error)
	GetGroupSensorByName(ctx context.Context, groupID int64, name string) (*sensor.Sensor, error)
	DeleteSensor(ctx context.Context, id, tenantID int64) error

	// Groups
	CreateGroup(ctx context.Context, g *sensor.Group) (*sensor.Group, error)
	GetGroupByKey(ctx context.Context, key string) (*sensor.Group, error)
	ListGroups(ctx context.Context, tenantID int64) ([]sensor.Group, error)
	SearchGroups(ctx context.Context, nameFilter string) ([]sensor.Group, error)
	DeleteGroup(ctx context.Context, id, tenantID int64) error

	// Readings
	AddReading(ctx context.Context, r *sensor.Reading) (*sensor.Reading, error)
	ListReadings(ctx context.Context, q sensor.ReadingQuery) ([]sensor.Reading, error)

	// Blueprints
	CreateBlueprint(ctx context.Context, b *sensor.Blueprint) (*sensor.Blueprint, error)
	GetBlueprint(ctx context.Context, id, tenantID int64) (*sensor.Blueprint, error)
	ListBlueprints(ctx context.Context, tenantID int64) ([]sensor.Blueprint, error)
	DeleteBlueprint(ctx context.Context, id, tenantID int64) error
	CreateGroupWithSensors(ctx context.Context, g *sensor.Group, sensors []sensor.Sensor) (*sensor.Group, []sensor.Sensor, error)
}
