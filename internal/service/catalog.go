package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/port/database"
)

// CatalogService manages the tenant-owned resource catalog: sensors,
// groups, and blueprints.
type CatalogService struct {
	store database.Store
	log   *slog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(store database.Store, log *slog.Logger) *CatalogService {
	return &CatalogService{store: store, log: log}
}

// CreateSensor registers a new sensor for the tenant. The public key is
// derived during the insert.
func (s *CatalogService) CreateSensor(ctx context.Context, tenantID int64, req sensor.CreateSensorRequest) (*sensor.Sensor, error) {
	dt, err := req.Validate()
	if err != nil {
		return nil, domain.Validationf("%s", err)
	}

	sn := &sensor.Sensor{
		TenantID: tenantID,
		GroupID:  req.GroupID,
		Name:     req.Name,
		DataType: dt,
	}

	if req.GroupID != 0 {
		gr, err := s.ownedGroup(ctx, req.GroupID, tenantID)
		if err != nil {
			return nil, err
		}
		sn.GroupName = gr.Name
	}

	sn, err = s.store.CreateSensor(ctx, sn)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Validationf("sensor with name %s already exists in group", req.Name)
		}
		return nil, fmt.Errorf("create sensor: %w", err)
	}

	s.log.InfoContext(ctx, "sensor created", "sensor", sn.Name, "key", sn.Key)
	return sn, nil
}

// ListSensors returns every sensor the tenant owns.
func (s *CatalogService) ListSensors(ctx context.Context, tenantID int64) ([]sensor.Sensor, error) {
	return s.store.ListSensors(ctx, tenantID)
}

// DeleteSensor removes a sensor and its readings.
func (s *CatalogService) DeleteSensor(ctx context.Context, id, tenantID int64) error {
	return s.store.DeleteSensor(ctx, id, tenantID)
}

// CreateGroup registers a new group for the tenant.
func (s *CatalogService) CreateGroup(ctx context.Context, tenantID int64, req sensor.CreateGroupRequest) (*sensor.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.Validationf("%s", err)
	}

	gr, err := s.store.CreateGroup(ctx, &sensor.Group{TenantID: tenantID, Name: req.Name})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Validationf("group with name %s already exists", req.Name)
		}
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.log.InfoContext(ctx, "group created", "group", gr.Name, "key", gr.Key)
	return gr, nil
}

// ListGroups returns every group the tenant owns.
func (s *CatalogService) ListGroups(ctx context.Context, tenantID int64) ([]sensor.Group, error) {
	return s.store.ListGroups(ctx, tenantID)
}

// SearchGroups lists groups across tenants by optional name filter,
// exposing only name and key.
func (s *CatalogService) SearchGroups(ctx context.Context, nameFilter string) ([]sensor.GroupRef, error) {
	groups, err := s.store.SearchGroups(ctx, nameFilter)
	if err != nil {
		return nil, err
	}
	refs := make([]sensor.GroupRef, 0, len(groups))
	for _, g := range groups {
		refs = append(refs, sensor.GroupRef{Name: g.Name, Key: g.Key})
	}
	return refs, nil
}

// DeleteGroup removes a group, its sensors, and their readings.
func (s *CatalogService) DeleteGroup(ctx context.Context, id, tenantID int64) error {
	return s.store.DeleteGroup(ctx, id, tenantID)
}

// CreateBlueprint stores a group template.
func (s *CatalogService) CreateBlueprint(ctx context.Context, tenantID int64, req sensor.CreateBlueprintRequest) (*sensor.Blueprint, error) {
	templates, err := req.Validate()
	if err != nil {
		return nil, domain.Validationf("%s", err)
	}

	bp, err := s.store.CreateBlueprint(ctx, &sensor.Blueprint{
		TenantID: tenantID,
		Name:     req.Name,
		Sensors:  templates,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Validationf("blueprint with name %s already exists", req.Name)
		}
		return nil, fmt.Errorf("create blueprint: %w", err)
	}
	return bp, nil
}

// GetBlueprint returns a blueprint with its sensor templates.
func (s *CatalogService) GetBlueprint(ctx context.Context, id, tenantID int64) (*sensor.Blueprint, error) {
	return s.store.GetBlueprint(ctx, id, tenantID)
}

// ListBlueprints returns every blueprint the tenant owns.
func (s *CatalogService) ListBlueprints(ctx context.Context, tenantID int64) ([]sensor.Blueprint, error) {
	return s.store.ListBlueprints(ctx, tenantID)
}

// DeleteBlueprint removes a blueprint and its sensor templates. Groups
// already stamped out from it are untouched.
func (s *CatalogService) DeleteBlueprint(ctx context.Context, id, tenantID int64) error {
	return s.store.DeleteBlueprint(ctx, id, tenantID)
}

// Instantiate stamps out a live group with sensors from a blueprint. The
// group and every sensor get their keys atomically.
func (s *CatalogService) Instantiate(ctx context.Context, blueprintID, tenantID int64, req sensor.InstantiateRequest) (*sensor.Group, []sensor.Sensor, error) {
	bp, err := s.store.GetBlueprint(ctx, blueprintID, tenantID)
	if err != nil {
		return nil, nil, err
	}

	name := req.Name
	if name == "" {
		name = bp.Name
	}

	sensors := make([]sensor.Sensor, 0, len(bp.Sensors))
	for _, t := range bp.Sensors {
		sensors = append(sensors, sensor.Sensor{Name: t.Name, DataType: t.DataType})
	}

	gr, created, err := s.store.CreateGroupWithSensors(ctx, &sensor.Group{TenantID: tenantID, Name: name}, sensors)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, nil, domain.Validationf("group with name %s already exists", name)
		}
		return nil, nil, fmt.Errorf("instantiate blueprint: %w", err)
	}

	s.log.InfoContext(ctx, "blueprint instantiated", "blueprint", bp.Name, "group", gr.Name, "sensors", len(created))
	return gr, created, nil
}

// ownedGroup fetches a group by id and verifies tenant ownership.
func (s *CatalogService) ownedGroup(ctx context.Context, id, tenantID int64) (*sensor.Group, error) {
	groups, err := s.store.ListGroups(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i], nil
		}
	}
	return nil, fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
}
