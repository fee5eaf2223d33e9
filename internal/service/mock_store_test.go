package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/domain/tenant"
)

// mockStore is an in-memory database.Store for service tests. Public keys
// are derived as "sk<id>" and "gk<id>" so tests can predict them.
type mockStore struct {
	mu sync.Mutex

	nextID     int64
	tenants    []tenant.Tenant
	apiKeys    []tenant.APIKey
	sensors    []sensor.Sensor
	groups     []sensor.Group
	readings   []sensor.Reading
	blueprints []sensor.Blueprint
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tenants {
		if existing.Email == t.Email {
			return nil, fmt.Errorf("create tenant: %w", domain.ErrConflict)
		}
	}
	t.ID = m.id()
	t.CreatedAt = time.Now().UTC()
	m.tenants = append(m.tenants, *t)
	return t, nil
}

func (m *mockStore) GetTenant(_ context.Context, id int64) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetTenantByEmail(_ context.Context, email string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].Email == email {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteTenant(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			m.tenants = append(m.tenants[:i], m.tenants[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateAPIKey(_ context.Context, k *tenant.APIKey) (*tenant.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k.ID = m.id()
	k.CreatedAt = time.Now().UTC()
	m.apiKeys = append(m.apiKeys, *k)
	return k, nil
}

func (m *mockStore) GetAPIKeyByToken(_ context.Context, token string) (*tenant.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.apiKeys {
		if m.apiKeys[i].Token == token {
			k := m.apiKeys[i]
			return &k, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListAPIKeys(_ context.Context, tenantID int64) ([]tenant.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []tenant.APIKey{}
	for _, k := range m.apiKeys {
		if k.TenantID == tenantID {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) DeleteAPIKey(_ context.Context, id, tenantID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.apiKeys {
		if m.apiKeys[i].ID == id && m.apiKeys[i].TenantID == tenantID {
			m.apiKeys = append(m.apiKeys[:i], m.apiKeys[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateSensor(_ context.Context, s *sensor.Sensor) (*sensor.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sensors {
		if existing.GroupID != 0 && existing.GroupID == s.GroupID && strings.EqualFold(existing.Name, s.Name) {
			return nil, fmt.Errorf("create sensor: %w", domain.ErrConflict)
		}
	}
	s.ID = m.id()
	s.Key = fmt.Sprintf("sk%d", s.ID)
	s.CreatedAt = time.Now().UTC()
	m.sensors = append(m.sensors, *s)
	return s, nil
}

func (m *mockStore) GetSensorByKey(_ context.Context, key string) (*sensor.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sensors {
		if m.sensors[i].Key == key {
			s := m.sensors[i]
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListSensors(_ context.Context, tenantID int64) ([]sensor.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sensors := []sensor.Sensor{}
	for _, s := range m.sensors {
		if s.TenantID == tenantID {
			sensors = append(sensors, s)
		}
	}
	return sensors, nil
}

func (m *mockStore) ListSensorsByGroup(_ context.Context, groupID int64) ([]sensor.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sensors := []sensor.Sensor{}
	for _, s := range m.sensors {
		if s.GroupID == groupID {
			sensors = append(sensors, s)
		}
	}
	return sensors, nil
}

func (m *mockStore) GetGroupSensorByKey(_ context.Context, groupID int64, key string) (*sensor.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sensors {
		if m.sensors[i].GroupID == groupID && m.sensors[i].Key == key {
			s := m.sensors[i]
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetGroupSensorByName(_ context.Context, groupID int64, name string) (*sensor.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sensors {
		if m.sensors[i].GroupID == groupID && strings.EqualFold(m.sensors[i].Name, name) {
			s := m.sensors[i]
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteSensor(_ context.Context, id, tenantID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sensors {
		if m.sensors[i].ID == id && m.sensors[i].TenantID == tenantID {
			m.sensors = append(m.sensors[:i], m.sensors[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateGroup(_ context.Context, g *sensor.Group) (*sensor.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createGroupLocked(g)
}

func (m *mockStore) createGroupLocked(g *sensor.Group) (*sensor.Group, error) {
	for _, existing := range m.groups {
		if existing.TenantID == g.TenantID && existing.Name == g.Name {
			return nil, fmt.Errorf("create group: %w", domain.ErrConflict)
		}
	}
	g.ID = m.id()
	g.Key = fmt.Sprintf("gk%d", g.ID)
	g.CreatedAt = time.Now().UTC()
	m.groups = append(m.groups, *g)
	return g, nil
}

func (m *mockStore) GetGroupByKey(_ context.Context, key string) (*sensor.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.groups {
		if m.groups[i].Key == key {
			g := m.groups[i]
			return &g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListGroups(_ context.Context, tenantID int64) ([]sensor.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := []sensor.Group{}
	for _, g := range m.groups {
		if g.TenantID == tenantID {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (m *mockStore) SearchGroups(_ context.Context, nameFilter string) ([]sensor.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := []sensor.Group{}
	for _, g := range m.groups {
		if nameFilter == "" || strings.Contains(strings.ToLower(g.Name), strings.ToLower(nameFilter)) {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (m *mockStore) DeleteGroup(_ context.Context, id, tenantID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.groups {
		if m.groups[i].ID == id && m.groups[i].TenantID == tenantID {
			m.groups = append(m.groups[:i], m.groups[i+1:]...)
			kept := m.sensors[:0]
			for _, s := range m.sensors {
				if s.GroupID != id {
					kept = append(kept, s)
				}
			}
			m.sensors = kept
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) AddReading(_ context.Context, r *sensor.Reading) (*sensor.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.readings = append(m.readings, *r)
	return r, nil
}

func (m *mockStore) ListReadings(_ context.Context, q sensor.ReadingQuery) ([]sensor.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []sensor.Reading{}
	for _, r := range m.readings {
		if r.SensorID != q.SensorID {
			continue
		}
		if !q.Since.IsZero() && r.CreatedAt.Before(q.Since) {
			continue
		}
		matched = append(matched, r)
	}

	// readings are appended in time order; reverse for descending
	if !q.Ascending {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (m *mockStore) CreateBlueprint(_ context.Context, b *sensor.Blueprint) (*sensor.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.blueprints {
		if existing.TenantID == b.TenantID && existing.Name == b.Name {
			return nil, fmt.Errorf("create blueprint: %w", domain.ErrConflict)
		}
	}
	b.ID = m.id()
	b.CreatedAt = time.Now().UTC()
	for i := range b.Sensors {
		b.Sensors[i].ID = m.id()
		b.Sensors[i].BlueprintID = b.ID
	}
	m.blueprints = append(m.blueprints, *b)
	return b, nil
}

func (m *mockStore) GetBlueprint(_ context.Context, id, tenantID int64) (*sensor.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.blueprints {
		if m.blueprints[i].ID == id && m.blueprints[i].TenantID == tenantID {
			b := m.blueprints[i]
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListBlueprints(_ context.Context, tenantID int64) ([]sensor.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blueprints := []sensor.Blueprint{}
	for _, b := range m.blueprints {
		if b.TenantID == tenantID {
			blueprints = append(blueprints, b)
		}
	}
	return blueprints, nil
}

func (m *mockStore) DeleteBlueprint(_ context.Context, id, tenantID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.blueprints {
		if m.blueprints[i].ID == id && m.blueprints[i].TenantID == tenantID {
			m.blueprints = append(m.blueprints[:i], m.blueprints[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateGroupWithSensors(_ context.Context, g *sensor.Group, sensors []sensor.Sensor) (*sensor.Group, []sensor.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, err := m.createGroupLocked(g)
	if err != nil {
		return nil, nil, err
	}
	for i := range sensors {
		sensors[i].ID = m.id()
		sensors[i].TenantID = g.TenantID
		sensors[i].GroupID = g.ID
		sensors[i].GroupName = g.Name
		sensors[i].Key = fmt.Sprintf("sk%d", sensors[i].ID)
		sensors[i].CreatedAt = time.Now().UTC()
		m.sensors = append(m.sensors, sensors[i])
	}
	return g, sensors, nil
}
