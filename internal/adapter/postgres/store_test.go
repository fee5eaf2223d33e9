package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sensorlog/sensorlog/internal/adapter/postgres"
	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/domain/tenant"
	"github.com/sensorlog/sensorlog/internal/keycode"
)

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()

	// Run goose migrations first (uses embedded SQL files).
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	sensorKeys, err := keycode.New("Sensor salt xyz", 6)
	if err != nil {
		t.Fatalf("sensor codec: %v", err)
	}
	groupKeys, err := keycode.New("Group salt abc", 6)
	if err != nil {
		t.Fatalf("group codec: %v", err)
	}

	return postgres.NewStore(pool, sensorKeys, groupKeys)
}

// createTestTenant creates a tenant with a random email and returns it.
// The tenant is deleted via t.Cleanup, cascading all its resources.
func createTestTenant(t *testing.T, store *postgres.Store) *tenant.Tenant {
	t.Helper()
	tn, err := store.CreateTenant(context.Background(), &tenant.Tenant{
		FirstName:    "Test",
		LastName:     "Tenant",
		Email:        "test-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "$2a$12$fakehashfortests",
	})
	if err != nil {
		t.Fatalf("create test tenant: %v", err)
	}
	t.Cleanup(func() {
		_ = store.DeleteTenant(context.Background(), tn.ID)
	})
	return tn
}

func TestStore_TenantCRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	tn := createTestTenant(t, store)
	if tn.ID == 0 {
		t.Fatal("expected non-zero tenant id")
	}

	got, err := store.GetTenantByEmail(ctx, tn.Email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != tn.ID {
		t.Errorf("id = %d, want %d", got.ID, tn.ID)
	}

	if _, err := store.CreateTenant(ctx, &tenant.Tenant{
		Email:        tn.Email,
		PasswordHash: "x",
	}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate email: err = %v, want ErrConflict", err)
	}

	if _, err := store.GetTenant(ctx, 999999999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing tenant: err = %v, want ErrNotFound", err)
	}
}

func TestStore_APIKeyCRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tn := createTestTenant(t, store)

	k, err := store.CreateAPIKey(ctx, &tenant.APIKey{
		TenantID: tn.ID,
		Name:     "ingest",
		Token:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}

	got, err := store.GetAPIKeyByToken(ctx, k.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got.TenantID != tn.ID {
		t.Errorf("tenant id = %d, want %d", got.TenantID, tn.ID)
	}

	keys, err := store.ListAPIKeys(ctx, tn.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("len = %d, want 1", len(keys))
	}

	if err := store.DeleteAPIKey(ctx, k.ID, tn.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetAPIKeyByToken(ctx, k.Token); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted key: err = %v, want ErrNotFound", err)
	}
}

func TestStore_SensorKeyDerivation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tn := createTestTenant(t, store)

	sn, err := store.CreateSensor(ctx, &sensor.Sensor{
		TenantID: tn.ID,
		Name:     "temperature",
		DataType: sensor.TypeFloat,
	})
	if err != nil {
		t.Fatalf("create sensor: %v", err)
	}
	if sn.Key == "" {
		t.Fatal("sensor key must be set on create")
	}

	got, err := store.GetSensorByKey(ctx, sn.Key)
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got.ID != sn.ID || got.DataType != sensor.TypeFloat {
		t.Errorf("got %+v", got)
	}
	if got.GroupName != "" {
		t.Errorf("ungrouped sensor group name = %q, want empty", got.GroupName)
	}
}

func TestStore_GroupCascade(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tn := createTestTenant(t, store)

	g, err := store.CreateGroup(ctx, &sensor.Group{TenantID: tn.ID, Name: "greenhouse"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Key == "" {
		t.Fatal("group key must be set on create")
	}

	sn, err := store.CreateSensor(ctx, &sensor.Sensor{
		TenantID: tn.ID,
		GroupID:  g.ID,
		Name:     "humidity",
		DataType: sensor.TypeInteger,
	})
	if err != nil {
		t.Fatalf("create sensor: %v", err)
	}

	if _, err := store.AddReading(ctx, &sensor.Reading{SensorID: sn.ID, Value: "55"}); err != nil {
		t.Fatalf("add reading: %v", err)
	}

	if err := store.DeleteGroup(ctx, g.ID, tn.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if _, err := store.GetSensorByKey(ctx, sn.Key); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("sensor should cascade with group, err = %v", err)
	}
}

func TestStore_GroupNameConflict(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tn := createTestTenant(t, store)

	if _, err := store.CreateGroup(ctx, &sensor.Group{TenantID: tn.ID, Name: "dup"}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := store.CreateGroup(ctx, &sensor.Group{TenantID: tn.ID, Name: "dup"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate group name: err = %v, want ErrConflict", err)
	}
}

func TestStore_ListReadings(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tn := createTestTenant(t, store)

	sn, err := store.CreateSensor(ctx, &sensor.Sensor{
		TenantID: tn.ID,
		Name:     "counter",
		DataType: sensor.TypeInteger,
	})
	if err != nil {
		t.Fatalf("create sensor: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := range 5 {
		_, err := store.AddReading(ctx, &sensor.Reading{
			SensorID:  sn.ID,
			Value:     "1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("add reading %d: %v", i, err)
		}
	}

	desc, err := store.ListReadings(ctx, sensor.ReadingQuery{SensorID: sn.ID, Limit: 3})
	if err != nil {
		t.Fatalf("list desc: %v", err)
	}
	if len(desc) != 3 {
		t.Fatalf("len = %d, want 3", len(desc))
	}
	if !desc[0].CreatedAt.After(desc[2].CreatedAt) {
		t.Error("descending order expected")
	}

	since, err := store.ListReadings(ctx, sensor.ReadingQuery{
		SensorID:  sn.ID,
		Ascending: true,
		Since:     base.Add(3 * time.Minute),
	})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("since len = %d, want 2", len(since))
	}
}

func TestStore_BlueprintInstantiate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	tn := createTestTenant(t, store)

	bp, err := store.CreateBlueprint(ctx, &sensor.Blueprint{
		TenantID: tn.ID,
		Name:     "weather-station",
		Sensors: []sensor.BlueprintSensor{
			{Name: "temperature", DataType: sensor.TypeFloat},
			{Name: "rain", DataType: sensor.TypeBoolean},
		},
	})
	if err != nil {
		t.Fatalf("create blueprint: %v", err)
	}

	got, err := store.GetBlueprint(ctx, bp.ID, tn.ID)
	if err != nil {
		t.Fatalf("get blueprint: %v", err)
	}
	if len(got.Sensors) != 2 {
		t.Fatalf("sensors = %d, want 2", len(got.Sensors))
	}

	g, sensors, err := store.CreateGroupWithSensors(ctx,
		&sensor.Group{TenantID: tn.ID, Name: "station-1"},
		[]sensor.Sensor{
			{Name: "temperature", DataType: sensor.TypeFloat},
			{Name: "rain", DataType: sensor.TypeBoolean},
		})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if g.Key == "" {
		t.Error("group key must be set")
	}
	for _, sn := range sensors {
		if sn.Key == "" {
			t.Errorf("sensor %s key must be set", sn.Name)
		}
		if sn.GroupID != g.ID {
			t.Errorf("sensor %s group id = %d, want %d", sn.Name, sn.GroupID, g.ID)
		}
	}
}
