package service

import (
	"context"
	"strings"
	"testing"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/domain/tenant"
)

type ingestFixture struct {
	store *mockStore
	svc   *IngestService
	group *sensor.Group
	s1    *sensor.Sensor
	s2    *sensor.Sensor
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	ctx := context.Background()
	store := &mockStore{}

	tn, err := store.CreateTenant(ctx, &tenant.Tenant{Email: "i@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	g, err := store.CreateGroup(ctx, &sensor.Group{TenantID: tn.ID, Name: "plant"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	s1, err := store.CreateSensor(ctx, &sensor.Sensor{TenantID: tn.ID, GroupID: g.ID, Name: "Moisture", DataType: sensor.TypeInteger})
	if err != nil {
		t.Fatalf("create s1: %v", err)
	}
	s2, err := store.CreateSensor(ctx, &sensor.Sensor{TenantID: tn.ID, GroupID: g.ID, Name: "Light", DataType: sensor.TypeFloat})
	if err != nil {
		t.Fatalf("create s2: %v", err)
	}

	return &ingestFixture{
		store: store,
		svc:   NewIngestService(store, discardLogger(), nil),
		group: g,
		s1:    s1,
		s2:    s2,
	}
}

type captureSink struct {
	sensors []string
	values  []string
}

func (c *captureSink) ReadingAdded(_ context.Context, sn *sensor.Sensor, r *sensor.Reading) {
	c.sensors = append(c.sensors, sn.Name)
	c.values = append(c.values, r.Value)
}

func TestIngest_AppendStoresVerbatim(t *testing.T) {
	f := newIngestFixture(t)

	// not an integer, but write-time never validates
	if err := f.svc.Append(context.Background(), f.s1, "banana"); err != nil {
		t.Fatalf("append: %v", err)
	}

	readings, err := f.store.ListReadings(context.Background(), sensor.ReadingQuery{SensorID: f.s1.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(readings) != 1 || readings[0].Value != "banana" {
		t.Errorf("readings = %+v", readings)
	}
}

func TestIngest_SinkNotified(t *testing.T) {
	f := newIngestFixture(t)
	sink := &captureSink{}
	f.svc.AddSink(sink)

	if err := f.svc.Append(context.Background(), f.s1, "42"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(sink.sensors) != 1 || sink.sensors[0] != "Moisture" || sink.values[0] != "42" {
		t.Errorf("sink = %+v", sink)
	}
}

// Batch ingest persists what it can: one bad entry does not roll back the
// good ones.
func TestIngest_BatchPartialSuccess(t *testing.T) {
	f := newIngestFixture(t)

	res, err := f.svc.AppendBatch(context.Background(), f.group, []BatchEntry{
		{SensorName: "moisture", Value: "1"},
		{SensorName: "missing", Value: "2"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.OK {
		t.Error("OK = true, want false with a failed entry")
	}
	if !strings.Contains(res.Message, "missing") {
		t.Errorf("message %q should mention the invalid sensor", res.Message)
	}

	lines := strings.Split(res.Message, "\n")
	if len(lines) != 2 {
		t.Errorf("expected one log line per entry, got %d", len(lines))
	}

	readings, err := f.store.ListReadings(context.Background(), sensor.ReadingQuery{SensorID: f.s1.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(readings) != 1 || readings[0].Value != "1" {
		t.Errorf("valid entry should persist, got %+v", readings)
	}
}

func TestIngest_BatchByKeyAndName(t *testing.T) {
	f := newIngestFixture(t)

	res, err := f.svc.AppendBatch(context.Background(), f.group, []BatchEntry{
		{Sensor: f.s1.Key, Value: "10"},
		{SensorName: "LIGHT", Value: "0.5"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !res.OK {
		t.Errorf("OK = false, message %q", res.Message)
	}

	for _, sn := range []*sensor.Sensor{f.s1, f.s2} {
		readings, err := f.store.ListReadings(context.Background(), sensor.ReadingQuery{SensorID: sn.ID})
		if err != nil {
			t.Fatalf("list %s: %v", sn.Name, err)
		}
		if len(readings) != 1 {
			t.Errorf("%s readings = %d, want 1", sn.Name, len(readings))
		}
	}
}

func TestIngest_BatchMissingValue(t *testing.T) {
	f := newIngestFixture(t)

	res, err := f.svc.AppendBatch(context.Background(), f.group, []BatchEntry{
		{SensorName: "Moisture"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.OK {
		t.Error("OK = true, want false")
	}
	if !strings.Contains(res.Message, "You are missing the value") {
		t.Errorf("message = %q", res.Message)
	}
}
