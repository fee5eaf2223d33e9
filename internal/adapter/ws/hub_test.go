package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/domain/tenant"
	"github.com/sensorlog/sensorlog/internal/port/database"
	"github.com/sensorlog/sensorlog/internal/service"
)

type stubStore struct {
	database.Store
	sensor *sensor.Sensor
	apiKey *tenant.APIKey
}

func (s *stubStore) GetSensorByKey(_ context.Context, key string) (*sensor.Sensor, error) {
	if s.sensor != nil && s.sensor.Key == key {
		return s.sensor, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) GetAPIKeyByToken(_ context.Context, token string) (*tenant.APIKey, error) {
	if s.apiKey != nil && s.apiKey.Token == token {
		return s.apiKey, nil
	}
	return nil, domain.ErrNotFound
}

func newTestHub() *Hub {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &stubStore{
		sensor: &sensor.Sensor{ID: 1, TenantID: 1, Key: "sk1", Name: "temp", DataType: sensor.TypeInteger},
		apiKey: &tenant.APIKey{ID: 1, TenantID: 1, Token: "token-a"},
	}
	return NewHub(service.NewGuard(store, log), log)
}

func TestServeSensor_BadCredential(t *testing.T) {
	h := newTestHub()

	req := httptest.NewRequest(http.MethodGet, "/ws?apikey=bogus&sensor=sk1", nil)
	w := httptest.NewRecorder()
	h.ServeSensor(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestServeSensor_UnknownSensor(t *testing.T) {
	h := newTestHub()

	req := httptest.NewRequest(http.MethodGet, "/ws?apikey=token-a&sensor=nope", nil)
	w := httptest.NewRecorder()
	h.ServeSensor(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestReadingAdded_NoSubscribers(t *testing.T) {
	h := newTestHub()

	// Nothing subscribed: must be a no-op, not a panic.
	h.ReadingAdded(context.Background(), &sensor.Sensor{Key: "sk1"}, &sensor.Reading{Value: "7"})

	if n := h.SubscriberCount("sk1"); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
}
