package nats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/port/messagequeue"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

func TestQueue_PublishAndIsConnected(t *testing.T) {
	q := testConnect(t)

	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect, want true")
	}

	subject := messagequeue.SubjectReadingPrefix + "test." + t.Name()
	if err := q.Publish(context.Background(), subject, []byte(`{"value":"1"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

// fakeQueue records published messages in memory.
type fakeQueue struct {
	subjects []string
	bodies   [][]byte
	err      error
}

func (f *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, data)
	return nil
}

func (f *fakeQueue) Drain() error      { return nil }
func (f *fakeQueue) Close() error      { return nil }
func (f *fakeQueue) IsConnected() bool { return true }

func TestReadingPublisher(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fq := &fakeQueue{}
	pub := NewReadingPublisher(fq, log)

	sn := &sensor.Sensor{ID: 1, Key: "P8vxwo", Name: "temp"}
	r := &sensor.Reading{
		SensorID:  1,
		Value:     "21",
		CreatedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
	pub.ReadingAdded(context.Background(), sn, r)

	if len(fq.subjects) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fq.subjects))
	}
	if fq.subjects[0] != "readings.P8vxwo" {
		t.Errorf("subject = %q, want %q", fq.subjects[0], "readings.P8vxwo")
	}

	var ev readingEvent
	if err := json.Unmarshal(fq.bodies[0], &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Sensor != "P8vxwo" || ev.Value != "21" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Timestamp != "2024-05-01T10:30:00.000000+00:00" {
		t.Errorf("timestamp = %q", ev.Timestamp)
	}
}

func TestReadingPublisher_PublishFailureIsSwallowed(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fq := &fakeQueue{err: errors.New("broker down")}
	pub := NewReadingPublisher(fq, log)

	// Must not panic or propagate; ingest never fails on a sink error.
	pub.ReadingAdded(context.Background(), &sensor.Sensor{Key: "x"}, &sensor.Reading{Value: "1"})
}
