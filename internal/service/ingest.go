package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/port/database"
)

// ReadingSink observes successfully persisted readings. Implementations
// fan the reading out to live subscribers or a message broker; failures
// there never fail the ingest.
type ReadingSink interface {
	ReadingAdded(ctx context.Context, sn *sensor.Sensor, r *sensor.Reading)
}

// BatchEntry is one element of a group batch ingest body. A sensor is
// addressed by its public key or, failing that, by name within the group.
type BatchEntry struct {
	Value      any    `json:"value"`
	Sensor     string `json:"sensor,omitempty"`
	SensorName string `json:"sensor_name,omitempty"`
}

// BatchResult reports a group batch ingest: per-entry log lines joined by
// newlines, and whether every entry persisted.
type BatchResult struct {
	OK      bool
	Message string
}

// IngestService appends readings. Values are stored verbatim as text;
// nothing is validated against the sensor's declared type at write time.
type IngestService struct {
	store   database.Store
	log     *slog.Logger
	sinks   []ReadingSink
	metrics IngestMetrics
}

// IngestMetrics receives counters from the ingest path.
type IngestMetrics interface {
	ReadingIngested(ctx context.Context)
}

type nopIngestMetrics struct{}

func (nopIngestMetrics) ReadingIngested(context.Context) {}

// NewIngestService creates an IngestService. metrics may be nil.
func NewIngestService(store database.Store, log *slog.Logger, metrics IngestMetrics) *IngestService {
	if metrics == nil {
		metrics = nopIngestMetrics{}
	}
	return &IngestService{store: store, log: log, metrics: metrics}
}

// AddSink registers a sink notified after each persisted reading.
func (s *IngestService) AddSink(sink ReadingSink) {
	s.sinks = append(s.sinks, sink)
}

// Append stores one raw value for the sensor.
func (s *IngestService) Append(ctx context.Context, sn *sensor.Sensor, value string) error {
	r, err := s.store.AddReading(ctx, &sensor.Reading{SensorID: sn.ID, Value: value})
	if err != nil {
		return fmt.Errorf("append reading: %w", err)
	}

	s.metrics.ReadingIngested(ctx)
	for _, sink := range s.sinks {
		sink.ReadingAdded(ctx, sn, r)
	}
	return nil
}

// AppendBatch stores one value per entry for sensors in the group. Entries
// that resolve are persisted even when others fail; the result message
// carries one log line per entry and OK is false if any entry failed.
func (s *IngestService) AppendBatch(ctx context.Context, gr *sensor.Group, entries []BatchEntry) (BatchResult, error) {
	lines := make([]string, 0, len(entries))
	ok := true

	for _, e := range entries {
		sn, line := s.resolveEntry(ctx, gr, e)
		if sn == nil {
			ok = false
			lines = append(lines, line)
			continue
		}
		if e.Value == nil {
			ok = false
			lines = append(lines, fmt.Sprintf("%s: You are missing the value", sn.Name))
			continue
		}

		if err := s.Append(ctx, sn, stringify(e.Value)); err != nil {
			s.log.ErrorContext(ctx, "batch append failed", "sensor", sn.Name, "error", err)
			ok = false
			lines = append(lines, fmt.Sprintf("%s: Oops, something went wrong", sn.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: OK", sn.Name))
	}

	return BatchResult{OK: ok, Message: strings.Join(lines, "\n")}, nil
}

// resolveEntry finds the target sensor by key first, then by name. The
// returned line is only meaningful when the sensor is nil.
func (s *IngestService) resolveEntry(ctx context.Context, gr *sensor.Group, e BatchEntry) (*sensor.Sensor, string) {
	if e.Sensor != "" {
		sn, err := s.store.GetGroupSensorByKey(ctx, gr.ID, e.Sensor)
		if err == nil {
			return sn, ""
		}
		return nil, fmt.Sprintf("%s: Invalid sensor key", e.Sensor)
	}
	if e.SensorName != "" {
		sn, err := s.store.GetGroupSensorByName(ctx, gr.ID, e.SensorName)
		if err == nil {
			return sn, ""
		}
		return nil, fmt.Sprintf("%s: Invalid sensor name", e.SensorName)
	}
	return nil, "Entry missing `sensor` or `sensor_name`"
}

// stringify renders a JSON-decoded value as the raw text to store.
// json.Number keeps the client's literal digits intact.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
