// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/port/messagequeue"
)

const streamName = "SENSORLOG"

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the readings stream
// exists.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{messagequeue.SubjectReadingPrefix + ">"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// Publish sends a message to the given subject.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := q.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Drain flushes pending publishes and closes the connection.
func (q *Queue) Drain() error {
	return q.nc.Drain()
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the NATS connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}

// readingEvent is the JSON body published for each persisted reading.
type readingEvent struct {
	Sensor    string `json:"sensor"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}

// ReadingPublisher fans persisted readings out to JetStream, one subject
// per sensor key. It implements service.ReadingSink; publish failures are
// logged and never fail the ingest.
type ReadingPublisher struct {
	queue messagequeue.Queue
	log   *slog.Logger
}

// NewReadingPublisher creates a ReadingPublisher over the given queue.
func NewReadingPublisher(queue messagequeue.Queue, log *slog.Logger) *ReadingPublisher {
	return &ReadingPublisher{queue: queue, log: log}
}

// ReadingAdded publishes the reading on readings.<sensorKey>.
func (p *ReadingPublisher) ReadingAdded(ctx context.Context, sn *sensor.Sensor, r *sensor.Reading) {
	data, err := json.Marshal(readingEvent{
		Sensor:    sn.Key,
		Value:     r.Value,
		Timestamp: sensor.FormatTimestamp(r.CreatedAt),
	})
	if err != nil {
		p.log.ErrorContext(ctx, "reading event marshal failed", "error", err)
		return
	}

	subject := messagequeue.SubjectReadingPrefix + sn.Key
	if err := p.queue.Publish(ctx, subject, data); err != nil {
		p.log.ErrorContext(ctx, "reading event publish failed", "subject", subject, "error", err)
	}
}
