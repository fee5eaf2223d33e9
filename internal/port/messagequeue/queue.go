// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing reading events.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Drain gracefully flushes pending publishes before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects published by sensorlog.
const (
	// SubjectReadingPrefix is followed by the sensor key, e.g. readings.P8vxwo.
	SubjectReadingPrefix = "readings."
)
