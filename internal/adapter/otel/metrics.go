package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sensorlog"

// Metrics holds all sensorlog metric instruments. It implements the service
// layer's QueryMetrics and IngestMetrics interfaces.
type Metrics struct {
	ReadingsIngested metric.Int64Counter
	QueriesServed    metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ReadingsIngested, err = meter.Int64Counter("sensorlog.readings.ingested",
		metric.WithDescription("Number of readings appended"))
	if err != nil {
		return nil, err
	}

	m.QueriesServed, err = meter.Int64Counter("sensorlog.queries.served",
		metric.WithDescription("Number of data queries served"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ReadingIngested counts one appended reading.
func (m *Metrics) ReadingIngested(ctx context.Context) {
	m.ReadingsIngested.Add(ctx, 1)
}

// QueryServed counts one served query, labelled sensor or group.
func (m *Metrics) QueryServed(ctx context.Context, kind string) {
	m.QueriesServed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
