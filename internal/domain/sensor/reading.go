package sensor

import "time"

// Reading is one timestamped raw value recorded for a sensor. Readings are
// immutable: the only operations are append and cascade delete.
type Reading struct {
	ID        int64
	SensorID  int64
	Value     string
	CreatedAt time.Time
}

// ReadingQuery selects readings for one sensor. A zero Limit means all rows;
// a zero Since means no date filter.
type ReadingQuery struct {
	SensorID  int64
	Ascending bool
	Limit     int
	Since     time.Time
}

// timestampLayout renders UTC timestamps with microsecond precision; the
// explicit +00:00 suffix is part of the wire contract.
const timestampLayout = "2006-01-02T15:04:05.000000"

// FormatTimestamp renders t as an ISO-8601 UTC string with an explicit
// +00:00 offset.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout) + "+00:00"
}

// Point is a successfully coerced reading.
type Point struct {
	Timestamp string `json:"timestamp"`
	Value     any    `json:"value"`
}

// FailedPoint is a reading whose raw value did not coerce to the sensor's
// declared type. It is reported, never silently dropped.
type FailedPoint struct {
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
	ErrorMsg  string `json:"error_msg"`
}

// Partition coerces each reading to the declared type, splitting the
// sequence into parsed points and failed points. Both slices are non-nil so
// they serialize as [] rather than null.
func Partition(readings []Reading, dt DataType) ([]Point, []FailedPoint) {
	values := make([]Point, 0, len(readings))
	failed := make([]FailedPoint, 0)

	for _, r := range readings {
		v, err := Coerce(r.Value, dt)
		if err != nil {
			failed = append(failed, FailedPoint{
				Timestamp: FormatTimestamp(r.CreatedAt),
				Value:     r.Value,
				ErrorMsg:  "could not convert data point to " + string(dt),
			})
			continue
		}
		values = append(values, Point{
			Timestamp: FormatTimestamp(r.CreatedAt),
			Value:     v,
		})
	}
	return values, failed
}
