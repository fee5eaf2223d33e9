package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/port/database"
)

// QueryOptions is a parsed read request: sort direction plus either a plain
// row limit or an anchored window "<sensorName>:<N>".
type QueryOptions struct {
	Ascending   bool
	Limit       int
	Anchored    bool
	AnchorName  string
	AnchorCount int
}

// ParseQueryOptions interprets the raw sort_by and limit query parameters.
// A limit containing a colon is an anchored window, which is only valid
// with descending sort.
func ParseQueryOptions(sortBy, limit string) (QueryOptions, error) {
	opts := QueryOptions{Ascending: strings.EqualFold(sortBy, "asc")}

	if limit == "" {
		return opts, nil
	}

	if name, count, ok := strings.Cut(limit, ":"); ok {
		n, err := strconv.Atoi(count)
		if err != nil || name == "" {
			return QueryOptions{}, domain.Validationf("Invalid limit: %s", limit)
		}
		if opts.Ascending {
			return QueryOptions{}, domain.Validationf("Anchored limit requires sort_by=desc")
		}
		opts.Anchored = true
		opts.AnchorName = name
		if n < 0 {
			n = -n
		}
		opts.AnchorCount = n
		return opts, nil
	}

	n, err := strconv.Atoi(limit)
	if err != nil {
		return QueryOptions{}, domain.Validationf("Invalid limit: %s", limit)
	}
	if n < 0 {
		n = -n
	}
	opts.Limit = n
	return opts, nil
}

// SensorInfo is the descriptive header of a sensor data response.
type SensorInfo struct {
	Name      string `json:"name"`
	DateAdded string `json:"date_added"`
	Key       string `json:"key"`
	Group     string `json:"group"`
	DataType  string `json:"data_type"`
}

// ValueErrors wraps the readings that failed type coercion.
type ValueErrors struct {
	Values []sensor.FailedPoint `json:"values"`
}

// SensorData is one sensor's query result: its description, the coerced
// readings, and the readings that failed coercion.
type SensorData struct {
	Sensor SensorInfo     `json:"sensor"`
	Values []sensor.Point `json:"values"`
	Errors ValueErrors    `json:"errors"`
}

// GroupData is a group query result, one entry per member sensor in stable
// member order.
type GroupData struct {
	Entries []SensorData
	Message string
}

// QueryService reads sensor and group time series.
type QueryService struct {
	store   database.Store
	log     *slog.Logger
	metrics QueryMetrics
}

// QueryMetrics receives counters from the query path. The zero-value no-op
// implementation is used when telemetry is disabled.
type QueryMetrics interface {
	QueryServed(ctx context.Context, kind string)
}

type nopQueryMetrics struct{}

func (nopQueryMetrics) QueryServed(context.Context, string) {}

// NewQueryService creates a QueryService. metrics may be nil.
func NewQueryService(store database.Store, log *slog.Logger, metrics QueryMetrics) *QueryService {
	if metrics == nil {
		metrics = nopQueryMetrics{}
	}
	return &QueryService{store: store, log: log, metrics: metrics}
}

// QuerySensor returns one sensor's readings per the options, coerced to the
// sensor's declared type.
func (s *QueryService) QuerySensor(ctx context.Context, sn *sensor.Sensor, opts QueryOptions) (SensorData, error) {
	if opts.Anchored {
		return SensorData{}, domain.Validationf("Invalid limit: %s:%d", opts.AnchorName, opts.AnchorCount)
	}
	s.metrics.QueryServed(ctx, "sensor")
	return s.querySensorWindow(ctx, sn, sensor.ReadingQuery{
		SensorID:  sn.ID,
		Ascending: opts.Ascending,
		Limit:     opts.Limit,
	})
}

// QueryGroup returns readings for every sensor in the group. Anchored
// queries time-align all members to the anchor sensor's window instead of
// truncating each member by count.
func (s *QueryService) QueryGroup(ctx context.Context, gr *sensor.Group, opts QueryOptions) (GroupData, error) {
	s.metrics.QueryServed(ctx, "group")

	members, err := s.store.ListSensorsByGroup(ctx, gr.ID)
	if err != nil {
		return GroupData{}, fmt.Errorf("list group sensors: %w", err)
	}

	if opts.Anchored {
		return s.queryGroupAnchored(ctx, gr, members, opts)
	}

	entries := make([]SensorData, len(members))
	g, gctx := errgroup.WithContext(ctx)
	for i := range members {
		g.Go(func() error {
			data, err := s.querySensorWindow(gctx, &members[i], sensor.ReadingQuery{
				SensorID:  members[i].ID,
				Ascending: opts.Ascending,
				Limit:     opts.Limit,
			})
			if err != nil {
				return err
			}
			entries[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return GroupData{}, err
	}
	return GroupData{Entries: entries}, nil
}

func (s *QueryService) queryGroupAnchored(ctx context.Context, gr *sensor.Group, members []sensor.Sensor, opts QueryOptions) (GroupData, error) {
	anchor, err := s.store.GetGroupSensorByName(ctx, gr.ID, opts.AnchorName)
	if err != nil {
		return GroupData{}, domain.Validationf("Invalid limit: no sensor named %s in group", opts.AnchorName)
	}

	anchorReadings, err := s.store.ListReadings(ctx, sensor.ReadingQuery{
		SensorID: anchor.ID,
		Limit:    opts.AnchorCount,
	})
	if err != nil {
		return GroupData{}, fmt.Errorf("list anchor readings: %w", err)
	}

	if len(anchorReadings) == 0 {
		return GroupData{
			Entries: []SensorData{},
			Message: fmt.Sprintf("Anchor sensor %s has no data", anchor.Name),
		}, nil
	}

	// The anchor window is sorted descending, so its last reading is the
	// oldest. Every other sensor is aligned to that timestamp.
	anchorData := buildSensorData(anchor, anchorReadings)
	since := anchorReadings[len(anchorReadings)-1].CreatedAt

	entries := make([]SensorData, len(members))
	g, gctx := errgroup.WithContext(ctx)
	for i := range members {
		if members[i].ID == anchor.ID {
			entries[i] = anchorData
			continue
		}
		g.Go(func() error {
			data, err := s.querySensorWindow(gctx, &members[i], sensor.ReadingQuery{
				SensorID: members[i].ID,
				Since:    since,
			})
			if err != nil {
				return err
			}
			entries[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return GroupData{}, err
	}
	return GroupData{Entries: entries}, nil
}

func (s *QueryService) querySensorWindow(ctx context.Context, sn *sensor.Sensor, q sensor.ReadingQuery) (SensorData, error) {
	readings, err := s.store.ListReadings(ctx, q)
	if err != nil {
		return SensorData{}, fmt.Errorf("list readings: %w", err)
	}
	return buildSensorData(sn, readings), nil
}

func buildSensorData(sn *sensor.Sensor, readings []sensor.Reading) SensorData {
	values, failed := sensor.Partition(readings, sn.DataType)
	return SensorData{
		Sensor: SensorInfo{
			Name:      sn.Name,
			DateAdded: sensor.FormatTimestamp(sn.CreatedAt),
			Key:       sn.Key,
			Group:     sn.GroupName,
			DataType:  string(sn.DataType),
		},
		Values: values,
		Errors: ValueErrors{Values: failed},
	}
}
