package http

import (
	"log/slog"
	"net/http"

	"github.com/sensorlog/sensorlog/internal/domain"
	"github.com/sensorlog/sensorlog/internal/service"
)

// internalMsg is the only text an unexpected fault ever shows a caller.
const internalMsg = "Oops, something went wrong"

// DataHandler serves the device-facing data API. All authentication is per
// request via the apikey query parameter; failures other than credential
// rejections travel inside the 200 envelope.
type DataHandler struct {
	guard   *service.Guard
	query   *service.QueryService
	ingest  *service.IngestService
	catalog *service.CatalogService
	log     *slog.Logger
}

// NewDataHandler creates a DataHandler.
func NewDataHandler(guard *service.Guard, query *service.QueryService, ingest *service.IngestService, catalog *service.CatalogService, log *slog.Logger) *DataHandler {
	return &DataHandler{guard: guard, query: query, ingest: ingest, catalog: catalog, log: log}
}

// authorize runs the guard and writes the failure response if the request
// may not proceed. Returns the outcome and whether the handler should
// continue.
func (h *DataHandler) authorize(w http.ResponseWriter, r *http.Request, kind service.ResourceKind, resourceKey string) (service.Outcome, bool) {
	out, err := h.guard.Authorize(r.Context(), r.URL.Query().Get("apikey"), kind, resourceKey)
	if err != nil {
		h.log.ErrorContext(r.Context(), "authorize failed", "error", err)
		writeEnvelope(w, false, internalMsg, nil)
		return out, false
	}

	switch out.Decision {
	case service.Allowed:
		return out, true
	case service.ResourceError:
		writeEnvelope(w, false, out.Message, nil)
		return out, false
	default:
		// Credential rejection: transport-level, no body.
		w.WriteHeader(http.StatusUnauthorized)
		return out, false
	}
}

// GetData serves GET /api/v1/get: one sensor's series or a whole group's,
// selected by the sensor or group query parameter.
func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := service.KindNone
	resourceKey := ""
	switch {
	case q.Has("sensor"):
		kind = service.KindSensor
		resourceKey = q.Get("sensor")
	case q.Has("group"):
		kind = service.KindGroup
		resourceKey = q.Get("group")
	}

	out, ok := h.authorize(w, r, kind, resourceKey)
	if !ok {
		return
	}
	if kind == service.KindNone {
		writeEnvelope(w, false, "Must pass in a `group` or `sensor` key", nil)
		return
	}

	opts, err := service.ParseQueryOptions(q.Get("sort_by"), q.Get("limit"))
	if err != nil {
		writeEnvelope(w, false, domain.ValidationMessage(err), nil)
		return
	}

	if kind == service.KindSensor {
		data, err := h.query.QuerySensor(r.Context(), out.Sensor, opts)
		if err != nil {
			h.writeQueryError(w, r, err)
			return
		}
		writeEnvelope(w, true, "", data)
		return
	}

	group, err := h.query.QueryGroup(r.Context(), out.Group, opts)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	writeEnvelope(w, true, group.Message, group.Entries)
}

// AddData serves GET /api/v1/add: append one raw value to a sensor.
func (h *DataHandler) AddData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	out, ok := h.authorize(w, r, service.KindSensor, q.Get("sensor"))
	if !ok {
		return
	}

	if !q.Has("value") {
		writeEnvelope(w, false, "You are missing the value", nil)
		return
	}

	if err := h.ingest.Append(r.Context(), out.Sensor, q.Get("value")); err != nil {
		h.log.ErrorContext(r.Context(), "append failed", "sensor", out.Sensor.Key, "error", err)
		writeEnvelope(w, false, internalMsg, nil)
		return
	}
	writeEnvelope(w, true, "", nil)
}

// AddBatch serves POST /api/v1/add: append one value per entry to sensors
// in a group. Entries that resolve persist even when others fail.
func (h *DataHandler) AddBatch(w http.ResponseWriter, r *http.Request) {
	out, ok := h.authorize(w, r, service.KindGroup, r.URL.Query().Get("group"))
	if !ok {
		return
	}

	entries, ok := readJSON[[]service.BatchEntry](w, r, 1<<20)
	if !ok {
		return
	}

	res, err := h.ingest.AppendBatch(r.Context(), out.Group, entries)
	if err != nil {
		h.log.ErrorContext(r.Context(), "batch append failed", "group", out.Group.Key, "error", err)
		writeEnvelope(w, false, internalMsg, nil)
		return
	}
	writeEnvelope(w, res.OK, res.Message, nil)
}

// ListGroups serves GET /api/v1/groups: all groups as {name,key} pairs,
// optionally name-filtered, gated only by credential validity.
func (h *DataHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, service.KindNone, ""); !ok {
		return
	}

	refs, err := h.catalog.SearchGroups(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.log.ErrorContext(r.Context(), "search groups failed", "error", err)
		writeEnvelope(w, false, internalMsg, nil)
		return
	}
	writeEnvelope(w, true, "", refs)
}

func (h *DataHandler) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if msg := domain.ValidationMessage(err); msg != "" {
		writeEnvelope(w, false, msg, nil)
		return
	}
	h.log.ErrorContext(r.Context(), "query failed", "error", err)
	writeEnvelope(w, false, internalMsg, nil)
}
