package http

import (
	"log/slog"
	"net/http"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/middleware"
	"github.com/sensorlog/sensorlog/internal/service"
)

// CatalogHandler serves the management API's sensor, group, and blueprint
// endpoints. Every route is tenant-scoped via the JWT middleware.
type CatalogHandler struct {
	catalog *service.CatalogService
	log     *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// CreateSensor handles POST /api/v1/sensors.
func (h *CatalogHandler) CreateSensor(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[sensor.CreateSensorRequest](w, r, 1<<16)
	if !ok {
		return
	}

	sn, err := h.catalog.CreateSensor(r.Context(), middleware.TenantFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	writeJSON(w, http.StatusCreated, sn)
}

// ListSensors handles GET /api/v1/sensors.
func (h *CatalogHandler) ListSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.catalog.ListSensors(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "could not list sensors")
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

// DeleteSensor handles DELETE /api/v1/sensors/{id}. Readings cascade.
func (h *CatalogHandler) DeleteSensor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteSensor(r.Context(), id, middleware.TenantFromContext(r.Context())); err != nil {
		writeDomainError(w, err, "sensor not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateGroup handles POST /api/v1/mgmt/groups.
func (h *CatalogHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[sensor.CreateGroupRequest](w, r, 1<<16)
	if !ok {
		return
	}

	gr, err := h.catalog.CreateGroup(r.Context(), middleware.TenantFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, "could not create group")
		return
	}
	writeJSON(w, http.StatusCreated, gr)
}

// ListOwnGroups handles GET /api/v1/mgmt/groups: the tenant's own groups
// with full detail, unlike the credential-gated public listing.
func (h *CatalogHandler) ListOwnGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.catalog.ListGroups(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "could not list groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// DeleteGroup handles DELETE /api/v1/mgmt/groups/{id}. Sensors and their
// readings cascade.
func (h *CatalogHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteGroup(r.Context(), id, middleware.TenantFromContext(r.Context())); err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBlueprint handles POST /api/v1/blueprints.
func (h *CatalogHandler) CreateBlueprint(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[sensor.CreateBlueprintRequest](w, r, 1<<16)
	if !ok {
		return
	}

	bp, err := h.catalog.CreateBlueprint(r.Context(), middleware.TenantFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, "could not create blueprint")
		return
	}
	writeJSON(w, http.StatusCreated, bp)
}

// ListBlueprints handles GET /api/v1/blueprints.
func (h *CatalogHandler) ListBlueprints(w http.ResponseWriter, r *http.Request) {
	blueprints, err := h.catalog.ListBlueprints(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "could not list blueprints")
		return
	}
	writeJSON(w, http.StatusOK, blueprints)
}

// DeleteBlueprint handles DELETE /api/v1/blueprints/{id}.
func (h *CatalogHandler) DeleteBlueprint(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteBlueprint(r.Context(), id, middleware.TenantFromContext(r.Context())); err != nil {
		writeDomainError(w, err, "blueprint not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Instantiate handles POST /api/v1/blueprints/{id}/instantiate: stamp out
// a live group with sensors from the blueprint.
func (h *CatalogHandler) Instantiate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[sensor.InstantiateRequest](w, r, 1<<16)
	if !ok {
		return
	}

	gr, sensors, err := h.catalog.Instantiate(r.Context(), id, middleware.TenantFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, "blueprint not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"group":   gr,
		"sensors": sensors,
	})
}
