package http

import (
	"log/slog"
	"net/http"

	"github.com/sensorlog/sensorlog/internal/domain/tenant"
	"github.com/sensorlog/sensorlog/internal/middleware"
	"github.com/sensorlog/sensorlog/internal/service"
)

// AuthHandler serves the management API's tenant and credential endpoints.
type AuthHandler struct {
	auth *service.AuthService
	log  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.RegisterRequest](w, r, 1<<16)
	if !ok {
		return
	}

	t, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "could not register")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.LoginRequest](w, r, 1<<16)
	if !ok {
		return
	}

	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "could not log in")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	t, err := h.auth.GetTenant(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteMe handles DELETE /api/v1/auth/me: the tenant removes itself and
// every resource it owns.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantFromContext(r.Context())
	if err := h.auth.DeleteTenant(r.Context(), tenantID); err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	h.log.InfoContext(r.Context(), "tenant deleted", "tenant_id", tenantID)
	w.WriteHeader(http.StatusNoContent)
}

// CreateAPIKey handles POST /api/v1/apikeys.
func (h *AuthHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.CreateAPIKeyRequest](w, r, 1<<16)
	if !ok {
		return
	}

	key, err := h.auth.CreateAPIKey(r.Context(), middleware.TenantFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, "could not create api key")
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

// ListAPIKeys handles GET /api/v1/apikeys.
func (h *AuthHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.auth.ListAPIKeys(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "could not list api keys")
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// DeleteAPIKey handles DELETE /api/v1/apikeys/{id}.
func (h *AuthHandler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.auth.DeleteAPIKey(r.Context(), id, middleware.TenantFromContext(r.Context())); err != nil {
		writeDomainError(w, err, "api key not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
