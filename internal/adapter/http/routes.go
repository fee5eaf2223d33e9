package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sensorlog/sensorlog/internal/middleware"
	"github.com/sensorlog/sensorlog/internal/service"
)

// MountRoutes registers all API routes on the given chi router.
//
// The data API authenticates per request via the apikey query parameter and
// never touches the JWT middleware; the management API requires a bearer
// token on every route except register and login.
func MountRoutes(r chi.Router, data *DataHandler, auth *AuthHandler, catalog *CatalogHandler, authSvc *service.AuthService) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Data API (device-facing, apikey query parameter)
		r.Get("/get", data.GetData)
		r.Get("/add", data.AddData)
		r.Post("/add", data.AddBatch)
		r.Get("/groups", data.ListGroups)

		// Auth (public)
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)

		// Management API (JWT bearer token)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authSvc))

			r.Get("/auth/me", auth.Me)
			r.Delete("/auth/me", auth.DeleteMe)

			r.Post("/apikeys", auth.CreateAPIKey)
			r.Get("/apikeys", auth.ListAPIKeys)
			r.Delete("/apikeys/{id}", auth.DeleteAPIKey)

			r.Post("/sensors", catalog.CreateSensor)
			r.Get("/sensors", catalog.ListSensors)
			r.Delete("/sensors/{id}", catalog.DeleteSensor)

			r.Post("/mgmt/groups", catalog.CreateGroup)
			r.Get("/mgmt/groups", catalog.ListOwnGroups)
			r.Delete("/mgmt/groups/{id}", catalog.DeleteGroup)

			r.Post("/blueprints", catalog.CreateBlueprint)
			r.Get("/blueprints", catalog.ListBlueprints)
			r.Delete("/blueprints/{id}", catalog.DeleteBlueprint)
			r.Post("/blueprints/{id}/instantiate", catalog.Instantiate)
		})
	})
}
