// Package httpapi exposes the monitoring service over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sitewatch/internal/domain"
	"sitewatch/internal/httpapi/middleware"
	"sitewatch/internal/repo"
)

// Monitor is the scheduling surface the API needs: new sites start
// getting checked, deleted sites stop.
type Monitor interface {
	Track(site *domain.Site)
	Forget(id domain.SiteID)
}

// Server wires stores and the scheduler into HTTP handlers.
type Server struct {
	Logger   *zap.Logger
	Sites    repo.SiteStore
	Checks   repo.CheckStore
	Webhooks repo.WebhookStore
	Monitor  Monitor
}

// Router builds the chi router. adminKeys guard mutating endpoints;
// an empty list leaves them open (useful for local runs and tests).
func (s *Server) Router(adminKeys []string, reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimit(reqPerMin, burst))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/sites", s.handleListSites)
		r.Get("/sites/{id}/history", s.handleHistory)
		r.Get("/webhooks", s.handleListWebhooks)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(adminKeys))
			r.Post("/sites", s.handleCreateSite)
			r.Delete("/sites/{id}", s.handleDeleteSite)
			r.Post("/webhooks", s.handleAddWebhook)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
