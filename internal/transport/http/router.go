// Package httptransport is the thin HTTP layer. It delegates to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parareg/internal/platform/metrics"
	"parareg/internal/platform/middleware"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	records      RecordService
	institutions InstitutionService
	researchers  ResearcherService
	geo          GeoStatsService
	logger       *slog.Logger
}

func NewHandler(
	records RecordService,
	institutions InstitutionService,
	researchers ResearcherService,
	geo GeoStatsService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		records:      records,
		institutions: institutions,
		researchers:  researchers,
		geo:          geo,
		logger:       logger,
	}
}

// NewRouter wires all endpoints. Reads are public; every write requires a
// bearer token carrying the caller identity. httpMetrics may be nil to skip
// transport metrics.
func NewRouter(h *Handler, validator middleware.TokenValidator, httpMetrics *metrics.HTTP, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Latency(httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/records/stats/total", h.handleTotalRecords)
	r.Get("/records/{id}", h.handleGetRecord)
	r.Get("/records/{id}/history", h.handleGetHistory)
	r.Get("/institutions/{id}", h.handleGetInstitution)
	r.Get("/researchers/{identity}/membership", h.handleGetMembership)
	r.Get("/geostats/{region}", h.handleGetGeoStat)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		r.Post("/records", h.handleAddRecord)
		r.Put("/records/{id}", h.handleUpdateRecord)
		r.Post("/institutions", h.handleRegisterInstitution)
		r.Post("/institutions/{id}/verify", h.handleVerifyInstitution)
		r.Put("/researchers/{identity}/membership", h.handleSetMembership)
	})

	return r
}
