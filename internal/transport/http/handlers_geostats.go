package httptransport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"parareg/internal/geostats"
)

// GeoStatsService is the aggregate read surface the transport depends on.
type GeoStatsService interface {
	Get(ctx context.Context, region string) (*geostats.GeoStat, error)
}

func (h *Handler) handleGetGeoStat(w http.ResponseWriter, r *http.Request) {
	// Region names contain spaces, e.g. "Sub-Saharan Africa".
	region, err := url.PathUnescape(chi.URLParam(r, "region"))
	if err != nil {
		region = chi.URLParam(r, "region")
	}

	stat, err := h.geo.Get(r.Context(), region)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stat)
}
