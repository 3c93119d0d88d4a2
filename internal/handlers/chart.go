package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/cache"
	"github.com/bobmcallan/timesup-portal/internal/common"
)

// ChartService is the part of the cache gateway the chart endpoints use.
type ChartService interface {
	Serve(ctx context.Context, now time.Time, force bool) cache.Response
	Clear(ctx context.Context) error
}

const chartUnavailableMessage = "Failed to fetch chart data"

// ChartHandler serves the cached chart data.
type ChartHandler struct {
	logger  *common.Logger
	gateway ChartService
	now     func() time.Time
}

// NewChartHandler creates a chart handler over gateway.
func NewChartHandler(logger *common.Logger, gateway ChartService) *ChartHandler {
	return &ChartHandler{
		logger:  logger,
		gateway: gateway,
		now:     time.Now,
	}
}

// ServeHTTP handles GET /api/chart-data. ?test_operating_hours=true applies the
// short test-mode TTL to a freshly fetched payload.
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	force := r.URL.Query().Get("test_operating_hours") == "true"
	resp := h.gateway.Serve(r.Context(), h.now(), force)

	w.Header().Set("Access-Control-Allow-Origin", "*")
	if !resp.OK() {
		WriteError(w, http.StatusInternalServerError, chartUnavailableMessage)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(resp.MaxAgeSeconds))
	w.Header().Set("X-Cache", string(resp.Freshness))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(resp.Payload); err != nil {
		h.logger.Debug().Str("error", err.Error()).Msg("failed to write chart response")
	}
}

// HandleClear handles DELETE /api/chart-data/cache.
func (h *ChartHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	if err := h.gateway.Clear(r.Context()); err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to clear chart cache")
		WriteError(w, http.StatusInternalServerError, "Failed to clear chart cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
