package handlers

import (
	"net/http"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/common"
	"github.com/bobmcallan/timesup-portal/internal/schedule"
)

// ScheduleService reports the operating schedule at a point in time.
type ScheduleService interface {
	Status(now time.Time) schedule.Status
}

// ScheduleHandler reports where now falls in the operating schedule.
type ScheduleHandler struct {
	logger *common.Logger
	oracle ScheduleService
	now    func() time.Time
}

// NewScheduleHandler creates a schedule handler.
func NewScheduleHandler(logger *common.Logger, oracle ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		logger: logger,
		oracle: oracle,
		now:    time.Now,
	}
}

// ServeHTTP handles GET /api/schedule.
func (h *ScheduleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, h.oracle.Status(h.now()))
}
