package handlers

import (
	"net/http"

	"github.com/civicdesk/grievance-server/internal/middleware"
	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/services"
	"go.uber.org/zap"
)

// AdminHandler serves the top-authority endpoints: the full grievance list,
// SLA extension grants, and dashboard stats.
type AdminHandler struct {
	grievanceSvc *services.GrievanceService
	statsSvc     *services.StatsService
	logger       *zap.SugaredLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(gs *services.GrievanceService, ss *services.StatsService, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{grievanceSvc: gs, statsSvc: ss, logger: logger}
}

// List handles GET /api/admin-grievances/
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.grievanceSvc.ListAll(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list grievances", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch grievances")
		return
	}
	if records == nil {
		records = []models.Grievance{}
	}
	respondJSON(w, http.StatusOK, records)
}

// GrantExtension handles POST /api/admin-grievances/{id}/grant_extension/
func (h *AdminHandler) GrantExtension(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	id, ok := grievanceID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid grievance id")
		return
	}

	g, err := h.grievanceSvc.GrantExtension(r.Context(), id, identity)
	if err != nil {
		respondServiceError(w, err, "Failed to grant extension")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Extension granted",
		"new_due_date": g.DueDate,
		"grievance":    g,
	})
}

// Stats handles GET /api/admin-stats/
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsSvc.AdminStats(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to compute stats", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
