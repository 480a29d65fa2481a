package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/civicdesk/grievance-server/internal/middleware"
	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/services"
	"github.com/civicdesk/grievance-server/internal/sla"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TriageHandler serves the triage queue: unclassified grievances awaiting
// a category assignment.
type TriageHandler struct {
	grievanceSvc *services.GrievanceService
	clock        sla.Clock
	logger       *zap.SugaredLogger
}

// NewTriageHandler creates a new triage handler
func NewTriageHandler(gs *services.GrievanceService, clock sla.Clock, logger *zap.SugaredLogger) *TriageHandler {
	return &TriageHandler{grievanceSvc: gs, clock: clock, logger: logger}
}

// List handles GET /api/triage-grievances/ — the queue ordered most urgent
// first.
func (h *TriageHandler) List(w http.ResponseWriter, r *http.Request) {
	queue, err := h.grievanceSvc.ListTriageQueue(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list triage queue", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch triage queue")
		return
	}

	queue = sla.SortByUrgency(queue, h.clock.Now())
	if queue == nil {
		queue = []models.Grievance{}
	}
	respondJSON(w, http.StatusOK, queue)
}

// Assign handles POST /api/triage-grievances/{id}/assign/
func (h *TriageHandler) Assign(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	id, ok := grievanceID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid grievance id")
		return
	}

	var body struct {
		CategoryID uuid.UUID `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CategoryID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "category_id is required")
		return
	}

	g, err := h.grievanceSvc.AssignCategory(r.Context(), id, identity, body.CategoryID)
	if err != nil {
		respondServiceError(w, err, "Failed to assign category")
		return
	}
	respondJSON(w, http.StatusOK, g)
}
