package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/civicdesk/grievance-server/internal/middleware"
	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/services"
	"github.com/civicdesk/grievance-server/internal/sla"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GrievanceHandler handles grievance-related HTTP endpoints
type GrievanceHandler struct {
	grievanceSvc *services.GrievanceService
	eventSvc     *services.EventService
	clock        sla.Clock
	logger       *zap.SugaredLogger
}

// NewGrievanceHandler creates a new grievance handler
func NewGrievanceHandler(gs *services.GrievanceService, es *services.EventService, clock sla.Clock, logger *zap.SugaredLogger) *GrievanceHandler {
	return &GrievanceHandler{grievanceSvc: gs, eventSvc: es, clock: clock, logger: logger}
}

func scopeFor(identity *middleware.Identity) sla.Scope {
	if identity.Role == models.RoleCitizen {
		return sla.ScopeCitizen
	}
	return sla.ScopeStaff
}

func grievanceID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// canView mirrors the list scoping for single-record reads: citizens see
// only their own grievances, department admins only their department's.
func canView(identity *middleware.Identity, g *models.Grievance) bool {
	switch identity.Role {
	case models.RoleTopAuthority, models.RoleTriageUser:
		return true
	case models.RoleDepartmentAdmin:
		return identity.DepartmentID != nil && g.DepartmentID != nil &&
			*identity.DepartmentID == *g.DepartmentID
	default:
		return g.UserID == identity.UserID
	}
}

// List handles GET /api/grievances/
// Query params: status (tab key), sort=urgency, page (1-based; when present
// the response is {results, count, ...} instead of a bare array).
func (h *GrievanceHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	records, err := h.grievanceSvc.ListFor(r.Context(), identity)
	if err != nil {
		h.logger.Errorw("Failed to list grievances", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch grievances")
		return
	}

	visible := records
	if key := r.URL.Query().Get("status"); key != "" {
		visible = sla.Project(records, key, scopeFor(identity)).Visible
	}
	if r.URL.Query().Get("sort") == "urgency" {
		visible = sla.SortByUrgency(visible, h.clock.Now())
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		respondJSON(w, http.StatusOK, sla.Paginate(visible, page))
		return
	}

	if visible == nil {
		visible = []models.Grievance{}
	}
	respondJSON(w, http.StatusOK, visible)
}

// Counts handles GET /api/grievances/counts — per-tab counts, always
// recomputed from the caller's full list.
func (h *GrievanceHandler) Counts(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	records, err := h.grievanceSvc.ListFor(r.Context(), identity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch grievances")
		return
	}
	respondJSON(w, http.StatusOK, sla.Project(records, sla.KeyAll, scopeFor(identity)).Counts)
}

// Submit handles POST /api/grievances/
func (h *GrievanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	var req services.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Description == "" {
		respondError(w, http.StatusBadRequest, "Missing required field: description")
		return
	}

	g, err := h.grievanceSvc.Create(r.Context(), identity, &req)
	if err != nil {
		h.logger.Errorw("Failed to create grievance", "error", err)
		respondServiceError(w, err, "Failed to submit grievance")
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

// Get handles GET /api/grievances/{id}/
func (h *GrievanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	id, ok := grievanceID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid grievance id")
		return
	}

	g, err := h.grievanceSvc.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to fetch grievance")
		return
	}
	if !canView(identity, g) {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// Patch handles PATCH /api/grievances/{id}/
func (h *GrievanceHandler) Patch(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	id, ok := grievanceID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid grievance id")
		return
	}

	var patch services.UpdatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.grievanceSvc.Update(r.Context(), id, identity, &patch)
	if err != nil {
		h.logger.Errorw("Failed to update grievance", "id", id, "error", err)
		respondServiceError(w, err, "Failed to update grievance")
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// Reopen handles POST /api/grievances/{id}/reopen/
func (h *GrievanceHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	id, ok := grievanceID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid grievance id")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reason == "" {
		respondError(w, http.StatusBadRequest, "A reason is required to reopen")
		return
	}

	g, err := h.grievanceSvc.Reopen(r.Context(), id, identity, body.Reason)
	if err != nil {
		respondServiceError(w, err, "Failed to reopen grievance")
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// Events handles GET /api/grievances/{id}/events/
func (h *GrievanceHandler) Events(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	id, ok := grievanceID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid grievance id")
		return
	}

	g, err := h.grievanceSvc.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to fetch grievance")
		return
	}
	if !canView(identity, g) {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	events, err := h.eventSvc.ListForGrievance(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	if events == nil {
		events = []models.GrievanceEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}

// UploadImage handles POST /api/grievances/{id}/upload_image/
func (h *GrievanceHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	id, ok := grievanceID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid grievance id")
		return
	}

	var body struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Image == "" {
		respondError(w, http.StatusBadRequest, "No image provided")
		return
	}

	img, err := h.grievanceSvc.AddImage(r.Context(), id, identity, body.Image)
	if err != nil {
		respondServiceError(w, err, "Failed to attach image")
		return
	}
	respondJSON(w, http.StatusCreated, img)
}
