package handlers

import (
	"net/http"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/services"
	"go.uber.org/zap"
)

// CategoryHandler serves the category tree for submission and triage forms.
type CategoryHandler struct {
	svc    *services.CategoryService
	logger *zap.SugaredLogger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc *services.CategoryService, logger *zap.SugaredLogger) *CategoryHandler {
	return &CategoryHandler{svc: svc, logger: logger}
}

// Tree handles GET /api/categories/ — the ordered category tree.
func (h *CategoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Tree(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to load categories", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	if tree == nil {
		tree = []models.Category{}
	}
	respondJSON(w, http.StatusOK, tree)
}

// Leaves handles GET /api/categories/leaves/ — the selectable leaf
// categories ("In Review" excluded, "Other" last).
func (h *CategoryHandler) Leaves(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.svc.Leaves(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	if leaves == nil {
		leaves = []models.Category{}
	}
	respondJSON(w, http.StatusOK, leaves)
}
