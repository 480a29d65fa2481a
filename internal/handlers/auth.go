package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civicdesk/grievance-server/internal/middleware"
	"github.com/civicdesk/grievance-server/internal/services"
	"go.uber.org/zap"
)

// AuthHandler handles login, registration, and the current-user endpoint.
type AuthHandler struct {
	svc    *services.AuthService
	logger *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *services.AuthService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Login handles POST /api/auth/login/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.svc.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		h.logger.Errorw("Login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Register handles POST /api/auth/register/
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password1 string `json:"password1"`
		Password2 string `json:"password2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Username == "" || body.Password1 == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if body.Password1 != body.Password2 {
		respondError(w, http.StatusBadRequest, "Passwords don't match")
		return
	}

	user, err := h.svc.Register(r.Context(), body.Username, body.Email, body.Password1)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			respondError(w, http.StatusBadRequest, "Username already taken")
			return
		}
		h.logger.Errorw("Registration failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Me handles GET /api/me/
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	user, err := h.svc.GetUser(r.Context(), identity.UserID)
	if err != nil {
		respondServiceError(w, err, "Failed to fetch user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
