package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string, secret string) string {
	t.Helper()
	claims := &Claims{
		Username: "asha",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/grievances/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsBadSignature(t *testing.T) {
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/grievances/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleCitizen, "wrong-secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthStoresIdentity(t *testing.T) {
	var got *Identity
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		got = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/grievances/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleTriageUser, testSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "asha", got.Username)
	assert.Equal(t, models.RoleTriageUser, got.Role)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := RequireAuth(testSecret)(RequireRole(models.RoleTopAuthority)(ok))

	req := httptest.NewRequest(http.MethodPost, "/api/admin-grievances/x/grant_extension/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleCitizen, testSecret))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin-grievances/x/grant_extension/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleTopAuthority, testSecret))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
