package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/", StaticToken("tok-123"), srv.Client())
	require.NoError(t, err)
	return c
}

func TestListGrievancesBareArray(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/grievances/", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Grievance{
			{ID: uuid.New(), Status: models.StatusPending},
			{ID: uuid.New(), Status: models.StatusResolved},
		})
	}))

	records, _, err := c.ListGrievances(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestListGrievancesPaginatedEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []models.Grievance{{ID: uuid.New(), Status: models.StatusPending}},
			"count":   11,
			"page":    2,
		})
	}))

	records, _, err := c.ListGrievances(context.Background(), ListOptions{Page: 2})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListGenerationIncreases(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Grievance{})
	}))

	_, first, err := c.ListGrievances(context.Background(), ListOptions{})
	require.NoError(t, err)
	_, second, err := c.ListGrievances(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestSessionInvalidOn401And403(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		_, _, err := c.ListGrievances(context.Background(), ListOptions{})
		assert.ErrorIs(t, err, ErrSessionInvalid, "status %d", code)
	}
}

func TestRequestExtensionRefetchesAuthoritativeRecord(t *testing.T) {
	id := uuid.New()
	due := models.NewDate(2024, 7, 1)
	var granted bool

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/api/admin-grievances/"+id.String()+"/grant_extension/", r.URL.Path)
			granted = true
			json.NewEncoder(w).Encode(map[string]string{"message": "Extension granted"})
		default:
			require.True(t, granted, "must re-fetch after the grant, not before")
			assert.Equal(t, "/api/grievances/"+id.String()+"/", r.URL.Path)
			json.NewEncoder(w).Encode(models.Grievance{ID: id, Status: models.StatusPolicyDecision, DueDate: &due})
		}
	}))

	g, err := c.RequestExtension(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, g.DueDate)
	assert.Equal(t, "2024-07-01", g.DueDate.String())
}

func TestRequestExtensionRejectionSurfacesServerMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid status: Pending"})
	}))

	_, err := c.RequestExtension(context.Background(), uuid.New())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid status: Pending", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestReopen(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "it is still broken", body["reason"])
		json.NewEncoder(w).Encode(models.Grievance{ID: id, Status: models.StatusReopened})
	}))

	g, err := c.Reopen(context.Background(), id, "it is still broken")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReopened, g.Status)
}
