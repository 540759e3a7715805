package catalog_api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/catalog"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, api http.Handler) http.Handler {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	log := logger.NewNopLogger()
	h := NewHandler(catalog.NewService(backend.NewClient(srv.URL, 0, log), log), log)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestListEvents_FiltersBackendList(t *testing.T) {
	api := chi.NewRouter()
	api.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Event{
			{ID: 1, Name: "Jazz Night", Location: "Blue Hall", CategoryID: 1},
			{ID: 2, Name: "Rock Fest", Location: "Riverside", CategoryID: 2},
		})
	})

	rec := httptest.NewRecorder()
	newRouter(t, api).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?category=2&search=rock", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool           `json:"success"`
		Data    []models.Event `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Rock Fest", body.Data[0].Name)
}

func TestGetEvent_NotFoundPassesThrough(t *testing.T) {
	api := chi.NewRouter()
	api.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Event not found"}`))
	})

	rec := httptest.NewRecorder()
	newRouter(t, api).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Event not found")
}

func TestGetEvent_RejectsBadID(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, chi.NewRouter()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
