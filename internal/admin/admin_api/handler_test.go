package admin_api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"eventix-gateway/internal/admin"
	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	filename    string
	contentType string
	body        string
}

func newRouter(t *testing.T, uploads chan<- upload) http.Handler {
	t.Helper()
	log := logger.NewNopLogger()

	api := chi.NewRouter()
	api.Get("/users/{id}/is-admin", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`true`))
	})
	api.Post("/admin/categories", func(w http.ResponseWriter, r *http.Request) {
		var req models.CategoryRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Category{ID: 8, Name: req.Name})
	})
	api.Get("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	api.Delete("/admin/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Reservation already paid"}`))
	})
	api.Post("/admin/events/{id}/image", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		uploads <- upload{header.Filename, header.Header.Get("Content-Type"), string(data)}
		w.Write([]byte(`{"imageUrl":"uploads/events/x.png"}`))
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	sess := &auth.Session{ID: "sid", User: models.User{ID: 1, Role: models.RoleAdmin}}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithSession(req.Context(), sess)))
		})
	})
	NewHandler(admin.NewService(backend.NewClient(srv.URL, 0, log), log), log).RegisterRoutes(r)
	return r
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	part.Write([]byte(content))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImage_PassesThrough(t *testing.T) {
	uploads := make(chan upload, 1)
	router := newRouter(t, uploads)

	body, contentType := multipartBody(t, "poster.png", "image/png", "PNGDATA")
	req := httptest.NewRequest(http.MethodPost, "/events/4/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uploads/events/x.png")
	got := <-uploads
	assert.Equal(t, upload{"poster.png", "image/png", "PNGDATA"}, got)
}

func TestUploadImage_RejectsNonImages(t *testing.T) {
	router := newRouter(t, make(chan upload, 1))

	body, contentType := multipartBody(t, "notes.txt", "text/plain", "hello")
	req := httptest.NewRequest(http.MethodPost, "/events/4/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only images are allowed")
}

func TestCheck(t *testing.T) {
	rec := serve(newRouter(t, nil), httptest.NewRequest(http.MethodGet, "/check", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAdmin":true`)
}

func TestCreateCategory(t *testing.T) {
	router := newRouter(t, nil)

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Jazz"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsers_FailureIsEmptyList(t *testing.T) {
	rec := serve(newRouter(t, nil), httptest.NewRequest(http.MethodGet, "/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestCancelReservation_BackendMessage(t *testing.T) {
	rec := serve(newRouter(t, nil), httptest.NewRequest(http.MethodDelete, "/reservations/3", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reservation already paid")
}
