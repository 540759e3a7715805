package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, r chi.Router) *backend.Client {
	t.Helper()
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return backend.NewClient(server.URL+"/api/v1", 2*time.Second, nil)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin_SendsQueryAndCapturesSessionCookie(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ada@example.com", r.URL.Query().Get("email"))
		assert.Equal(t, "secret1", r.URL.Query().Get("password"))
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123", Path: "/"})
		writeJSON(w, http.StatusOK, models.User{ID: 7, Name: "Ada", Email: "ada@example.com", Role: "USER"})
	})
	client := newTestClient(t, r)

	user, creds, err := client.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, backend.Credentials{{Name: "JSESSIONID", Value: "abc123"}}, creds)
}

func TestCredentialsAreForwarded(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/v1/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("JSESSIONID")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc123", cookie.Value)
		}
		assert.Equal(t, "42", chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, r)

	ctx := backend.WithCredentials(context.Background(), backend.Credentials{{Name: "JSESSIONID", Value: "abc123"}})
	require.NoError(t, client.CancelReservation(ctx, 42))
}

func TestAPIError_CarriesBackendMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/reservations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Not enough seats available"})
	})
	client := newTestClient(t, r)

	_, err := client.CreateReservation(context.Background(), models.ReservationRequest{UserID: 1, EventID: 2, SeatsReserved: 3})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, backend.StatusOf(err))
	assert.Equal(t, "Not enough seats available", backend.MessageOf(err, "Reservation failed."))
}

func TestAPIError_FallbackMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, r)

	_, err := client.GetEvent(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, backend.IsNotFound(err))
	assert.Equal(t, "Event loading failed.", backend.MessageOf(err, "Event loading failed."))
}

func TestTransportFailure_IsNotAnAPIError(t *testing.T) {
	client := backend.NewClient("http://127.0.0.1:1/api/v1", 500*time.Millisecond, nil)

	_, err := client.ListEvents(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, backend.StatusOf(err))
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestGetEvent_DecodesBackendFormats(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":5,"name":"Jazz Night","location":"Blue Hall","date":"2026-11-02 20:00",
			"startTime":"2026-11-02 20:00","endTime":"2026-11-02 23:30","totalCapacity":200,
			"availableSeats":12,"priceBase":49.99,"category_id":3}`)
	})
	client := newTestClient(t, r)

	event, err := client.GetEvent(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", event.Name)
	assert.True(t, decimal.RequireFromString("49.99").Equal(event.PriceBase))
	assert.Equal(t, int64(12), event.AvailableSeats)
	assert.Equal(t, "2026-11-02 23:30", event.EndTime.String())
}

func TestListTicketsByReservation_AcceptsSingleObject(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/tickets/byReservation/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "1" {
			writeJSON(w, http.StatusOK, models.Ticket{ID: 10, ReservationID: 1, TicketCode: "EVX-ONE-0000000001"})
			return
		}
		writeJSON(w, http.StatusOK, []models.Ticket{
			{ID: 11, ReservationID: 2, TicketCode: "EVX-TWO-0000000001"},
			{ID: 12, ReservationID: 2, TicketCode: "EVX-TWO-0000000002"},
		})
	})
	client := newTestClient(t, r)

	single, err := client.ListTicketsByReservation(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "EVX-ONE-0000000001", single[0].TicketCode)

	many, err := client.ListTicketsByReservation(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, many, 2)
}

func TestIsAdmin(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/users/{id}/is-admin", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "true")
	})
	client := newTestClient(t, r)

	isAdmin, err := client.IsAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestUploadEventImage_SendsMultipart(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/admin/events/{id}/image", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "poster.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "png-bytes", string(content))
		writeJSON(w, http.StatusOK, map[string]string{"imageUrl": "uploads/events/poster.png"})
	})
	client := newTestClient(t, r)

	url, err := client.UploadEventImage(context.Background(), 4, "poster.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/events/poster.png", url)
}

func TestObserveHook(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Category{{ID: 1, Name: "Music"}})
	})
	client := newTestClient(t, r)

	var routes []string
	var statuses []int
	client.Observe = func(method, route string, status int, elapsed time.Duration) {
		routes = append(routes, method+" "+route)
		statuses = append(statuses, status)
	}

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 1)
	assert.Equal(t, []string{"GET /categories"}, routes)
	assert.Equal(t, []int{http.StatusOK}, statuses)
}
