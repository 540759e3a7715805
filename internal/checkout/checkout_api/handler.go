package checkout_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/checkout"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/sse"
	"eventix-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *checkout.Service
	Feed    *sse.CheckoutEventEmitter
	Logger  *logger.Logger
}

func NewHandler(service *checkout.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the payment view endpoints. r must be behind RequireUser.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/checkout/{reservationId}", func(r chi.Router) {
		r.Get("/", h.Open)
		r.Post("/heartbeat", h.Heartbeat)
		r.Post("/pay", h.Pay)
		r.Post("/back", h.Back)
		r.Post("/leave", h.Leave)
	})
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "reservationId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	summary, err := h.Service.Open(r.Context(), auth.SessionFrom(r.Context()), id)
	if err != nil {
		utils.WriteError(w, err, "Failed to load reservation details.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Reservation summary", summary)
}

func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "reservationId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	state, err := h.Service.Heartbeat(r.Context(), auth.SessionFrom(r.Context()), id)
	if err != nil {
		h.Logger.Error("CHECKOUT", fmt.Sprintf("Heartbeat for reservation %d failed: %v", id, err))
		utils.WriteError(w, err, "")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "View kept alive", map[string]models.CheckoutState{"state": state})
}

type payRequest struct {
	Method string `json:"method"`
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "reservationId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Error("API", fmt.Sprintf("Pay: failed to decode request body: %v", err))
		utils.WriteError(w, utils.NewValidationError("Invalid request body"), "")
		return
	}

	result, err := h.Service.Pay(r.Context(), auth.SessionFrom(r.Context()), id, req.Method)
	if err != nil {
		utils.WriteError(w, err, "Payment processing failed. Please try again.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Payment successful", result)
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "reservationId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	result, err := h.Service.Back(r.Context(), auth.SessionFrom(r.Context()), id)
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Reservation released", result)
}

// Leave accepts the unload beacon sent while the page goes away.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "reservationId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	if err := h.Service.LeaveView(r.Context(), auth.SessionFrom(r.Context()), id); err != nil {
		utils.WriteError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ListCheckouts is the admin diagnostics view of the journal.
func (h *Handler) ListCheckouts(w http.ResponseWriter, r *http.Request) {
	state := models.CheckoutState(r.URL.Query().Get("state"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.Service.Recent(r.Context(), state, limit)
	if err != nil {
		h.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to list checkouts: %v", err))
		records = []models.CheckoutRecord{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Checkouts retrieved", records)
}

const streamKeepAlive = 25 * time.Second

// StreamCheckouts sends checkout transitions as server-sent events. The
// optional event query parameter narrows the stream to one event.
func (h *Handler) StreamCheckouts(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		utils.WriteError(w, utils.ErrNotFound, "Live checkout feed is disabled.")
		return
	}
	eventID := sse.AllEvents
	if raw := r.URL.Query().Get("event"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			utils.WriteError(w, utils.NewValidationError("invalid event filter"), "")
			return
		}
		eventID = id
	}

	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.Logger.Warn("SSE", fmt.Sprintf("Failed to clear write deadline: %v", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	events := h.Feed.Subscribe(ctx, eventID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"eventId\":%d}\n\n", eventID)
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to checkout stream (event %d)", eventID))

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize checkout event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: checkout\ndata: %s\n\n", data)
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client left checkout stream (event %d)", eventID))
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
