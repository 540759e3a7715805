package reservation_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/reservation"
	"eventix-gateway/internal/utils"
)

type Handler struct {
	Service *reservation.Service
	Logger  *logger.Logger
}

func NewHandler(service *reservation.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// Quote answers GET /events/{eventId}/quote?quantity=&step=.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	eventID, err := utils.IDParam(r, "eventId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	current := int64(1)
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		if current, err = strconv.ParseInt(raw, 10, 64); err != nil {
			utils.WriteError(w, utils.NewValidationError("quantity must be a number"), "")
			return
		}
	}
	step, err := reservation.ParseStep(r.URL.Query().Get("step"))
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	quote, err := h.Service.Quote(r.Context(), eventID, current, step)
	if err != nil {
		utils.WriteError(w, err, "Event loading failed.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Quote computed", quote)
}

type reserveRequest struct {
	EventID  int64 `json:"event_id"`
	Quantity int64 `json:"quantity"`
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Reserve: failed to decode request body: %v", err))
		utils.WriteError(w, utils.NewValidationError("Invalid request body"), "")
		return
	}
	if req.EventID <= 0 {
		utils.WriteError(w, utils.NewValidationError("event_id is required"), "")
		return
	}

	result, err := h.Service.Reserve(r.Context(), auth.SessionFrom(r.Context()), req.EventID, req.Quantity)
	if err != nil {
		utils.WriteError(w, err, "Reservation failed.")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Reservation created", result)
}
