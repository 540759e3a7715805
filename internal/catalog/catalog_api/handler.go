package catalog_api

import (
	"net/http"
	"strconv"

	"eventix-gateway/internal/catalog"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(service *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the public catalog under r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.ListEvents)
	r.Get("/events/byCategory/{categoryId}", h.ListEventsByCategory)
	r.Get("/events/{eventId}", h.GetEvent)
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{categoryId}", h.GetCategory)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := catalog.Filter{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.WriteError(w, utils.NewValidationError("invalid category filter"), "")
			return
		}
		filter.CategoryID = id
	}

	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", h.Service.Events(r.Context(), filter))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "eventId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	event, err := h.Service.Event(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err, "Event loading failed.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event retrieved", event)
}

func (h *Handler) ListEventsByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "categoryId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", h.Service.EventsByCategory(r.Context(), id))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Categories retrieved", h.Service.Categories(r.Context()))
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "categoryId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	category, err := h.Service.Category(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err, "Category loading failed.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category retrieved", category)
}
