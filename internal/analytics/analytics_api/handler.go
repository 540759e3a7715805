package analytics_api

import (
	"net/http"

	"eventix-gateway/internal/analytics"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the dashboard. r must be behind RequireAdmin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics", h.GetDashboard)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Analytics retrieved", h.Service.Dashboard(r.Context()))
}
