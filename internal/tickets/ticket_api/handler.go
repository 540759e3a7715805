package ticket_api

import (
	"fmt"
	"net/http"
	"strconv"

	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/tickets"
	"eventix-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *tickets.Service
	Logger  *logger.Logger
}

func NewHandler(service *tickets.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the ticket endpoints. r must be behind RequireUser.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/my-tickets", h.MyTickets)
	r.Route("/tickets/{code}", func(r chi.Router) {
		r.Get("/", h.GetTicket)
		r.Get("/qr.png", h.QRCode)
		r.Get("/pass.pdf", h.Pass)
	})
}

func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	utils.WriteSuccess(w, http.StatusOK, "Tickets retrieved", h.Service.ListForUser(r.Context(), sess.User))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	entry, err := h.Service.ByCode(r.Context(), sess.User, chi.URLParam(r, "code"))
	if err != nil {
		utils.WriteError(w, err, "Ticket not found.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket retrieved", entry)
}

func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	png, err := h.Service.QR(r.Context(), sess.User, chi.URLParam(r, "code"))
	if err != nil {
		utils.WriteError(w, err, "Failed to generate QR code.")
		return
	}
	writeFile(w, "image/png", "", png)
}

func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sess := auth.SessionFrom(r.Context())
	pdf, err := h.Service.Pass(r.Context(), sess.User, code)
	if err != nil {
		h.Logger.Error("TICKETS", fmt.Sprintf("Pass for ticket %s failed: %v", code, err))
		utils.WriteError(w, err, "Failed to generate ticket pass.")
		return
	}
	writeFile(w, "application/pdf", fmt.Sprintf("ticket-%s.pdf", code), pdf)
}

func writeFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "private, no-store")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
