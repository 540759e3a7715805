package admin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"eventix-gateway/internal/admin"
	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *admin.Service
	Logger  *logger.Logger
}

func NewHandler(service *admin.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the management panels. r must be behind RequireAdmin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/check", h.Check)

	r.Get("/events", h.ListEvents)
	r.Post("/events", h.CreateEvent)
	r.Put("/events/{eventId}", h.UpdateEvent)
	r.Delete("/events/{eventId}", h.DeleteEvent)
	r.Post("/events/{eventId}/image", h.UploadImage)

	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Delete("/categories/{categoryId}", h.DeleteCategory)

	r.Get("/reservations", h.ListReservations)
	r.Delete("/reservations/{reservationId}", h.CancelReservation)

	r.Get("/users", h.ListUsers)
}

func actor(r *http.Request) models.User {
	if sess := auth.SessionFrom(r.Context()); sess != nil {
		return sess.User
	}
	return models.User{}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, op string, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("%s: failed to decode request body: %v", op, err))
		utils.WriteError(w, utils.NewValidationError("Invalid request body"), "")
		return false
	}
	return true
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	isAdmin := h.Service.IsAdmin(r.Context(), actor(r))
	utils.WriteSuccess(w, http.StatusOK, "Admin check", map[string]bool{"isAdmin": isAdmin})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", h.Service.Events(r.Context()))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if !h.decode(w, r, "CreateEvent", &req) {
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), actor(r), req)
	if err != nil {
		utils.WriteError(w, err, "Failed to create event.")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Event created", event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "eventId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}
	var req models.EventRequest
	if !h.decode(w, r, "UpdateEvent", &req) {
		return
	}

	event, err := h.Service.UpdateEvent(r.Context(), actor(r), id, req)
	if err != nil {
		utils.WriteError(w, err, "Failed to update event.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event updated", event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "eventId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	if err := h.Service.DeleteEvent(r.Context(), actor(r), id); err != nil {
		utils.WriteError(w, err, "Failed to delete event.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event deleted", nil)
}

// UploadImage reads multipart field "file" and passes it to the backend.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "eventId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, admin.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(admin.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, utils.NewValidationError("File is too large."), "")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("UploadImage: invalid multipart body: %v", err))
		utils.WriteError(w, utils.NewValidationError("Invalid upload."), "")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, utils.NewValidationError("File cannot be empty."), "")
		return
	}
	defer file.Close()

	url, err := h.Service.UploadImage(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		utils.WriteError(w, err, "Failed to upload image.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Image uploaded", map[string]string{"imageUrl": url})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Categories retrieved", h.Service.Categories(r.Context()))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if !h.decode(w, r, "CreateCategory", &req) {
		return
	}

	category, err := h.Service.CreateCategory(r.Context(), req)
	if err != nil {
		utils.WriteError(w, err, "Failed to create category.")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Category created", category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "categoryId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	if err := h.Service.DeleteCategory(r.Context(), id); err != nil {
		utils.WriteError(w, err, "Failed to delete category.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category deleted", nil)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Reservations retrieved", h.Service.Reservations(r.Context()))
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "reservationId")
	if err != nil {
		utils.WriteError(w, err, "")
		return
	}

	if err := h.Service.CancelReservation(r.Context(), actor(r), id); err != nil {
		utils.WriteError(w, err, "Failed to cancel reservation.")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Reservation cancelled", nil)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "Users retrieved", h.Service.Users(r.Context()))
}
