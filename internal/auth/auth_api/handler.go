package auth_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/utils"
)

type Handler struct {
	Service    *auth.Service
	CookieName string
	Logger     *logger.Logger
}

func NewHandler(service *auth.Service, cookieName string, log *logger.Logger) *Handler {
	return &Handler{Service: service, CookieName: cookieName, Logger: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Login: failed to decode request body: %v", err))
		utils.WriteError(w, utils.NewValidationError("Invalid request body"), "")
		return
	}

	signIn, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, err, "Invalid credentials.")
		return
	}

	h.setCookie(w, signIn.Token, signIn.ExpiresAt)
	utils.WriteSuccess(w, http.StatusOK, "Access granted", signIn)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var form auth.RegistrationForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: failed to decode request body: %v", err))
		utils.WriteError(w, utils.NewValidationError("Invalid request body"), "")
		return
	}

	signIn, err := h.Service.Register(r.Context(), form)
	if err != nil {
		utils.WriteError(w, err, "Registration failed.")
		return
	}

	h.setCookie(w, signIn.Token, signIn.ExpiresAt)
	utils.WriteSuccess(w, http.StatusCreated, "Account created", signIn)
}

// Logout is public so that a stale token can still clear its cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := auth.ExtractTokenFromRequest(r, h.CookieName); err == nil {
		if err := h.Service.Logout(r.Context(), h.Service.SessionID(token)); err != nil {
			h.Logger.Error("AUTH", fmt.Sprintf("Logout: %v", err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteSuccess(w, http.StatusOK, "Signed out", nil)
}

// Me returns the cached identity of the current session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	utils.WriteSuccess(w, http.StatusOK, "Current user", sess.User)
}

func (h *Handler) setCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
