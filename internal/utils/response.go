package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"eventix-gateway/internal/backend"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// WriteJSON sends v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse(message, data))
}

// WriteError maps err to a status and sends the envelope. message is the
// user-facing text, replaced by the backend's own message when it sent one.
func WriteError(w http.ResponseWriter, err error, message string) error {
	status := StatusFor(err)
	if v := new(ValidationError); errors.As(err, &v) {
		message = v.Message
	} else {
		message = backend.MessageOf(err, message)
	}
	return WriteJSON(w, status, ErrorResponse(message, err.Error()))
}

// StatusFor picks the HTTP status the gateway answers with for err.
func StatusFor(err error) int {
	var validation *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusBadGateway
	}

	status := backend.StatusOf(err)
	switch {
	case status >= 400 && status < 500:
		return status
	case status >= 500:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
