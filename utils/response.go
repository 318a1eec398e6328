package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"driza/errs"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func SendResponse(w http.ResponseWriter, status int, data any, message string, err error) {
	resp := map[string]any{
		"status":  status,
		"message": message,
		"data":    data,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	RespondWithJSON(w, status, resp)
}

// WriteServiceError translates service-layer errors to HTTP status codes.
func WriteServiceError(w http.ResponseWriter, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		RespondWithError(w, http.StatusBadRequest, ve.Error())
	case errs.IsNotFound(err):
		RespondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrPermissionDenied):
		RespondWithError(w, http.StatusForbidden, "permission denied")
	default:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

type M map[string]interface{}
