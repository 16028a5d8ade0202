package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"chatproxy-backend/internal/middleware"
	"chatproxy-backend/internal/models"
	"chatproxy-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func successResp(data interface{}, message string) models.APIResponse {
	return models.APIResponse{Success: true, Data: data, Message: message}
}

// errorResp fills `message` for caller-facing problems and `error` for failures.
func errorResp(status int, text string, r *http.Request) models.APIResponse {
	resp := models.APIResponse{
		Success:   false,
		RequestID: r.Header.Get(middleware.RequestIDHeader),
	}
	if status >= http.StatusInternalServerError {
		resp.Error = text
	} else {
		resp.Message = text
	}
	return resp
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *services.ValidationError
		unauth     *services.UnauthenticatedError
		notFound   *services.NotFoundError
		conflict   *services.ConflictError
		persist    *services.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResp(http.StatusBadRequest, validationMessage(validation), r))
	case errors.As(err, &unauth):
		writeJSON(w, http.StatusUnauthorized, errorResp(http.StatusUnauthorized, unauth.Message, r))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp(http.StatusNotFound, notFound.Message, r))
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResp(http.StatusConflict, conflict.Message, r))
	case errors.As(err, &persist):
		writeJSON(w, http.StatusInternalServerError, errorResp(http.StatusInternalServerError, persist.Error(), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp(http.StatusInternalServerError, err.Error(), r))
	}
}

func validationMessage(e *services.ValidationError) string {
	if len(e.Fields) == 0 {
		return e.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
