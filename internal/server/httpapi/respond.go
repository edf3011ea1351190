package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avolkov/docvault/internal/common"
)

// timestampLayout is the wire format for timestamps in JSON responses.
const timestampLayout = "2006-01-02 15:04:05"

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error(context.Background(), "writing response", "error", err.Error())
	}
}

// writeError maps a service error to a status code and a safe message.
// Internals are logged server-side and never leak to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err.Error())
	}
	h.writeJSON(w, status, errorResponse{Success: false, Message: message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorEmailExists):
		return http.StatusBadRequest, "Email already exists"
	case errors.Is(err, common.ErrorInvalidInput):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusUnauthorized, "Invalid password"
	case errors.Is(err, common.ErrorRoleMismatch):
		return http.StatusUnauthorized, "You cannot log in with these credentials."
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorAccountDisabled):
		return http.StatusForbidden, "Account is deactivated. Please contact admin."
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "Admin privileges required"
	case errors.Is(err, common.ErrorFileMissing):
		return http.StatusNotFound, "File not found on server"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
