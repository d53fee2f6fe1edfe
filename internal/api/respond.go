package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"workspace-server/internal/workspace"
)

type ErrorResponse struct {
	Error string `json:"error" example:"node not found"`
}

type MessageResponse struct {
	Message string `json:"message" example:"File deleted"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps a workspace error kind to its HTTP status.
func statusFor(err error) int {
	switch workspace.Kind(err) {
	case workspace.ErrNotFound:
		return http.StatusNotFound
	case workspace.ErrForbidden:
		return http.StatusForbidden
	case workspace.ErrConflict:
		return http.StatusConflict
	case workspace.ErrInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeWorkspaceError reports err to the client. Internal failures get a
// generic message; the service has already logged the cause.
func writeWorkspaceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := "Internal server error"
	var wsErr *workspace.Error
	if status != http.StatusInternalServerError && errors.As(err, &wsErr) {
		message = wsErr.Message
	}
	writeError(w, status, message)
}

// decodeJSON reads a JSON body, answering 400 (or 413) itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) {
	if s.config != nil && s.config.Workspace.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.Workspace.MaxBodyBytes)
	}
}
