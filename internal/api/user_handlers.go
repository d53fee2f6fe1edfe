package api

import (
	"log/slog"
	"net/http"
	"workspace-server/internal/models"
)

// @Summary      Get current user profile
// @Description  Retrieves the authenticated account together with its workspace root id and total workspace size.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Profile
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load user", "user_id", claims.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user data")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	profile := models.Profile{User: *user}
	root, err := s.store.GetRootNode(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load workspace root", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user data")
		return
	}
	if root != nil {
		profile.RootID = root.ID
		profile.WorkspaceSize = root.Size
	}

	writeJSON(w, http.StatusOK, profile)
}
