package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"workspace-server/internal/database"
)

type EventsResponse struct {
	Events []database.Event `json:"events"`
	// Cursor is the id to pass as 'since' on the next poll.
	Cursor  int64 `json:"cursor" example:"42"`
	HasMore bool  `json:"hasMore" example:"false"`
}

func intQuery(r *http.Request, key string, def int64) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid '%s' parameter, must be a non-negative number", key)
	}
	return n, nil
}

// @Summary      Poll workspace events
// @Description  Returns journal events newer than 'since', oldest first. Clients keep their cache in sync by passing the returned cursor on the next call.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        since  query     int     false  "Id of the last event already seen. Omit or use 0 to start from the beginning."
// @Param        limit  query     int     false  "Page size, 1-500 (default 100)"
// @Param        types  query     string  false  "Comma separated event types to include"
// @Success      200    {object}  EventsResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	since, err := intQuery(r, "since", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intQuery(r, "limit", database.DefaultEventPageSize)
	if err != nil || limit == 0 || limit > database.MaxEventPageSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'limit' parameter, must be between 1 and %d", database.MaxEventPageSize))
		return
	}
	var types []string
	if v := r.URL.Query().Get("types"); v != "" {
		types = strings.Split(v, ",")
	}

	events, err := s.store.ListEvents(r.Context(), claims.UserID, database.EventPage{
		SinceID: since,
		Limit:   int(limit),
		Types:   types,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load events", "user_id", claims.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	resp := EventsResponse{Events: events, Cursor: since, HasMore: len(events) == int(limit)}
	if n := len(events); n > 0 {
		resp.Cursor = events[n-1].ID
	}
	writeJSON(w, http.StatusOK, resp)
}
