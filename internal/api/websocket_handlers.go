package api

import (
	"log/slog"
	"net/http"
)

// ServeWsHandler upgrades to a websocket that receives every committed
// workspace event of the token's owner. Browsers cannot set headers on the
// handshake, so the access token travels in the query string.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = bearerToken(r)
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token query parameter required")
		return
	}

	claims, err := s.authenticate(token)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket connection with invalid token", "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	if err := s.wsHub.Serve(s.upgrader, w, r, claims.UserID); err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "user_id", claims.UserID, "error", err)
	}
}
