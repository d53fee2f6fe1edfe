package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the websocket, health and /api/v1 endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/ws", s.ServeWsHandler)
	r.Get("/health", s.HealthCheckHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.RegisterHandler)
		r.Post("/auth/login", s.LoginHandler)
		r.Post("/auth/refresh", s.RefreshTokenHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Get("/me", s.GetCurrentUserHandler)
			r.Get("/sessions", s.ListSessionsHandler)
			r.Delete("/sessions/{sessionId}", s.DeleteSessionHandler)
			r.Post("/sessions/terminate_all", s.TerminateAllSessionsHandler)
			r.Get("/events", s.GetEventsHandler)

			r.Get("/workspace", s.GetTreeHandler)
			r.Post("/workspace", s.CreateNodeHandler)
			r.Post("/workspace/upload", s.UploadHandler)
			r.Get("/workspace/download", s.DownloadHandler)
			r.Get("/workspace/lookup", s.LookupHandler)
			r.Delete("/workspace/{nodeId}", s.DeleteNodeHandler)
			r.Patch("/workspace/{nodeId}/name", s.RenameNodeHandler)
			r.Patch("/workspace/{nodeId}/parent", s.MoveNodeHandler)
			r.Patch("/workspace/{nodeId}/content", s.UpdateContentHandler)
		})
	})

	return r
}
