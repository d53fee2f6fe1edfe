package api

import (
	"workspace-server/internal/config"
	"workspace-server/internal/database"
	"workspace-server/internal/websocket"
	"workspace-server/internal/workspace"

	gws "github.com/gorilla/websocket"
)

// Server holds the dependencies shared by every HTTP handler.
type Server struct {
	config    *config.Config
	store     *database.Store
	workspace *workspace.Service
	wsHub     *websocket.Hub
	upgrader  *gws.Upgrader
}

func NewServer(cfg *config.Config, store *database.Store, ws *workspace.Service, wsHub *websocket.Hub) *Server {
	return &Server{
		config:    cfg,
		store:     store,
		workspace: ws,
		wsHub:     wsHub,
		upgrader:  websocket.NewUpgrader(cfg.CORS.AllowedOrigins),
	}
}
