// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/natuspati/jeopardy/internal/catalog"
	"github.com/natuspati/jeopardy/internal/flow"
	"github.com/natuspati/jeopardy/internal/middleware"
	"github.com/natuspati/jeopardy/internal/store"
	"github.com/sirupsen/logrus"
)

// APIServer holds what the HTTP and WebSocket handlers share.
type APIServer struct {
	Store   store.Store
	Catalog catalog.Catalog
	Issuer  *auth.Issuer
	Game    *flow.Service
	Logger  *logrus.Logger

	// OriginPatterns are passed to the WebSocket upgrader; empty allows any origin.
	OriginPatterns []string
}

// Routes returns the router wrapped in request logging.
func (s *APIServer) Routes() http.Handler {
	router := httprouter.New()
	router.POST("/lobby", s.CreateLobbyHandler)
	router.GET("/lobby/:id", s.GetLobbyHandler)
	router.GET("/lobby/:id/ws", s.LobbyWSHandler)
	return middleware.LogMiddleware(s.Logger)(router)
}
