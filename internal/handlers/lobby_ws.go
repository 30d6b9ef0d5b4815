// internal/handlers/lobby_ws.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/natuspati/jeopardy/internal/flow"
	"github.com/natuspati/jeopardy/internal/middleware"
	"github.com/natuspati/jeopardy/internal/registry"
)

const lobbySubprotocol = "lobby"

// LobbyWSHandler upgrades the request and runs the player's game session.
func (s *APIServer) LobbyWSHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lobbyID, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	opts := &websocket.AcceptOptions{Subprotocols: []string{lobbySubprotocol}}
	if len(s.OriginPatterns) > 0 {
		opts.OriginPatterns = s.OriginPatterns
	} else {
		opts.OriginPatterns = []string{"*"}
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != lobbySubprotocol {
		c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
		return
	}

	id, err := s.Issuer.AuthenticateJWT(tokenFromRequest(r))
	if err != nil {
		s.Logger.Warnf("User authentication failed for lobby %s: %v", lobbyID, err)
		if errors.Is(err, auth.ErrInvalidSubject) {
			c.Close(InvalidUserIDError, "invalid user id")
		} else {
			c.Close(InvalidAuthTokenError, "invalid auth token")
		}
		return
	}

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)
	err = s.Game.Play(r.Context(), id, lobbyID, registry.NewWebSocketConn(c))
	switch {
	case errors.Is(err, flow.ErrLobbyNotFound):
		c.Close(InvalidLobbyIDError, "lobby does not exist")
	case err != nil:
		c.Close(websocket.StatusInternalError, "lobby unavailable")
	default:
		c.Close(websocket.StatusNormalClosure, "")
	}
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
}
