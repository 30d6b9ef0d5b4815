// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes for the lobby handler.
const (
	BadSubprotocolError   = 3000 // Client did not negotiate the lobby subprotocol.
	InvalidAuthTokenError = 3001 // Missing, expired or forged auth token.
	InvalidUserIDError    = 3002 // Token verified but its subject is not a user id.
	InvalidLobbyIDError   = 3003 // Lobby in the WS URL does not exist.
)
