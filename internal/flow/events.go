// internal/flow/events.go
package flow

import "github.com/natuspati/jeopardy/internal/models"

const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventError = "error"
)

// Event is one outbound frame. State transitions use the new state's name as
// the event and always carry the lobby snapshot.
type Event struct {
	Event string        `json:"event"`
	Lobby *models.Lobby `json:"lobby,omitempty"`
	Meta  string        `json:"meta,omitempty"`
	Error string        `json:"error,omitempty"`
}

func stateEvent(l *models.Lobby) Event {
	return Event{Event: l.State.String(), Lobby: l}
}
