// internal/rules/errors.go
package rules

import "github.com/natuspati/jeopardy/internal/models"

// GameFlowError is a recoverable rule violation. It is reported to the player
// who caused it and never changes the lobby.
type GameFlowError struct {
	Reason string
}

func (e *GameFlowError) Error() string {
	return e.Reason
}

// InvalidGameStateError is raised when the lobby is missing state an action
// depends on. The lobby must be forced into Correction before play continues.
type InvalidGameStateError struct {
	GameFlowError
	Correction models.State
}

func (e *InvalidGameStateError) Error() string {
	return e.Reason
}

// Unwrap exposes the embedded GameFlowError to errors.As.
func (e *InvalidGameStateError) Unwrap() error {
	return &e.GameFlowError
}
