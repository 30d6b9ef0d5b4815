package models

import "github.com/google/uuid"

// GameAction captures one accepted player move, as recorded by the action journal.
type GameAction struct {
	LobbyID     uuid.UUID              `json:"lobby_id"`
	ActionIndex int64                  `json:"action_index"` // lobby version after the move
	ActorUserID int                    `json:"actor_user_id"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	State       State                  `json:"state"`
	Timestamp   int64                  `json:"timestamp"`
}
