// internal/models/state.go
package models

// State is a lobby game phase. Values are the wire names used in events.
type State string

const (
	StateCreate         State = "create"
	StateStart          State = "start"
	StateSelectPlayer   State = "select_player"
	StateSelectQuestion State = "select_question"
	StateAnswerQuestion State = "answer_question"
	StateRateAnswer     State = "rate_answer"
	StateFinish         State = "finish"
)

var states = []State{
	StateCreate,
	StateStart,
	StateSelectPlayer,
	StateSelectQuestion,
	StateAnswerQuestion,
	StateRateAnswer,
	StateFinish,
}

// Valid reports whether s is one of the known phases.
func (s State) Valid() bool {
	for _, known := range states {
		if s == known {
			return true
		}
	}
	return false
}

// InRound reports whether a question round is under way, where a missing
// selected player means the lobby needs correcting.
func (s State) InRound() bool {
	return s == StateSelectQuestion || s == StateAnswerQuestion || s == StateRateAnswer
}

func (s State) String() string {
	return string(s)
}

// Role is a lobby member type.
type Role string

const (
	RoleLead   Role = "lead"
	RolePlayer Role = "player"
)

func (r Role) Valid() bool {
	return r == RoleLead || r == RolePlayer
}
