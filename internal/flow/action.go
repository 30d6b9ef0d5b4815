// internal/flow/action.go
package flow

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/natuspati/jeopardy/internal/rules"
)

// Action is an inbound player command.
type Action int

const (
	ActionStart Action = iota + 1
	ActionSelectPlayer
	ActionSelectQuestion
	ActionAnswerQuestion
	ActionRateAnswer
)

var actionNames = [...]string{
	ActionStart:          "start",
	ActionSelectPlayer:   "select_player",
	ActionSelectQuestion: "select_question",
	ActionAnswerQuestion: "answer_question",
	ActionRateAnswer:     "rate_answer",
}

func (a Action) String() string {
	if a < ActionStart || a > ActionRateAnswer {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction maps a wire name to an Action.
func ParseAction(name string) (Action, error) {
	for a := ActionStart; a <= ActionRateAnswer; a++ {
		if actionNames[a] == name {
			return a, nil
		}
	}
	return 0, &rules.GameFlowError{Reason: fmt.Sprintf("Unsupported action %s", name)}
}

var validate = validator.New()

// Message is one inbound frame.
type Message struct {
	Action   string `json:"action" validate:"required,oneof=start select_player select_question answer_question rate_answer"`
	UserID   *int   `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	PromptID *int   `json:"prompt_id,omitempty" validate:"omitempty,gt=0"`
	Rating   *bool  `json:"rating,omitempty"`
}

const msgInvalidJSON = "Invalid JSON format"

// decodeMessage parses and validates a frame. Every failure is a GameFlowError.
func decodeMessage(data []byte) (Message, Action, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, 0, &rules.GameFlowError{Reason: msgInvalidJSON}
	}
	if err := validate.Struct(msg); err != nil {
		return Message{}, 0, validationError(msg, err)
	}
	action, err := ParseAction(msg.Action)
	if err != nil {
		return Message{}, 0, err
	}
	return msg, action, nil
}

func validationError(msg Message, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &rules.GameFlowError{Reason: "Invalid message"}
	}
	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Action" && fe.Tag() == "required":
		return &rules.GameFlowError{Reason: "Invalid message, action missing"}
	case fe.Field() == "Action":
		return &rules.GameFlowError{Reason: fmt.Sprintf("Unsupported action %s", msg.Action)}
	case fe.Field() == "UserID":
		return &rules.GameFlowError{Reason: "Invalid message, user_id must be positive"}
	case fe.Field() == "PromptID":
		return &rules.GameFlowError{Reason: "Invalid message, prompt_id must be positive"}
	default:
		return &rules.GameFlowError{Reason: fmt.Sprintf("Invalid message, bad %s", fe.Field())}
	}
}

// payload returns the action-specific fields for the journal.
func (m Message) payload() map[string]interface{} {
	out := make(map[string]interface{})
	if m.UserID != nil {
		out["user_id"] = *m.UserID
	}
	if m.PromptID != nil {
		out["prompt_id"] = *m.PromptID
	}
	if m.Rating != nil {
		out["rating"] = *m.Rating
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
