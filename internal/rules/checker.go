// internal/rules/checker.go
package rules

import (
	"fmt"
	"reflect"

	"github.com/natuspati/jeopardy/internal/models"
	"github.com/sirupsen/logrus"
)

// Checker decides whether Player may perform an action on Lobby. Checks are
// evaluated in a fixed order (role, state, turn, payload, target) and stop at
// the first violation. Checker never modifies Lobby.
type Checker struct {
	Lobby  *models.Lobby
	Player *models.Player
	Log    logrus.FieldLogger
}

func (c Checker) CheckStart() error {
	if err := c.requireLead(); err != nil {
		return err
	}
	if c.Lobby.State != models.StateCreate {
		return c.reject("Lobby has already started")
	}
	return nil
}

// CheckSelectPlayer returns the member that userID refers to.
func (c Checker) CheckSelectPlayer(userID *int) (*models.Player, error) {
	if err := c.requireLead(); err != nil {
		return nil, err
	}
	if s := c.Lobby.State; s != models.StateStart && s != models.StateSelectPlayer {
		return nil, c.reject("Cannot select player")
	}
	if selected := c.Lobby.Selected(); selected != nil {
		return nil, c.reject(fmt.Sprintf("Player %d is already selected", selected.UserID))
	}
	if userID == nil {
		return nil, c.reject("Invalid message, user_id missing")
	}
	target := c.Lobby.Player(*userID)
	if target == nil {
		return nil, c.reject(fmt.Sprintf("Player %d is not found in the lobby", *userID))
	}
	return target, nil
}

// CheckSelectQuestion returns the prompt that promptID refers to. With no
// selected player during a round it fails with an InvalidGameStateError;
// before start and after finish it is a plain rejection.
func (c Checker) CheckSelectQuestion(promptID *int) (*models.PromptInGame, error) {
	selected := c.Lobby.Selected()
	if selected == nil {
		if !c.Lobby.State.InRound() {
			return nil, c.reject("Cannot select question")
		}
		err := &InvalidGameStateError{
			GameFlowError: GameFlowError{Reason: "No selected player when selecting question"},
			Correction:    models.StateSelectPlayer,
		}
		c.logRejection(err)
		return nil, err
	}
	if c.Player.UserID != selected.UserID {
		return nil, c.reject(fmt.Sprintf("Player %d is not selected player", c.Player.UserID))
	}
	if c.Lobby.State != models.StateSelectQuestion {
		return nil, c.reject("Cannot select question")
	}
	if promptID == nil {
		return nil, c.reject("Invalid message, prompt_id missing")
	}
	prompt := c.Lobby.Prompt(*promptID)
	if prompt == nil {
		return nil, c.reject(fmt.Sprintf("Prompt %d is not found in the lobby", *promptID))
	}
	if !prompt.Available {
		return nil, c.reject(fmt.Sprintf("Prompt %d is not available", *promptID))
	}
	return prompt, nil
}

// CheckAnswer allows anyone to answer while no player is selected.
func (c Checker) CheckAnswer() error {
	if selected := c.Lobby.Selected(); selected != nil && selected.UserID != c.Player.UserID {
		return c.reject(fmt.Sprintf("Player %d is not selected player", c.Player.UserID))
	}
	if c.Lobby.State != models.StateAnswerQuestion {
		return c.reject("Cannot answer question")
	}
	return nil
}

// CheckRateAnswer returns the rating value.
func (c Checker) CheckRateAnswer(rating *bool) (bool, error) {
	if err := c.requireLead(); err != nil {
		return false, err
	}
	if c.Lobby.State != models.StateRateAnswer {
		return false, c.reject("Cannot rate answer")
	}
	if rating == nil {
		return false, c.reject("Invalid message, rating missing")
	}
	return *rating, nil
}

func (c Checker) requireLead() error {
	if !c.Player.IsLead() {
		return c.reject(fmt.Sprintf("Player %s is not a lead", c.Player.Username))
	}
	return nil
}

func (c Checker) reject(reason string) error {
	err := &GameFlowError{Reason: reason}
	c.logRejection(err)
	return err
}

func (c Checker) logRejection(err error) {
	if c.Log == nil {
		return
	}
	c.Log.WithFields(logrus.Fields{
		"lobby_id": c.Lobby.ID,
		"user_id":  c.Player.UserID,
		"state":    c.Lobby.State,
	}).Infof("%s: %s", reflect.TypeOf(err).Elem().Name(), err)
}
