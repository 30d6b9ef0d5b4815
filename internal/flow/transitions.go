// internal/flow/transitions.go
package flow

import (
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/natuspati/jeopardy/internal/rules"
)

// Each transition validates through the checker and returns the fields to
// write. None of them modify the checker's lobby.

func startGame(c rules.Checker) (models.LobbyUpdate, error) {
	if err := c.CheckStart(); err != nil {
		return models.LobbyUpdate{}, err
	}
	return models.LobbyUpdate{State: models.StatePtr(models.StateStart)}, nil
}

func selectPlayer(c rules.Checker, userID *int) (models.LobbyUpdate, error) {
	target, err := c.CheckSelectPlayer(userID)
	if err != nil {
		return models.LobbyUpdate{}, err
	}
	work := c.Lobby.Clone()
	work.Player(target.UserID).Selected = true
	return models.LobbyUpdate{
		State:   models.StatePtr(models.StateSelectQuestion),
		Players: work.Players,
	}, nil
}

func selectQuestion(c rules.Checker, promptID *int) (models.LobbyUpdate, error) {
	prompt, err := c.CheckSelectQuestion(promptID)
	if err != nil {
		return models.LobbyUpdate{}, err
	}
	work := c.Lobby.Clone()
	p := work.Prompt(prompt.ID)
	p.Available = false
	p.Selected = true
	return models.LobbyUpdate{
		State:      models.StatePtr(models.StateAnswerQuestion),
		Categories: work.Categories,
	}, nil
}

func answerQuestion(c rules.Checker) (models.LobbyUpdate, error) {
	if err := c.CheckAnswer(); err != nil {
		return models.LobbyUpdate{}, err
	}
	answerer := c.Player.UserID
	return models.LobbyUpdate{
		State:    models.StatePtr(models.StateRateAnswer),
		Answerer: &answerer,
	}, nil
}

// rateAnswer scores the pending answer by the prompt's points.
//
// A correct answer keeps or takes the turn and moves on to the next question.
// A wrong answer from the selected player opens the prompt to everyone; a
// wrong answer while nobody is selected closes the prompt and the lead picks
// the next player.
func rateAnswer(c rules.Checker, rating *bool) (models.LobbyUpdate, error) {
	correct, err := c.CheckRateAnswer(rating)
	if err != nil {
		return models.LobbyUpdate{}, err
	}

	work := c.Lobby.Clone()
	prompt := work.SelectedPrompt()
	points := 0
	if prompt != nil {
		points = prompt.Points()
	}
	var answerer *models.Player
	if work.Answerer != nil {
		answerer = work.Player(*work.Answerer)
	}

	var next models.State
	if correct {
		if answerer != nil {
			answerer.AddScore(points)
			if work.Selected() == nil {
				answerer.Selected = true
			}
		}
		closePrompt(prompt)
		next = models.StateSelectQuestion
		if work.Selected() == nil {
			next = models.StateSelectPlayer
		}
	} else {
		if answerer != nil {
			answerer.AddScore(-points)
		}
		if selected := work.Selected(); selected != nil && prompt != nil {
			selected.Selected = false
			next = models.StateAnswerQuestion
		} else {
			work.ClearSelection()
			closePrompt(prompt)
			next = models.StateSelectPlayer
		}
	}

	if next != models.StateAnswerQuestion && work.AvailablePrompts() == 0 {
		work.ClearSelection()
		next = models.StateFinish
	}

	return models.LobbyUpdate{
		State:         models.StatePtr(next),
		Players:       work.Players,
		Categories:    work.Categories,
		ClearAnswerer: true,
	}, nil
}

func closePrompt(p *models.PromptInGame) {
	if p != nil {
		p.Selected = false
	}
}
