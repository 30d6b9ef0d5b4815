package flow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/natuspati/jeopardy/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rateLobby waits for the lead to rate an answer to prompt 18, worth 200 points.
func rateLobby(selected bool, answerer int) *models.Lobby {
	l := &models.Lobby{
		ID:    uuid.New(),
		State: models.StateRateAnswer,
		Players: []models.Player{
			{UserID: lead.UserID, Username: lead.Username, Role: models.RoleLead},
			{UserID: alice.UserID, Username: alice.Username, Role: models.RolePlayer, Selected: selected},
			{UserID: bob.UserID, Username: bob.Username, Role: models.RolePlayer},
		},
		Categories: testBoard(),
	}
	p := l.Prompt(18)
	p.Available = false
	p.Selected = true
	if answerer != 0 {
		l.Answerer = &answerer
	}
	return l
}

func rate(t *testing.T, l *models.Lobby, correct bool) *models.Lobby {
	t.Helper()
	u, err := rateAnswer(rules.Checker{Lobby: l, Player: l.Lead()}, &correct)
	require.NoError(t, err)
	u.ID = l.ID
	require.NoError(t, u.Validate())
	return u.Apply(l)
}

func TestRateAnswerCorrectKeepsTurn(t *testing.T) {
	out := rate(t, rateLobby(true, alice.UserID), true)

	assert.Equal(t, models.StateSelectQuestion, out.State)
	assert.Equal(t, 200, *out.Player(alice.UserID).Score)
	assert.Equal(t, alice.UserID, out.Selected().UserID)
	assert.Nil(t, out.SelectedPrompt())
	assert.Nil(t, out.Answerer)
}

func TestRateAnswerCorrectTakesTurn(t *testing.T) {
	out := rate(t, rateLobby(false, bob.UserID), true)

	assert.Equal(t, models.StateSelectQuestion, out.State)
	assert.Equal(t, bob.UserID, out.Selected().UserID)
	assert.Equal(t, 200, *out.Player(bob.UserID).Score)
}

func TestRateAnswerWrongOpensPrompt(t *testing.T) {
	out := rate(t, rateLobby(true, alice.UserID), false)

	assert.Equal(t, models.StateAnswerQuestion, out.State)
	assert.Equal(t, -200, *out.Player(alice.UserID).Score)
	assert.Nil(t, out.Selected())
	require.NotNil(t, out.SelectedPrompt())
	assert.Equal(t, 18, out.SelectedPrompt().ID)
}

func TestRateAnswerWrongWithoutTurnClosesPrompt(t *testing.T) {
	out := rate(t, rateLobby(false, bob.UserID), false)

	assert.Equal(t, models.StateSelectPlayer, out.State)
	assert.Equal(t, -200, *out.Player(bob.UserID).Score)
	assert.Nil(t, out.SelectedPrompt())
}

func TestRateAnswerLastPromptFinishes(t *testing.T) {
	l := rateLobby(true, alice.UserID)
	l.Prompt(16).Available = false

	out := rate(t, l, true)
	assert.Equal(t, models.StateFinish, out.State)
	assert.Nil(t, out.Selected())
	assert.Equal(t, 200, *out.Player(alice.UserID).Score)
}

func TestRateAnswerAfterAnswererLeft(t *testing.T) {
	out := rate(t, rateLobby(false, 99), true)

	assert.Equal(t, models.StateSelectPlayer, out.State)
	for _, p := range out.Players {
		assert.Nil(t, p.Score)
	}
}

func TestTransitionsDoNotTouchInput(t *testing.T) {
	l := rateLobby(true, alice.UserID)
	before := l.Clone()
	rate(t, l, false)
	assert.Equal(t, before, l)

	l = rateLobby(false, 0)
	l.State = models.StateStart
	l.Prompt(18).Selected = false
	before = l.Clone()
	_, err := selectPlayer(rules.Checker{Lobby: l, Player: l.Lead()}, &bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, before, l)
}
