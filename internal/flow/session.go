// internal/flow/session.go
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/natuspati/jeopardy/internal/registry"
	"github.com/natuspati/jeopardy/internal/rules"
	"github.com/natuspati/jeopardy/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	msgUnavailable = "Service unavailable, try again"
	msgInternal    = "Internal error"
	msgLobbyGone   = "Lobby no longer exists"

	leaveTimeout = 5 * time.Second
)

// Session is one player's connection to one lobby. It is created per
// connection and never shared.
type Session struct {
	svc     *Service
	lobbyID uuid.UUID
	id      auth.Identity
	conn    registry.Conn
	log     logrus.FieldLogger
}

// join adds the player to the lobby document if needed, registers the
// connection and announces the player. Registration and the inbound stream
// are set up on the lobby's lane so a concurrent reconnect cannot interleave.
func (s *Session) join(ctx context.Context) (<-chan []byte, error) {
	var frames <-chan []byte
	err := s.svc.seq.Do(ctx, s.lobbyID, func(jobCtx context.Context) error {
		lobby, err := s.svc.store.Get(jobCtx, s.lobbyID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrLobbyNotFound
		}
		if err != nil {
			return err
		}

		if !lobby.HasPlayer(s.id.UserID) {
			players := append(lobby.Players, models.Player{
				UserID:   s.id.UserID,
				Username: s.id.Username,
				Role:     models.RolePlayer,
			})
			lobby, err = s.svc.store.Update(jobCtx, models.LobbyUpdate{
				ID:      s.lobbyID,
				Version: lobby.Version,
				Players: players,
			})
			if err != nil {
				return err
			}
		}

		s.svc.rooms.Add(s.lobbyID, s.id.UserID, s.conn)
		frames = s.svc.rooms.Receive(ctx, s.lobbyID, s.id.UserID)

		s.send(stateEvent(lobby))
		s.broadcast(Event{
			Event: EventJoin,
			Lobby: lobby,
			Meta:  fmt.Sprintf("Player %s joined the lobby", s.id.Username),
		}, s.id.UserID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("player %s joined", s.id.Username)
	return frames, nil
}

// listen handles frames in arrival order until the stream ends.
func (s *Session) listen(ctx context.Context, frames <-chan []byte) {
	for data := range frames {
		s.handleFrame(ctx, data)
	}
}

func (s *Session) handleFrame(ctx context.Context, data []byte) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Errorf("panic while handling message: %v\n%s", p, debug.Stack())
			s.sendError(msgInternal)
		}
	}()

	msg, action, err := decodeMessage(data)
	if err != nil {
		s.report(action, err)
		return
	}
	err = s.svc.seq.Do(ctx, s.lobbyID, func(jobCtx context.Context) error {
		return s.dispatch(jobCtx, action, msg)
	})
	if err != nil {
		s.report(action, err)
	}
}

// dispatch runs one action against the latest lobby document.
func (s *Session) dispatch(ctx context.Context, action Action, msg Message) error {
	lobby, err := s.svc.store.Get(ctx, s.lobbyID)
	if err != nil {
		return err
	}
	player := lobby.Player(s.id.UserID)
	if player == nil {
		return &rules.GameFlowError{Reason: fmt.Sprintf("Player %d is not in the lobby", s.id.UserID)}
	}
	check := rules.Checker{Lobby: lobby, Player: player, Log: s.log}

	var update models.LobbyUpdate
	switch action {
	case ActionStart:
		update, err = startGame(check)
	case ActionSelectPlayer:
		update, err = selectPlayer(check, msg.UserID)
	case ActionSelectQuestion:
		update, err = selectQuestion(check, msg.PromptID)
	case ActionAnswerQuestion:
		update, err = answerQuestion(check)
	case ActionRateAnswer:
		update, err = rateAnswer(check, msg.Rating)
	default:
		return fmt.Errorf("no handler for %v", action)
	}

	var stateErr *rules.InvalidGameStateError
	if errors.As(err, &stateErr) {
		return s.correct(ctx, lobby, stateErr)
	}
	if err != nil {
		return err
	}

	update.ID = lobby.ID
	update.Version = lobby.Version
	next, err := s.svc.store.Update(ctx, update)
	if err != nil {
		return err
	}
	s.record(ctx, action, msg, next)
	s.broadcast(stateEvent(next))
	return nil
}

// correct force-writes the state an InvalidGameStateError asks for, shows the
// room the corrected lobby and tells the caller what went wrong. A prompt left
// in play is closed and the answerer dropped, so the round restarts cleanly.
func (s *Session) correct(ctx context.Context, lobby *models.Lobby, stateErr *rules.InvalidGameStateError) error {
	work := lobby.Clone()
	closePrompt(work.SelectedPrompt())

	state := stateErr.Correction
	if work.AvailablePrompts() == 0 {
		work.ClearSelection()
		state = models.StateFinish
	}
	next, err := s.svc.store.Update(ctx, models.LobbyUpdate{
		ID:            lobby.ID,
		Version:       lobby.Version,
		State:         models.StatePtr(state),
		Players:       work.Players,
		Categories:    work.Categories,
		ClearAnswerer: true,
	})
	if err != nil {
		return err
	}
	s.broadcast(stateEvent(next))
	s.send(Event{Event: EventError, Error: stateErr.Reason, Lobby: next})
	return nil
}

// leave deregisters the connection and removes the player from the lobby.
// A session whose connection was replaced by a reconnect leaves the player in.
func (s *Session) leave(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()

	err := s.svc.seq.Do(ctx, s.lobbyID, func(jobCtx context.Context) error {
		if !s.svc.rooms.RemoveIf(s.lobbyID, s.id.UserID, s.conn) {
			s.log.Debug("connection superseded, keeping player")
			return nil
		}
		return s.removePlayer(jobCtx)
	})
	if err != nil {
		s.log.Errorf("failed to remove player on disconnect: %v", err)
		return
	}
	s.log.Infof("player %s left", s.id.Username)
}

func (s *Session) removePlayer(ctx context.Context) error {
	lobby, err := s.svc.store.Get(ctx, s.lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	work := lobby.Clone()
	removed, ok := work.RemovePlayer(s.id.UserID)
	if !ok {
		return nil
	}
	if len(work.Players) == 0 {
		s.log.Info("last player left, deleting lobby")
		return s.svc.store.Delete(ctx, s.lobbyID)
	}
	if removed.IsLead() {
		work.Players[0].Role = models.RoleLead
	}

	update := models.LobbyUpdate{
		ID:      s.lobbyID,
		Version: lobby.Version,
		Players: work.Players,
	}
	if work.Answerer != nil && *work.Answerer == removed.UserID {
		update.ClearAnswerer = true
	}
	if removed.Selected && work.State == models.StateSelectQuestion {
		update.State = models.StatePtr(models.StateSelectPlayer)
	}

	next, err := s.svc.store.Update(ctx, update)
	if err != nil {
		return err
	}
	s.broadcast(Event{
		Event: EventLeave,
		Lobby: next,
		Meta:  fmt.Sprintf("Player %s left the lobby", removed.Username),
	})
	return nil
}

// report turns a failed action into an error event for the caller.
func (s *Session) report(action Action, err error) {
	var flowErr *rules.GameFlowError
	switch {
	case errors.As(err, &flowErr):
		s.sendError(flowErr.Reason)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.log.Debugf("%v abandoned: %v", action, err)
	case errors.Is(err, store.ErrNotFound):
		s.sendError(msgLobbyGone)
	case errors.Is(err, models.ErrInvalidLobby):
		s.log.WithField("action", action.String()).Errorf("write would break lobby invariants: %v", err)
		s.sendError(msgInternal)
	default:
		s.log.WithField("action", action.String()).Errorf("action failed: %v", err)
		s.sendError(msgUnavailable)
	}
}

func (s *Session) record(ctx context.Context, action Action, msg Message, lobby *models.Lobby) {
	err := s.svc.journal.Record(ctx, models.GameAction{
		LobbyID:     lobby.ID,
		ActionIndex: lobby.Version,
		ActorUserID: s.id.UserID,
		ActionType:  action.String(),
		Payload:     msg.payload(),
		State:       lobby.State,
		Timestamp:   s.svc.now().UnixMilli(),
	})
	if err != nil {
		s.log.Warnf("failed to journal %v: %v", action, err)
	}
}

func (s *Session) send(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Errorf("failed to marshal %s event: %v", ev.Event, err)
		return
	}
	s.svc.rooms.SendTo(s.lobbyID, data, s.id.UserID)
}

func (s *Session) sendError(reason string) {
	s.send(Event{Event: EventError, Error: reason})
}

func (s *Session) broadcast(ev Event, excluding ...int) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Errorf("failed to marshal %s event: %v", ev.Event, err)
		return
	}
	s.svc.rooms.Broadcast(s.lobbyID, data, excluding...)
}
