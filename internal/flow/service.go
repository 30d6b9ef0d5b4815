// internal/flow/service.go
package flow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/natuspati/jeopardy/internal/journal"
	"github.com/natuspati/jeopardy/internal/registry"
	"github.com/natuspati/jeopardy/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrLobbyNotFound is returned by Play when the lobby does not exist.
var ErrLobbyNotFound = errors.New("lobby not found")

// Rooms is the part of the connection registry the game drives.
type Rooms interface {
	Add(room uuid.UUID, member int, conn registry.Conn)
	RemoveIf(room uuid.UUID, member int, conn registry.Conn) bool
	Broadcast(room uuid.UUID, data []byte, excluding ...int)
	SendTo(room uuid.UUID, data []byte, members ...int)
	Receive(ctx context.Context, room uuid.UUID, member int) <-chan []byte
}

// Service is shared by every connection in the process.
type Service struct {
	store   store.Store
	rooms   Rooms
	seq     *Sequencer
	journal journal.Recorder
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewService(st store.Store, rooms Rooms, rec journal.Recorder, log logrus.FieldLogger) *Service {
	if rec == nil {
		rec = journal.NopJournal{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		store:   st,
		rooms:   rooms,
		seq:     NewSequencer(),
		journal: rec,
		log:     log,
		now:     time.Now,
	}
}

// Play joins id to the lobby over conn and runs the session until the
// connection ends. It returns ErrLobbyNotFound without registering conn when
// the lobby does not exist.
func (s *Service) Play(ctx context.Context, id auth.Identity, lobbyID uuid.UUID, conn registry.Conn) error {
	sess := &Session{
		svc:     s,
		lobbyID: lobbyID,
		id:      id,
		conn:    conn,
		log: s.log.WithFields(logrus.Fields{
			"lobby_id": lobbyID,
			"user_id":  id.UserID,
		}),
	}

	frames, err := sess.join(ctx)
	if err != nil {
		return err
	}
	defer sess.leave(ctx)

	sess.listen(ctx, frames)
	return nil
}
