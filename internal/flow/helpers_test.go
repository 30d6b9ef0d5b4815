package flow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/natuspati/jeopardy/internal/registry"
	"github.com/natuspati/jeopardy/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	lead  = auth.Identity{UserID: 1, Username: "lead"}
	alice = auth.Identity{UserID: 2, Username: "alice"}
	bob   = auth.Identity{UserID: 3, Username: "bob"}
)

const waitTimeout = 2 * time.Second

// fakeConn is an in-memory player connection.
type fakeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-f.in:
		return data, nil
	case <-f.closed:
		return nil, errors.New("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeConn) Write(ctx context.Context, data []byte) error {
	select {
	case f.out <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeConn) Close(int, string) error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// recordingJournal keeps every recorded action.
type recordingJournal struct {
	mu      sync.Mutex
	actions []models.GameAction
}

func (j *recordingJournal) Record(_ context.Context, a models.GameAction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.actions = append(j.actions, a)
	return nil
}

func (j *recordingJournal) types() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.actions))
	for i, a := range j.actions {
		out[i] = a.ActionType
	}
	return out
}

type harness struct {
	store   store.Store
	rooms   *registry.Registry
	journal *recordingJournal
	svc     *Service
	lobbyID uuid.UUID
}

// testBoard has two categories of two prompts; 16 and 18 are playable.
func testBoard() []models.CategoryInGame {
	return []models.CategoryInGame{
		{ID: 1, Name: "Rivers", Prompts: []models.PromptInGame{
			{ID: 16, Question: "q16", Answer: "a16", DefaultPriority: 1, Available: true},
			{ID: 17, Question: "q17", Answer: "a17", DefaultPriority: 2, Available: false},
		}},
		{ID: 2, Name: "Peaks", Prompts: []models.PromptInGame{
			{ID: 18, Question: "q18", Answer: "a18", DefaultPriority: 2, Available: true},
			{ID: 19, Question: "q19", Answer: "a19", DefaultPriority: 1, Available: false},
		}},
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithStore(t, store.NewMemoryStore(time.Hour))
}

func newHarnessWithStore(t *testing.T, st store.Store) *harness {
	t.Helper()
	rooms := registry.New(64, quietLogger())
	rec := &recordingJournal{}
	h := &harness{
		store:   st,
		rooms:   rooms,
		journal: rec,
		svc:     NewService(st, rooms, rec, quietLogger()),
	}
	created, err := st.Create(context.Background(), &models.Lobby{
		ID:         uuid.New(),
		State:      models.StateCreate,
		Players:    []models.Player{{UserID: lead.UserID, Username: lead.Username, Role: models.RoleLead}},
		Categories: testBoard(),
	})
	require.NoError(t, err)
	h.lobbyID = created.ID
	return h
}

func (h *harness) lobby(t *testing.T) *models.Lobby {
	t.Helper()
	l, err := h.store.Get(context.Background(), h.lobbyID)
	require.NoError(t, err)
	return l
}

func (h *harness) setState(t *testing.T, state models.State) {
	t.Helper()
	_, err := h.store.Update(context.Background(), models.LobbyUpdate{ID: h.lobbyID, State: models.StatePtr(state)})
	require.NoError(t, err)
}

type player struct {
	id   auth.Identity
	conn *fakeConn
	done chan error
}

// connect starts a session and consumes the joiner's snapshot.
func (h *harness) connect(t *testing.T, id auth.Identity) *player {
	t.Helper()
	p := &player{id: id, conn: newFakeConn(), done: make(chan error, 1)}
	go func() { p.done <- h.svc.Play(context.Background(), id, h.lobbyID, p.conn) }()
	ev := p.next(t)
	require.NotEqual(t, EventJoin, ev.Event, "joiner must get a snapshot, not a join notice")
	require.NotNil(t, ev.Lobby)
	return p
}

func (p *player) send(t *testing.T, frame string) {
	t.Helper()
	select {
	case p.conn.in <- []byte(frame):
	case <-time.After(waitTimeout):
		t.Fatalf("%s: inbound frame not consumed", p.id.Username)
	}
}

func (p *player) disconnect(t *testing.T) {
	t.Helper()
	_ = p.conn.Close(1000, "bye")
	select {
	case err := <-p.done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatalf("%s: session did not end", p.id.Username)
	}
}

type received struct {
	Event
	raw      []byte
	rawLobby json.RawMessage
}

func (p *player) next(t *testing.T) received {
	t.Helper()
	select {
	case data := <-p.conn.out:
		var r received
		require.NoError(t, json.Unmarshal(data, &r.Event))
		var envelope struct {
			Lobby json.RawMessage `json:"lobby"`
		}
		require.NoError(t, json.Unmarshal(data, &envelope))
		r.raw = data
		r.rawLobby = envelope.Lobby
		return r
	case <-time.After(waitTimeout):
		t.Fatalf("%s: no event received", p.id.Username)
		return received{}
	}
}

func (p *player) expect(t *testing.T, event string) received {
	t.Helper()
	r := p.next(t)
	require.Equal(t, event, r.Event.Event, "%s got %s", p.id.Username, string(r.raw))
	return r
}

func (p *player) expectSilence(t *testing.T) {
	t.Helper()
	select {
	case data := <-p.conn.out:
		t.Fatalf("%s: unexpected event %s", p.id.Username, string(data))
	case <-time.After(50 * time.Millisecond):
	}
}
