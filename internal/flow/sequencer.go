// internal/flow/sequencer.go
package flow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sequencer runs jobs for the same lobby one at a time.
// Each busy lobby gets a goroutine that exits once no caller is waiting on it.
type Sequencer struct {
	mu    sync.Mutex
	lanes map[uuid.UUID]*lane
}

type lane struct {
	jobs chan func()
	refs int
}

func NewSequencer() *Sequencer {
	return &Sequencer{lanes: make(map[uuid.UUID]*lane)}
}

type jobResult struct {
	err   error
	panic interface{}
}

// Do runs fn on the lobby's lane and waits for it. If ctx ends before fn
// starts, fn is skipped and ctx's error is returned. Once started, fn runs
// with a context that is not cancelled along with ctx. A panic in fn is
// re-raised in the caller's goroutine.
func (s *Sequencer) Do(ctx context.Context, lobbyID uuid.UUID, fn func(ctx context.Context) error) error {
	ln := s.acquire(lobbyID)
	defer s.release(lobbyID, ln)

	done := make(chan jobResult, 1)
	job := func() {
		defer func() {
			if p := recover(); p != nil {
				done <- jobResult{panic: p}
			}
		}()
		if err := ctx.Err(); err != nil {
			done <- jobResult{err: err}
			return
		}
		done <- jobResult{err: fn(context.WithoutCancel(ctx))}
	}

	select {
	case ln.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	res := <-done
	if res.panic != nil {
		panic(res.panic)
	}
	return res.err
}

func (s *Sequencer) acquire(lobbyID uuid.UUID) *lane {
	s.mu.Lock()
	defer s.mu.Unlock()
	ln, ok := s.lanes[lobbyID]
	if !ok {
		ln = &lane{jobs: make(chan func())}
		s.lanes[lobbyID] = ln
		go ln.run()
	}
	ln.refs++
	return ln
}

func (s *Sequencer) release(lobbyID uuid.UUID, ln *lane) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ln.refs--
	if ln.refs == 0 {
		delete(s.lanes, lobbyID)
		close(ln.jobs)
	}
}

func (ln *lane) run() {
	for job := range ln.jobs {
		job()
	}
}

// Active reports how many lobbies currently have a lane.
func (s *Sequencer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}
