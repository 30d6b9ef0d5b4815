// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/models"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps serialized lobby documents in a map. Documents are stored
// as JSON so readers never share memory with writers.
type MemoryStore struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns an empty store. A ttl of zero keeps documents forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		lobbies: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// load returns the live entry for id. Callers hold s.mu.
func (s *MemoryStore) load(id uuid.UUID) (*models.Lobby, bool, error) {
	entry, ok := s.lobbies[id]
	if !ok {
		return nil, false, nil
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.lobbies, id)
		return nil, false, nil
	}
	lobby, err := decode(entry.data)
	if err != nil {
		return nil, false, err
	}
	return lobby, true, nil
}

// save stores lobby and resets its expiry. Callers hold s.mu.
func (s *MemoryStore) save(lobby *models.Lobby) error {
	data, err := encode(lobby)
	if err != nil {
		return err
	}
	entry := memoryEntry{data: data}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	s.lobbies[lobby.ID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lobby %s: %w", id, ErrNotFound)
	}
	return lobby, nil
}

func (s *MemoryStore) Create(_ context.Context, lobby *models.Lobby) (*models.Lobby, error) {
	doc, err := prepareCreate(lobby)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists, err := s.load(doc.ID); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("lobby %s: %w", doc.ID, ErrAlreadyExists)
	}
	if err := s.save(doc); err != nil {
		return nil, err
	}
	out, _, err := s.load(doc.ID)
	return out, err
}

func (s *MemoryStore) Update(_ context.Context, update models.LobbyUpdate) (*models.Lobby, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.load(update.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lobby %s: %w", update.ID, ErrNotFound)
	}
	next, err := applyUpdate(current, update)
	if err != nil {
		return nil, err
	}
	if err := s.save(next); err != nil {
		return nil, err
	}
	out, _, err := s.load(update.ID)
	return out, err
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
	return nil
}

// Len reports how many live lobbies are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.lobbies {
		if _, ok, _ := s.load(id); ok {
			n++
		}
	}
	return n
}
