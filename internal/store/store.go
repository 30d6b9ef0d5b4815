// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/models"
)

var (
	// ErrNotFound is returned when no live document exists for a lobby id.
	ErrNotFound = errors.New("lobby not found")

	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("lobby already exists")

	// ErrVersionConflict is returned by Update when the expected version does
	// not match, or when concurrent writers kept the update from committing.
	ErrVersionConflict = errors.New("lobby version conflict")
)

// Store holds one document per lobby. Every write replaces the stored document
// entirely and every read returns the latest one.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Lobby, error)
	Create(ctx context.Context, lobby *models.Lobby) (*models.Lobby, error)

	// Update applies the supplied fields to the stored lobby, bumps its version
	// and returns the document as re-read after the write.
	Update(ctx context.Context, update models.LobbyUpdate) (*models.Lobby, error)

	// Delete removes the document. Deleting a missing lobby is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

func encode(lobby *models.Lobby) ([]byte, error) {
	data, err := json.Marshal(lobby)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lobby %s: %w", lobby.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := json.Unmarshal(data, &lobby); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lobby document: %w", err)
	}
	return &lobby, nil
}

// prepareCreate validates a new lobby and stamps its first version.
func prepareCreate(lobby *models.Lobby) (*models.Lobby, error) {
	if err := lobby.Validate(); err != nil {
		return nil, err
	}
	out := lobby.Clone()
	out.Version = 1
	return out, nil
}

// applyUpdate computes the next document from the current one.
func applyUpdate(current *models.Lobby, update models.LobbyUpdate) (*models.Lobby, error) {
	if update.Version != 0 && update.Version != current.Version {
		return nil, fmt.Errorf("lobby %s at version %d, update expected %d: %w",
			current.ID, current.Version, update.Version, ErrVersionConflict)
	}
	next := update.Apply(current)
	next.Version = current.Version + 1
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}
