package models

import (
	"fmt"

	"github.com/google/uuid"
)

// LobbyUpdate is a partial replacement of a stored lobby. Nil fields are left
// untouched; non-nil fields replace the stored value entirely.
type LobbyUpdate struct {
	ID uuid.UUID

	// Version, when non-zero, must match the stored version for the write to happen.
	Version int64

	State      *State
	Players    []Player
	Categories []CategoryInGame

	Answerer      *int
	ClearAnswerer bool
}

// Empty reports whether the update would change nothing.
func (u LobbyUpdate) Empty() bool {
	return u.State == nil && u.Players == nil && u.Categories == nil &&
		u.Answerer == nil && !u.ClearAnswerer
}

// Validate checks the supplied fields against the lobby invariants.
func (u LobbyUpdate) Validate() error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("%w: update without lobby id", ErrInvalidLobby)
	}
	if u.State != nil && !u.State.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidLobby, *u.State)
	}
	if u.Players != nil {
		if err := validatePlayers(u.Players); err != nil {
			return err
		}
	}
	if u.Categories != nil {
		if err := validateCategories(u.Categories); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of l with the update applied. The version is not touched.
func (u LobbyUpdate) Apply(l *Lobby) *Lobby {
	out := l.Clone()
	if u.State != nil {
		out.State = *u.State
	}
	if u.Players != nil {
		out.Players = clonePlayers(u.Players)
	}
	if u.Categories != nil {
		out.Categories = cloneCategories(u.Categories)
	}
	switch {
	case u.Answerer != nil:
		answerer := *u.Answerer
		out.Answerer = &answerer
	case u.ClearAnswerer:
		out.Answerer = nil
	}
	return out
}

// StatePtr is a helper for building updates inline.
func StatePtr(s State) *State {
	return &s
}
