// internal/models/lobby.go
package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrInvalidLobby is wrapped by every invariant violation reported by Validate.
var ErrInvalidLobby = errors.New("invalid lobby")

// Lobby is the aggregate for one game session. It is stored as a single JSON
// document and mutated only through the lobby store.
type Lobby struct {
	ID         uuid.UUID        `json:"id"`
	State      State            `json:"state"`
	Players    []Player         `json:"players"`
	Categories []CategoryInGame `json:"categories"`

	// Answerer is the user whose answer awaits the lead's rating.
	Answerer *int `json:"answerer"`

	// Version is bumped by the store on every successful write.
	Version int64 `json:"version"`
}

// Lead returns the lead player, or nil if the lobby has none.
func (l *Lobby) Lead() *Player {
	for i := range l.Players {
		if l.Players[i].IsLead() {
			return &l.Players[i]
		}
	}
	return nil
}

// Selected returns the player whose turn it is, or nil.
func (l *Lobby) Selected() *Player {
	for i := range l.Players {
		if l.Players[i].Selected {
			return &l.Players[i]
		}
	}
	return nil
}

// Player returns the member with the given user id, or nil.
func (l *Lobby) Player(userID int) *Player {
	for i := range l.Players {
		if l.Players[i].UserID == userID {
			return &l.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether userID is a member of the lobby.
func (l *Lobby) HasPlayer(userID int) bool {
	return l.Player(userID) != nil
}

// RemovePlayer drops the member with the given user id and returns it.
func (l *Lobby) RemovePlayer(userID int) (Player, bool) {
	for i, p := range l.Players {
		if p.UserID == userID {
			l.Players = append(l.Players[:i:i], l.Players[i+1:]...)
			return p, true
		}
	}
	return Player{}, false
}

// ClearSelection unsets the selected flag on every player.
func (l *Lobby) ClearSelection() {
	for i := range l.Players {
		l.Players[i].Selected = false
	}
}

// Prompt returns the prompt with the given id from any category, or nil.
func (l *Lobby) Prompt(promptID int) *PromptInGame {
	for i := range l.Categories {
		prompts := l.Categories[i].Prompts
		for j := range prompts {
			if prompts[j].ID == promptID {
				return &prompts[j]
			}
		}
	}
	return nil
}

// SelectedPrompt returns the prompt currently being answered, or nil.
func (l *Lobby) SelectedPrompt() *PromptInGame {
	for i := range l.Categories {
		prompts := l.Categories[i].Prompts
		for j := range prompts {
			if prompts[j].Selected {
				return &prompts[j]
			}
		}
	}
	return nil
}

// AvailablePrompts counts the prompts that have not been played yet.
func (l *Lobby) AvailablePrompts() int {
	count := 0
	for _, cat := range l.Categories {
		count += lo.CountBy(cat.Prompts, func(p PromptInGame) bool { return p.Available })
	}
	return count
}

// Clone returns a deep copy, so a working copy can be mutated without
// touching the document it was read from.
func (l *Lobby) Clone() *Lobby {
	out := *l
	out.Players = clonePlayers(l.Players)
	out.Categories = cloneCategories(l.Categories)
	if l.Answerer != nil {
		answerer := *l.Answerer
		out.Answerer = &answerer
	}
	return &out
}

func clonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	for i, p := range players {
		if p.Score != nil {
			score := *p.Score
			p.Score = &score
		}
		out[i] = p
	}
	return out
}

func cloneCategories(categories []CategoryInGame) []CategoryInGame {
	if categories == nil {
		return nil
	}
	out := make([]CategoryInGame, len(categories))
	for i, cat := range categories {
		cat.Prompts = append([]PromptInGame(nil), cat.Prompts...)
		out[i] = cat
	}
	return out
}

// Validate checks the aggregate invariants.
func (l *Lobby) Validate() error {
	if l.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidLobby)
	}
	if !l.State.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidLobby, l.State)
	}
	if err := validatePlayers(l.Players); err != nil {
		return err
	}
	return validateCategories(l.Categories)
}

func validatePlayers(players []Player) error {
	if len(players) == 0 {
		return fmt.Errorf("%w: at least one player must be registered", ErrInvalidLobby)
	}
	for _, p := range players {
		if !p.Role.Valid() {
			return fmt.Errorf("%w: player %d has unknown role %q", ErrInvalidLobby, p.UserID, p.Role)
		}
	}

	leads := lo.CountBy(players, func(p Player) bool { return p.IsLead() })
	switch {
	case leads == 0:
		return fmt.Errorf("%w: at least one player must be lead", ErrInvalidLobby)
	case leads > 1:
		return fmt.Errorf("%w: only one player can be lead", ErrInvalidLobby)
	}

	if lo.CountBy(players, func(p Player) bool { return p.Selected }) > 1 {
		return fmt.Errorf("%w: no more than one player can be selected", ErrInvalidLobby)
	}

	ids := lo.UniqBy(players, func(p Player) int { return p.UserID })
	if len(ids) != len(players) {
		return fmt.Errorf("%w: player user ids must be unique", ErrInvalidLobby)
	}
	return nil
}

func validateCategories(categories []CategoryInGame) error {
	if len(categories) == 0 {
		return nil
	}

	catIDs := lo.UniqBy(categories, func(c CategoryInGame) int { return c.ID })
	if len(catIDs) != len(categories) {
		return fmt.Errorf("%w: categories must be unique", ErrInvalidLobby)
	}

	numPrompts := len(categories[0].Prompts)
	seen := make(map[int]struct{})
	selected := 0
	for _, cat := range categories {
		if len(cat.Prompts) != numPrompts {
			return fmt.Errorf("%w: all categories must have the same number of prompts", ErrInvalidLobby)
		}
		for _, p := range cat.Prompts {
			if _, dup := seen[p.ID]; dup {
				return fmt.Errorf("%w: prompt %d appears more than once", ErrInvalidLobby, p.ID)
			}
			seen[p.ID] = struct{}{}
			if p.Selected {
				selected++
			}
		}
	}
	if selected > 1 {
		return fmt.Errorf("%w: no more than one prompt can be selected", ErrInvalidLobby)
	}
	return nil
}
