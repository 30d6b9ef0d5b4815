// internal/catalog/catalog.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/natuspati/jeopardy/internal/auth"
	"github.com/natuspati/jeopardy/internal/models"
	"github.com/samber/lo"
)

var ErrPresetNotFound = errors.New("preset not found")

// Preset is a named board of categories used to seed new lobbies.
type Preset struct {
	ID         int                     `json:"id"`
	Name       string                  `json:"name"`
	Categories []models.CategoryInGame `json:"categories"`
}

// Catalog is a read-only source of presets.
type Catalog interface {
	Preset(ctx context.Context, id int) (*Preset, error)
}

// NewLobby seeds a lobby in the create state with lead as its only player and
// a copy of the preset's board with every prompt available.
func NewLobby(p *Preset, lead auth.Identity) (*models.Lobby, error) {
	categories := lo.Map(p.Categories, func(c models.CategoryInGame, _ int) models.CategoryInGame {
		c.Prompts = lo.Map(c.Prompts, func(pr models.PromptInGame, _ int) models.PromptInGame {
			pr.Available = true
			pr.Selected = false
			return pr
		})
		return c
	})

	lobby := &models.Lobby{
		ID:    uuid.New(),
		State: models.StateCreate,
		Players: []models.Player{
			{UserID: lead.UserID, Username: lead.Username, Role: models.RoleLead},
		},
		Categories: categories,
	}
	if err := lobby.Validate(); err != nil {
		return nil, fmt.Errorf("preset %d cannot seed a lobby: %w", p.ID, err)
	}
	return lobby, nil
}
