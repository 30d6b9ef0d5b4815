package models

// Player is a lobby member. UserID comes from the identity provider and is
// stable across reconnects; Username is for display only.
type Player struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Score    *int   `json:"score"`

	// Selected marks whose turn it is. At most one player in a lobby has it set.
	Selected bool `json:"selected"`
}

// IsLead reports whether the player has the lead role.
func (p Player) IsLead() bool {
	return p.Role == RoleLead
}

// AddScore adds delta to the player's score, initializing a nil score to zero first.
func (p *Player) AddScore(delta int) {
	score := delta
	if p.Score != nil {
		score += *p.Score
	}
	p.Score = &score
}
