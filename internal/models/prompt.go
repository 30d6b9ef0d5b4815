// internal/models/prompt.go
package models

import "fmt"

// PointsPerPriority converts a prompt's default priority into the points it is worth.
const PointsPerPriority = 100

// MediaType describes how a question or an answer is presented.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// MediaTypeFromCode maps the catalog's smallint encoding (1..4) to a MediaType.
func MediaTypeFromCode(code int16) (MediaType, error) {
	switch code {
	case 1:
		return MediaText, nil
	case 2:
		return MediaImage, nil
	case 3:
		return MediaAudio, nil
	case 4:
		return MediaVideo, nil
	default:
		return "", fmt.Errorf("unknown media type code %d", code)
	}
}

// PromptInGame is a catalog prompt copied into a lobby, plus its per-lobby flags.
type PromptInGame struct {
	ID              int       `json:"id"`
	Question        string    `json:"question"`
	QuestionType    MediaType `json:"question_type"`
	Answer          string    `json:"answer"`
	AnswerType      MediaType `json:"answer_type"`
	DefaultPriority int       `json:"default_priority"`

	Available bool `json:"available"` // not yet played
	Selected  bool `json:"selected"`  // currently being answered
}

// Points is what a correct answer earns (and a wrong one costs).
func (p PromptInGame) Points() int {
	return p.DefaultPriority * PointsPerPriority
}

// CategoryInGame groups the prompts of one catalog category inside a lobby.
type CategoryInGame struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Prompts []PromptInGame `json:"prompts"`
}
