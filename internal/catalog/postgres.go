// internal/catalog/postgres.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/natuspati/jeopardy/internal/models"
)

// PostgresCatalog reads presets from the relational catalog tables.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

const presetQ = `SELECT name FROM preset WHERE id = $1`

const boardQ = `
	SELECT c.id, c.name, p.id, p.question, p.question_type, p.answer, p.answer_type, p.default_priority
	FROM preset_category pc
	JOIN category c ON c.id = pc.category_id
	JOIN prompt p ON p.category_id = c.id
	WHERE pc.preset_id = $1
	ORDER BY c.id, p.default_priority, p.id
`

func (c *PostgresCatalog) Preset(ctx context.Context, id int) (*Preset, error) {
	preset := &Preset{ID: id}
	if err := c.pool.QueryRow(ctx, presetQ, id).Scan(&preset.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("preset %d: %w", id, ErrPresetNotFound)
		}
		return nil, fmt.Errorf("failed to load preset %d: %w", id, err)
	}

	rows, err := c.pool.Query(ctx, boardQ, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load board of preset %d: %w", id, err)
	}

	var (
		catID, promptID, priority int
		catName, question, answer string
		questionType, answerType  int16
	)
	_, err = pgx.ForEachRow(rows,
		[]any{&catID, &catName, &promptID, &question, &questionType, &answer, &answerType, &priority},
		func() error {
			qt, err := models.MediaTypeFromCode(questionType)
			if err != nil {
				return fmt.Errorf("prompt %d: %w", promptID, err)
			}
			at, err := models.MediaTypeFromCode(answerType)
			if err != nil {
				return fmt.Errorf("prompt %d: %w", promptID, err)
			}
			n := len(preset.Categories)
			if n == 0 || preset.Categories[n-1].ID != catID {
				preset.Categories = append(preset.Categories, models.CategoryInGame{ID: catID, Name: catName})
				n++
			}
			cat := &preset.Categories[n-1]
			cat.Prompts = append(cat.Prompts, models.PromptInGame{
				ID:              promptID,
				Question:        question,
				QuestionType:    qt,
				Answer:          answer,
				AnswerType:      at,
				DefaultPriority: priority,
			})
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to read board of preset %d: %w", id, err)
	}
	return preset, nil
}
