package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Repository is a Postgres-backed question source. Options and the
// correct ordering are stored as JSONB columns.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Postgres question repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const getQuestionByID = `
SELECT id, text, options, correct_order
FROM questions
WHERE id = $1
`

// GetQuestionByID fetches one question by id.
func (r *Repository) GetQuestionByID(ctx context.Context, id string) (*Question, error) {
	var (
		q           Question
		optionsRaw  []byte
		orderingRaw []byte
	)
	err := r.db.QueryRowContext(ctx, getQuestionByID, id).Scan(&q.ID, &q.Text, &optionsRaw, &orderingRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question options: %w", err)
	}
	if err := json.Unmarshal(orderingRaw, &q.CorrectOrder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal correct order: %w", err)
	}
	return &q, nil
}
