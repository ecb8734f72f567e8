package question

import (
	"context"
)

// Question is the content the coordinator needs to run a round. The
// CorrectOrder permutation scores FFF rounds; it is never broadcast
// to clients.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectOrder []int    `json:"correct_order"`
}

// Source is the read-only question lookup the core consumes. The
// backing store is external to the session core.
type Source interface {
	GetQuestionByID(ctx context.Context, id string) (*Question, error)
}
