package question

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource is an in-memory question source used in tests and in
// standalone mode when no database is configured.
type MemorySource struct {
	mu        sync.RWMutex
	questions map[string]*Question
}

// NewMemorySource creates a source preloaded with the given questions.
func NewMemorySource(questions ...Question) *MemorySource {
	s := &MemorySource{questions: make(map[string]*Question, len(questions))}
	for i := range questions {
		q := questions[i]
		s.questions[q.ID] = &q
	}
	return s
}

// Add registers or replaces a question.
func (s *MemorySource) Add(q Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = &q
}

// GetQuestionByID fetches one question by id.
func (s *MemorySource) GetQuestionByID(ctx context.Context, id string) (*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	cp := *q
	return &cp, nil
}
