package ledger

import (
	"sync"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
	"github.com/rs/zerolog/log"
)

// RecordOutcome reports whether a Record call won the check-and-insert.
type RecordOutcome int

const (
	Accepted RecordOutcome = iota
	AlreadySubmitted
)

// Ledger is the append-only, idempotent store of answer/vote
// submissions. Record is an atomic check-and-insert: under concurrent
// calls for the same (session, participant, question) key exactly one
// caller wins and the rest observe AlreadySubmitted. Accepted
// submissions are never overwritten or removed.
type Ledger struct {
	mu      sync.Mutex
	entries map[models.SubmissionKey]*models.Submission
	// per (session, question) acceptance order, the FFF tie-break
	byQuestion map[questionKey][]*models.Submission
	seq        int64
}

type questionKey struct {
	sessionID  string
	questionID string
}

// New creates an empty submission ledger.
func New() *Ledger {
	return &Ledger{
		entries:    make(map[models.SubmissionKey]*models.Submission),
		byQuestion: make(map[questionKey][]*models.Submission),
	}
}

// Record atomically checks-and-inserts a submission. The submittedAt
// timestamp must be server-assigned by the caller.
func (l *Ledger) Record(sub models.Submission, submittedAt time.Time) RecordOutcome {
	key := sub.Key()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[key]; exists {
		return AlreadySubmitted
	}

	l.seq++
	sub.SubmittedAt = submittedAt
	sub.Seq = l.seq

	stored := sub
	l.entries[key] = &stored
	qk := questionKey{sessionID: sub.SessionID, questionID: sub.QuestionID}
	l.byQuestion[qk] = append(l.byQuestion[qk], &stored)

	log.Debug().
		Str("session_id", sub.SessionID).
		Str("participant_id", sub.ParticipantID).
		Str("question_id", sub.QuestionID).
		Int64("seq", l.seq).
		Msg("submission recorded")
	return Accepted
}

// HasSubmitted reports whether the key already holds an accepted
// submission.
func (l *Ledger) HasSubmitted(sessionID, participantID, questionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.entries[models.SubmissionKey{
		SessionID:     sessionID,
		ParticipantID: participantID,
		QuestionID:    questionID,
	}]
	return ok
}

// GetSubmissions returns a snapshot of all accepted submissions for a
// question in ledger acceptance order.
func (l *Ledger) GetSubmissions(sessionID, questionID string) []models.Submission {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := l.byQuestion[questionKey{sessionID: sessionID, questionID: questionID}]
	out := make([]models.Submission, len(subs))
	for i, s := range subs {
		out[i] = *s
	}
	return out
}
