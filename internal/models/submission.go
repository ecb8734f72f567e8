package models

import (
	"time"
)

// SubmissionKey is the composite identity of an answer/vote event.
// Exactly one submission per key is ever accepted.
type SubmissionKey struct {
	SessionID     string
	ParticipantID string
	QuestionID    string
}

// Submission is one accepted answer or vote. For FFF the payload is an
// ordered permutation of four option indices; for ATA it is a single
// option letter. SubmittedAt is server-assigned; client timestamps are
// never trusted for ordering.
type Submission struct {
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	QuestionID    string    `json:"question_id"`
	Ordering      []int     `json:"ordering,omitempty"`
	OptionLetter  string    `json:"option_letter,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`

	// Seq is the ledger acceptance order, the final FFF tie-break.
	Seq int64 `json:"seq"`
}

// Key returns the submission's composite identity.
func (s *Submission) Key() SubmissionKey {
	return SubmissionKey{
		SessionID:     s.SessionID,
		ParticipantID: s.ParticipantID,
		QuestionID:    s.QuestionID,
	}
}
