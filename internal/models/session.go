package models

import (
	"time"
)

// GameMode defines which kind of round a session is running.
type GameMode string

const (
	GameModeIdle GameMode = "IDLE"
	GameModeFFF  GameMode = "FFF" // Fastest Finger First
	GameModeATA  GameMode = "ATA" // Ask The Audience
)

// RoundState is the ephemeral descriptor of the round currently in
// progress. It exists only between StartRound and EndRound.
type RoundState struct {
	QuestionID   string    `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Options      []string  `json:"options"`
	Mode         GameMode  `json:"mode"`
	StartTime    time.Time `json:"start_time"`
	TimeLimitMs  int64     `json:"time_limit_ms"`
}

// Deadline returns the instant after which the round times out,
// before any grace allowance.
func (r *RoundState) Deadline() time.Time {
	return r.StartTime.Add(time.Duration(r.TimeLimitMs) * time.Millisecond)
}

// RemainingMs returns the time left in the round at now, clamped at zero.
func (r *RoundState) RemainingMs(now time.Time) int64 {
	remaining := r.TimeLimitMs - now.Sub(r.StartTime).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Session represents one live game instance. CurrentRound is non-nil
// iff Mode != GameModeIdle.
type Session struct {
	ID           string      `json:"id"`
	Mode         GameMode    `json:"mode"`
	CurrentRound *RoundState `json:"current_round,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
