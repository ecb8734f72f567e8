package models

import (
	"time"
)

// RankingEntry is one row of an FFF leaderboard.
type RankingEntry struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Correct       bool   `json:"correct"`
	ElapsedMs     int64  `json:"elapsed_ms"`
}

// FFFResult is the computed outcome of a Fastest Finger First round.
// Winner is nil when nobody answered correctly.
type FFFResult struct {
	QuestionID       string         `json:"question_id"`
	Entries          []RankingEntry `json:"entries"`
	Winner           *RankingEntry  `json:"winner,omitempty"`
	TotalSubmissions int            `json:"total_submissions"`
}

// OptionCount is the tally for a single ATA option.
type OptionCount struct {
	Option  string  `json:"option"`
	Votes   int     `json:"votes"`
	Percent float64 `json:"percent"`
}

// ATAResult is the vote distribution of an Ask The Audience round.
// With zero votes every percentage is zero.
type ATAResult struct {
	QuestionID string        `json:"question_id"`
	Counts     []OptionCount `json:"counts"`
	TotalVotes int           `json:"total_votes"`
}

// RoundResults is what GetResults returns: exactly one of FFF/ATA is
// set depending on the round mode. Final is false while the round is
// still accepting submissions.
type RoundResults struct {
	SessionID  string     `json:"session_id"`
	QuestionID string     `json:"question_id"`
	Mode       GameMode   `json:"mode"`
	Final      bool       `json:"final"`
	FFF        *FFFResult `json:"fff,omitempty"`
	ATA        *ATAResult `json:"ata,omitempty"`
	ComputedAt time.Time  `json:"computed_at"`
}

// RoundSummary is the fire-and-forget record emitted to the result sink
// after a round ends.
type RoundSummary struct {
	SessionID        string        `json:"session_id"`
	QuestionID       string        `json:"question_id"`
	Mode             GameMode      `json:"mode"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          time.Time     `json:"ended_at"`
	ParticipantCount int           `json:"participant_count"`
	Results          *RoundResults `json:"results"`
}
