package models

import (
	"time"
)

// Participant is one connected identity within a session. The ID is
// minted on first join and reused across reconnects; a disconnect never
// deletes the participant, it only clears the connection binding.
type Participant struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	DisplayName  string    `json:"display_name"`
	ConnectionID string    `json:"connection_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	LastSeenAt   time.Time `json:"last_seen_at"`
	HasUsedATA   bool      `json:"has_used_ata"`
	JoinedAt     time.Time `json:"joined_at"`
}

// PresentAtRoundStart reports whether this participant was already in
// the session when the round began. Late joiners observe but do not act.
func (p *Participant) PresentAtRoundStart(roundStart time.Time) bool {
	return !p.LastSeenAt.After(roundStart)
}
