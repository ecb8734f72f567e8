package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies a session event on the wire.
type Type string

const (
	TypeRoundStarted            Type = "RoundStarted"
	TypeSubmissionAccepted      Type = "SubmissionAccepted"
	TypeTallyUpdated            Type = "TallyUpdated"
	TypeRoundEnded              Type = "RoundEnded"
	TypeParticipantJoined       Type = "ParticipantJoined"
	TypeParticipantDisconnected Type = "ParticipantDisconnected"
	TypeResync                  Type = "Resync"
)

// Event is the envelope every broadcast message is wrapped in.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps a payload in an event envelope.
func New(sessionID string, t Type, ts time.Time, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      t,
		Timestamp: ts,
		Data:      data,
	}, nil
}
