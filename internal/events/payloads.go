package events

import (
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
)

// Event payload types shared between the session coordinator and the
// gateway fan-out.

// RoundStartedPayload is the payload for a RoundStarted event.
type RoundStartedPayload struct {
	QuestionID   string          `json:"question_id"`
	QuestionText string          `json:"question_text"`
	Options      []string        `json:"options"`
	Mode         models.GameMode `json:"mode"`
	StartedAt    time.Time       `json:"started_at"`
	TimeLimitMs  int64           `json:"time_limit_ms"`
}

// SubmissionAcceptedPayload carries aggregate submission counts only,
// never per-payload answer detail.
type SubmissionAcceptedPayload struct {
	QuestionID      string `json:"question_id"`
	SubmissionCount int    `json:"submission_count"`
	ActiveCount     int    `json:"active_count"`
}

// TallyUpdatedPayload is the live ATA distribution after each vote.
type TallyUpdatedPayload struct {
	QuestionID string            `json:"question_id"`
	Tally      *models.ATAResult `json:"tally"`
}

// RoundEndedPayload is the payload for a RoundEnded event.
type RoundEndedPayload struct {
	QuestionID string               `json:"question_id"`
	Mode       models.GameMode      `json:"mode"`
	EndedAt    time.Time            `json:"ended_at"`
	Results    *models.RoundResults `json:"results"`
}

// ParticipantJoinedPayload is the payload for a ParticipantJoined event.
type ParticipantJoinedPayload struct {
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Reconnect     bool      `json:"reconnect"`
	JoinedAt      time.Time `json:"joined_at"`
}

// ParticipantDisconnectedPayload is the payload for a
// ParticipantDisconnected event. The gateway emits it from the
// transport layer, which only knows the participant id.
type ParticipantDisconnectedPayload struct {
	ParticipantID string `json:"participant_id"`
}
