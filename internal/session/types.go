package session

import (
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/events"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
)

// Broadcaster is the presentation fan-out capability. Delivery is best
// effort: the coordinator never assumes a publish reached anyone, and a
// failed publish never rolls back accepted submissions or results.
type Broadcaster interface {
	Publish(sessionID string, event *events.Event)
}

// NoopBroadcaster drops every event. Used when no transport is wired,
// e.g. in tests.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Publish(string, *events.Event) {}

// ResultSink receives round-end summaries for external persistence.
// Implementations must not block round completion.
type ResultSink interface {
	Publish(summary models.RoundSummary)
}

// NoopSink drops every summary.
type NoopSink struct{}

func (NoopSink) Publish(models.RoundSummary) {}

// Config holds the round-duration and grace inputs. The grace period
// widens the submission acceptance boundary past the nominal time
// limit to absorb client network latency; the timer itself still fires
// at the nominal limit.
type Config struct {
	FFFTimeLimit time.Duration
	ATATimeLimit time.Duration
	Grace        time.Duration
}

// DefaultConfig mirrors the observed production values.
func DefaultConfig() Config {
	return Config{
		FFFTimeLimit: 20 * time.Second,
		ATATimeLimit: 60 * time.Second,
		Grace:        500 * time.Millisecond,
	}
}

func (c Config) timeLimitFor(mode models.GameMode) time.Duration {
	if mode == models.GameModeATA {
		return c.ATATimeLimit
	}
	return c.FFFTimeLimit
}

// StartRoundRequest carries the host's round-start command. Text and
// Options override the question source's content when set; the correct
// ordering always comes from the source.
type StartRoundRequest struct {
	SessionID    string
	Mode         models.GameMode
	QuestionID   string
	QuestionText string
	Options      []string
	TimeLimitMs  int64
}

// SubmitRequest is one answer or vote attempt.
type SubmitRequest struct {
	SessionID     string
	ParticipantID string
	QuestionID    string
	Ordering      []int  // FFF
	OptionLetter  string // ATA
}

// SubmitResult is the explicit response every submission attempt gets.
type SubmitResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// JoinResult is what JoinSession returns to the client.
type JoinResult struct {
	Participant *models.Participant `json:"participant"`
	Reconnect   bool                `json:"reconnect"`
	CanVote     bool                `json:"can_vote"`
}

// ResyncPayload reconstructs a client's view of in-progress round state
// after a reconnect, without replaying event history.
type ResyncPayload struct {
	SessionID       string               `json:"session_id"`
	Mode            models.GameMode      `json:"mode"`
	Round           *models.RoundState   `json:"round,omitempty"`
	RemainingMs     int64                `json:"remaining_ms"`
	CanAct          bool                 `json:"can_act"`
	SpectatorReason string               `json:"spectator_reason,omitempty"`
	Results         *models.RoundResults `json:"results,omitempty"`
	ServerTime      time.Time            `json:"server_time"`
}
