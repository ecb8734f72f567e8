package resultsink

import (
	"context"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
	"github.com/rs/zerolog/log"
)

// Publisher delivers one round summary to the backing transport.
type Publisher interface {
	Publish(ctx context.Context, summary models.RoundSummary) error
}

// Async fronts a Publisher with a buffered channel and a worker
// goroutine so a slow or unavailable sink never blocks round
// completion. It implements the coordinator's ResultSink capability.
type Async struct {
	ch      chan models.RoundSummary
	pub     Publisher
	timeout time.Duration
}

// NewAsync creates an async sink with the given queue depth.
func NewAsync(pub Publisher, buffer int) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	return &Async{
		ch:      make(chan models.RoundSummary, buffer),
		pub:     pub,
		timeout: 5 * time.Second,
	}
}

// Publish queues a summary. Fire-and-forget: when the queue is full the
// summary is dropped with a warning rather than blocking the caller.
func (a *Async) Publish(summary models.RoundSummary) {
	select {
	case a.ch <- summary:
	default:
		log.Warn().
			Str("session_id", summary.SessionID).
			Str("question_id", summary.QuestionID).
			Msg("result sink queue full, dropping summary")
	}
}

// Run drains the queue until ctx is cancelled. Publish failures are
// logged and never retried into the round lifecycle.
func (a *Async) Run(ctx context.Context) {
	log.Info().Msg("result sink worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("result sink worker shutting down")
			return
		case summary := <-a.ch:
			pubCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
			if err := a.pub.Publish(pubCtx, summary); err != nil {
				log.Error().
					Err(err).
					Str("session_id", summary.SessionID).
					Str("question_id", summary.QuestionID).
					Msg("failed to publish round summary")
			}
			cancel()
		}
	}
}

// LogPublisher is an in-process publisher for development and tests.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, summary models.RoundSummary) error {
	log.Info().
		Str("session_id", summary.SessionID).
		Str("question_id", summary.QuestionID).
		Str("mode", string(summary.Mode)).
		Int("participants", summary.ParticipantCount).
		Msg("round summary")
	return nil
}
