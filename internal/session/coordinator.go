package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/events"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/ledger"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/question"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/ranking"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/registry"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/roundtimer"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/tally"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Coordinator orchestrates round lifecycle per session: it owns the
// current round state, arms the round timer, gates submissions, and
// produces resync payloads for late joiners and reconnectors. All
// per-session state lives in the coordinator instance; it is
// constructed once per process and injected into request handlers.
type Coordinator struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	registry    *registry.Registry
	ledger      *ledger.Ledger
	questions   question.Source
	broadcaster Broadcaster
	sink        ResultSink
	clock       clockwork.Clock
	cfg         Config
}

// sessionState guards one session's round fields. Submissions hold the
// read lock across their check-and-record so the round cannot be ended
// underneath them; EndRound takes the write lock, clears the round and
// snapshots results before anyone else can record.
type sessionState struct {
	mu           sync.RWMutex
	session      models.Session
	timer        *roundtimer.Timer
	correctOrder []int
	results      map[string]*models.RoundResults // final results by question id
}

// NewCoordinator creates a session coordinator. Nil broadcaster/sink
// default to no-op implementations.
func NewCoordinator(reg *registry.Registry, led *ledger.Ledger, questions question.Source, broadcaster Broadcaster, sink ResultSink, clock clockwork.Clock, cfg Config) *Coordinator {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if sink == nil {
		sink = NoopSink{}
	}
	return &Coordinator{
		sessions:    make(map[string]*sessionState),
		registry:    reg,
		ledger:      led,
		questions:   questions,
		broadcaster: broadcaster,
		sink:        sink,
		clock:       clock,
		cfg:         cfg,
	}
}

// Registry exposes the participant registry for transport-level hooks
// (disconnect marking).
func (c *Coordinator) Registry() *registry.Registry {
	return c.registry
}

func (c *Coordinator) getOrCreateSession(sessionID string) *sessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	ss, ok := c.sessions[sessionID]
	if !ok {
		ss = &sessionState{
			session: models.Session{
				ID:        sessionID,
				Mode:      models.GameModeIdle,
				CreatedAt: c.clock.Now(),
			},
			results: make(map[string]*models.RoundResults),
		}
		c.sessions[sessionID] = ss
		log.Info().Str("session_id", sessionID).Msg("session created")
	}
	return ss
}

func (c *Coordinator) getSession(sessionID string) (*sessionState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ss, ok := c.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return ss, nil
}

// JoinSession joins or reconnects a participant. The session is created
// on first join.
func (c *Coordinator) JoinSession(ctx context.Context, sessionID, displayName, connectionID, participantID string) (*JoinResult, error) {
	c.getOrCreateSession(sessionID)

	p, err := c.registry.GetOrCreate(sessionID, displayName, connectionID, participantID)
	if err != nil {
		return nil, err
	}
	reconnect := participantID != "" && p.ID == participantID

	if ev, err := events.New(sessionID, events.TypeParticipantJoined, c.clock.Now(), events.ParticipantJoinedPayload{
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		Reconnect:     reconnect,
		JoinedAt:      p.LastSeenAt,
	}); err == nil {
		c.broadcaster.Publish(sessionID, ev)
	}

	return &JoinResult{
		Participant: p,
		Reconnect:   reconnect,
		CanVote:     !p.HasUsedATA,
	}, nil
}

// StartRound begins a timed round. The question is resolved before any
// round state is committed, so a lookup failure never arms the timer.
func (c *Coordinator) StartRound(ctx context.Context, req StartRoundRequest) error {
	if req.Mode != models.GameModeFFF && req.Mode != models.GameModeATA {
		return fmt.Errorf("unsupported mode %q: %w", req.Mode, models.ErrInvalidOption)
	}

	ss, err := c.getSession(req.SessionID)
	if err != nil {
		return err
	}

	q, err := c.questions.GetQuestionByID(ctx, req.QuestionID)
	if err != nil {
		return fmt.Errorf("failed to resolve question: %w", err)
	}

	text := req.QuestionText
	if text == "" {
		text = q.Text
	}
	options := req.Options
	if len(options) == 0 {
		options = q.Options
	}
	limit := time.Duration(req.TimeLimitMs) * time.Millisecond
	if limit <= 0 {
		limit = c.cfg.timeLimitFor(req.Mode)
	}

	ss.mu.Lock()
	if ss.session.CurrentRound != nil {
		ss.mu.Unlock()
		log.Warn().
			Str("session_id", req.SessionID).
			Str("question_id", req.QuestionID).
			Msg("start rejected: round already active")
		return models.ErrRoundAlreadyActive
	}

	round := &models.RoundState{
		QuestionID:   req.QuestionID,
		QuestionText: text,
		Options:      options,
		Mode:         req.Mode,
		StartTime:    c.clock.Now(),
		TimeLimitMs:  limit.Milliseconds(),
	}
	ss.session.CurrentRound = round
	ss.session.Mode = req.Mode
	ss.correctOrder = q.CorrectOrder

	timer := roundtimer.New(c.clock)
	timer.Arm(limit, func() {
		if err := c.endRound(req.SessionID, req.QuestionID, "timeout"); err != nil {
			log.Debug().
				Err(err).
				Str("session_id", req.SessionID).
				Msg("timer fire found round already ended")
		}
	})
	ss.timer = timer
	roundCopy := *round
	ss.mu.Unlock()

	log.Info().
		Str("session_id", req.SessionID).
		Str("question_id", req.QuestionID).
		Str("mode", string(req.Mode)).
		Int64("time_limit_ms", roundCopy.TimeLimitMs).
		Msg("round started")

	if ev, err := events.New(req.SessionID, events.TypeRoundStarted, c.clock.Now(), events.RoundStartedPayload{
		QuestionID:   roundCopy.QuestionID,
		QuestionText: roundCopy.QuestionText,
		Options:      roundCopy.Options,
		Mode:         roundCopy.Mode,
		StartedAt:    roundCopy.StartTime,
		TimeLimitMs:  roundCopy.TimeLimitMs,
	}); err == nil {
		c.broadcaster.Publish(req.SessionID, ev)
	}
	return nil
}

// EndRound ends the round early by host command. Racing the timer is
// expected: the loser observes ErrNoActiveRound, which callers absorb
// as a silent no-op.
func (c *Coordinator) EndRound(ctx context.Context, sessionID, questionID string) error {
	return c.endRound(sessionID, questionID, "manual")
}

func (c *Coordinator) endRound(sessionID, questionID, trigger string) error {
	ss, err := c.getSession(sessionID)
	if err != nil {
		return err
	}

	ss.mu.Lock()
	round := ss.session.CurrentRound
	if round == nil || round.QuestionID != questionID {
		ss.mu.Unlock()
		return models.ErrNoActiveRound
	}
	if ss.timer != nil {
		ss.timer.Cancel()
		ss.timer = nil
	}
	roundCopy := *round
	correct := ss.correctOrder

	// Clear round state before computing so no submission can land
	// after the final snapshot.
	ss.session.CurrentRound = nil
	ss.session.Mode = models.GameModeIdle
	ss.correctOrder = nil

	results := c.computeResults(sessionID, roundCopy, correct, true)
	ss.results[questionID] = results
	ss.mu.Unlock()

	endedAt := c.clock.Now()
	log.Info().
		Str("session_id", sessionID).
		Str("question_id", questionID).
		Str("trigger", trigger).
		Int("submissions", submissionCount(results)).
		Msg("round ended")

	if ev, err := events.New(sessionID, events.TypeRoundEnded, endedAt, events.RoundEndedPayload{
		QuestionID: questionID,
		Mode:       roundCopy.Mode,
		EndedAt:    endedAt,
		Results:    results,
	}); err == nil {
		c.broadcaster.Publish(sessionID, ev)
	}

	c.sink.Publish(models.RoundSummary{
		SessionID:        sessionID,
		QuestionID:       questionID,
		Mode:             roundCopy.Mode,
		StartedAt:        roundCopy.StartTime,
		EndedAt:          endedAt,
		ParticipantCount: c.registry.Count(sessionID),
		Results:          results,
	})
	return nil
}

// Submit handles one answer/vote attempt. Every attempt receives an
// explicit accepted/denied response; denials carry the human-readable
// reason clients display.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	ss, err := c.getSession(req.SessionID)
	if err != nil {
		return nil, err
	}
	p, err := c.registry.Get(req.SessionID, req.ParticipantID)
	if err != nil {
		return nil, err
	}

	ss.mu.RLock()
	round := ss.session.CurrentRound
	if round == nil || round.QuestionID != req.QuestionID {
		_, ended := ss.results[req.QuestionID]
		ss.mu.RUnlock()
		if ended {
			return c.deny(req, models.ErrTimeExpired), nil
		}
		return c.deny(req, models.ErrNoActiveRound), nil
	}

	now := c.clock.Now()
	// The authoritative reject boundary is wall-clock elapsed since
	// round start plus the latency grace, independent of whether the
	// timer has fired yet.
	limit := time.Duration(round.TimeLimitMs) * time.Millisecond
	if now.Sub(round.StartTime) > limit+c.cfg.Grace {
		ss.mu.RUnlock()
		return c.deny(req, models.ErrTimeExpired), nil
	}

	if !c.registry.CanAct(p, round.StartTime, false) {
		ss.mu.RUnlock()
		return c.deny(req, models.ErrLateJoinerIneligible), nil
	}

	mode := round.Mode
	if err := validatePayload(mode, req, len(round.Options)); err != nil {
		ss.mu.RUnlock()
		return c.deny(req, err), nil
	}
	if mode == models.GameModeATA && p.HasUsedATA {
		ss.mu.RUnlock()
		return c.deny(req, models.ErrLifelineAlreadyUsed), nil
	}

	outcome := c.ledger.Record(models.Submission{
		SessionID:     req.SessionID,
		ParticipantID: req.ParticipantID,
		QuestionID:    req.QuestionID,
		Ordering:      req.Ordering,
		OptionLetter:  req.OptionLetter,
	}, now)
	if outcome == ledger.Accepted && mode == models.GameModeATA {
		// Consume the lifeline while still holding the round lock: the
		// round cannot end, and no later round can start, until the
		// flag has landed.
		c.registry.MarkATAUsed(req.SessionID, req.ParticipantID)
	}
	ss.mu.RUnlock()

	if outcome == ledger.AlreadySubmitted {
		return c.deny(req, models.ErrAlreadySubmitted), nil
	}

	c.publishSubmissionEvents(req.SessionID, req.QuestionID, mode)

	return &SubmitResult{Accepted: true}, nil
}

func (c *Coordinator) deny(req SubmitRequest, cause error) *SubmitResult {
	log.Debug().
		Str("session_id", req.SessionID).
		Str("participant_id", req.ParticipantID).
		Str("question_id", req.QuestionID).
		Str("reason", cause.Error()).
		Msg("submission denied")
	return &SubmitResult{Accepted: false, Reason: models.DenialReason(cause)}
}

func (c *Coordinator) publishSubmissionEvents(sessionID, questionID string, mode models.GameMode) {
	subs := c.ledger.GetSubmissions(sessionID, questionID)
	now := c.clock.Now()

	if ev, err := events.New(sessionID, events.TypeSubmissionAccepted, now, events.SubmissionAcceptedPayload{
		QuestionID:      questionID,
		SubmissionCount: len(subs),
		ActiveCount:     len(c.registry.ListActive(sessionID)),
	}); err == nil {
		c.broadcaster.Publish(sessionID, ev)
	}

	if mode == models.GameModeATA {
		if ev, err := events.New(sessionID, events.TypeTallyUpdated, now, events.TallyUpdatedPayload{
			QuestionID: questionID,
			Tally:      tally.Compute(questionID, subs),
		}); err == nil {
			c.broadcaster.Publish(sessionID, ev)
		}
	}
}

// GetResults returns partial results while the round runs and the final
// snapshot after it ends.
func (c *Coordinator) GetResults(ctx context.Context, sessionID, questionID string) (*models.RoundResults, error) {
	ss, err := c.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if round := ss.session.CurrentRound; round != nil && round.QuestionID == questionID {
		return c.computeResults(sessionID, *round, ss.correctOrder, false), nil
	}
	if r, ok := ss.results[questionID]; ok {
		return r, nil
	}
	return nil, models.ErrNoActiveRound
}

// BuildResyncPayload reconstructs the view a (re)connecting participant
// needs to render the current round without replaying history.
func (c *Coordinator) BuildResyncPayload(sessionID, participantID string) (*ResyncPayload, error) {
	ss, err := c.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	p, err := c.registry.Get(sessionID, participantID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	round := ss.session.CurrentRound
	if round == nil {
		return &ResyncPayload{
			SessionID:  sessionID,
			Mode:       models.GameModeIdle,
			ServerTime: now,
		}, nil
	}

	alreadySubmitted := c.ledger.HasSubmitted(sessionID, participantID, round.QuestionID)
	canAct := c.registry.CanAct(p, round.StartTime, false) && !alreadySubmitted
	if round.Mode == models.GameModeATA && p.HasUsedATA {
		canAct = false
	}

	payload := &ResyncPayload{
		SessionID:   sessionID,
		Mode:        round.Mode,
		Round:       round,
		RemainingMs: round.RemainingMs(now),
		CanAct:      canAct,
		Results:     c.computeResults(sessionID, *round, ss.correctOrder, false),
		ServerTime:  now,
	}
	if !canAct {
		switch {
		case alreadySubmitted:
			payload.SpectatorReason = models.DenialReason(models.ErrAlreadySubmitted)
		case round.Mode == models.GameModeATA && p.HasUsedATA:
			payload.SpectatorReason = models.DenialReason(models.ErrLifelineAlreadyUsed)
		default:
			payload.SpectatorReason = models.DenialReason(models.ErrLateJoinerIneligible)
		}
	}
	return payload, nil
}

// computeResults snapshots the ledger and runs the mode's scoring. The
// caller holds the session lock, which keeps the snapshot consistent
// with respect to round end.
func (c *Coordinator) computeResults(sessionID string, round models.RoundState, correct []int, final bool) *models.RoundResults {
	subs := c.ledger.GetSubmissions(sessionID, round.QuestionID)

	results := &models.RoundResults{
		SessionID:  sessionID,
		QuestionID: round.QuestionID,
		Mode:       round.Mode,
		Final:      final,
		ComputedAt: c.clock.Now(),
	}
	switch round.Mode {
	case models.GameModeFFF:
		results.FFF = ranking.Compute(round.QuestionID, correct, round.StartTime, subs, c.registry.DisplayNames(sessionID))
	case models.GameModeATA:
		results.ATA = tally.Compute(round.QuestionID, subs)
	}
	return results
}

func validatePayload(mode models.GameMode, req SubmitRequest, optionCount int) error {
	switch mode {
	case models.GameModeFFF:
		if len(req.Ordering) != optionCount {
			return models.ErrInvalidOption
		}
		seen := make(map[int]bool, optionCount)
		for _, idx := range req.Ordering {
			if idx < 0 || idx >= optionCount || seen[idx] {
				return models.ErrInvalidOption
			}
			seen[idx] = true
		}
	case models.GameModeATA:
		if !tally.ValidOption(req.OptionLetter) {
			return models.ErrInvalidOption
		}
	}
	return nil
}

func submissionCount(r *models.RoundResults) int {
	switch {
	case r == nil:
		return 0
	case r.FFF != nil:
		return r.FFF.TotalSubmissions
	case r.ATA != nil:
		return r.ATA.TotalVotes
	default:
		return 0
	}
}
