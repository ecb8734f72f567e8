package registry

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const maxDisplayNameLen = 32

// Registry tracks connected participants per session and preserves
// identity across reconnects. A disconnect only clears the connection
// binding; the participant record and its round eligibility survive.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionParticipants
	byConn   map[string]connRef
	clock    clockwork.Clock
}

type sessionParticipants struct {
	byID   map[string]*models.Participant
	byName map[string]*models.Participant // lowercased display name
}

type connRef struct {
	sessionID     string
	participantID string
}

// New creates a participant registry. The clock is injected so tests
// can control LastSeenAt timestamps.
func New(clock clockwork.Clock) *Registry {
	return &Registry{
		sessions: make(map[string]*sessionParticipants),
		byConn:   make(map[string]connRef),
		clock:    clock,
	}
}

// GetOrCreate joins a participant into a session. When participantID
// matches an existing participant this is the reconnection path: the
// connection binding and LastSeenAt are refreshed and the display name
// is not re-validated. Otherwise a new identity is minted after the
// display name passes validation and uniqueness checks.
func (r *Registry) GetOrCreate(sessionID, displayName, connectionID, participantID string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.sessions[sessionID]
	if sess == nil {
		sess = &sessionParticipants{
			byID:   make(map[string]*models.Participant),
			byName: make(map[string]*models.Participant),
		}
		r.sessions[sessionID] = sess
	}

	now := r.clock.Now()

	if participantID != "" {
		if p, ok := sess.byID[participantID]; ok {
			if p.ConnectionID != "" {
				delete(r.byConn, p.ConnectionID)
			}
			p.ConnectionID = connectionID
			p.IsActive = true
			p.LastSeenAt = now
			if connectionID != "" {
				r.byConn[connectionID] = connRef{sessionID: sessionID, participantID: p.ID}
			}
			log.Debug().
				Str("session_id", sessionID).
				Str("participant_id", p.ID).
				Msg("participant reconnected")
			cp := *p
			return &cp, nil
		}
		// Unknown id: treat as a fresh join so clients with stale
		// storage from another session can still get in.
	}

	name, err := sanitizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	if _, taken := sess.byName[strings.ToLower(name)]; taken {
		return nil, models.ErrNameTaken
	}

	p := &models.Participant{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		DisplayName:  name,
		ConnectionID: connectionID,
		IsActive:     true,
		LastSeenAt:   now,
		JoinedAt:     now,
	}
	sess.byID[p.ID] = p
	sess.byName[strings.ToLower(name)] = p
	if connectionID != "" {
		r.byConn[connectionID] = connRef{sessionID: sessionID, participantID: p.ID}
	}

	log.Info().
		Str("session_id", sessionID).
		Str("participant_id", p.ID).
		Str("display_name", name).
		Msg("participant joined")
	cp := *p
	return &cp, nil
}

// Get looks up a participant within a session.
func (r *Registry) Get(sessionID, participantID string) (*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess := r.sessions[sessionID]
	if sess == nil {
		return nil, models.ErrSessionNotFound
	}
	p, ok := sess.byID[participantID]
	if !ok {
		return nil, models.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

// MarkDisconnected flips the participant holding connectionID to
// inactive. Idempotent: a no-op when the connection is unknown.
func (r *Registry) MarkDisconnected(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.byConn[connectionID]
	if !ok {
		return
	}
	delete(r.byConn, connectionID)

	sess := r.sessions[ref.sessionID]
	if sess == nil {
		return
	}
	p, ok := sess.byID[ref.participantID]
	if !ok || p.ConnectionID != connectionID {
		return
	}
	p.ConnectionID = ""
	p.IsActive = false

	log.Info().
		Str("session_id", ref.sessionID).
		Str("participant_id", p.ID).
		Msg("participant disconnected")
}

// ListActive returns the participants currently connected to a session.
func (r *Registry) ListActive(sessionID string) []*models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess := r.sessions[sessionID]
	if sess == nil {
		return nil
	}
	out := make([]*models.Participant, 0, len(sess.byID))
	for _, p := range sess.byID {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// Count returns how many participants a session tracks, connected or not.
func (r *Registry) Count(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess := r.sessions[sessionID]
	if sess == nil {
		return 0
	}
	return len(sess.byID)
}

// DisplayNames returns participantID -> display name for a session.
func (r *Registry) DisplayNames(sessionID string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess := r.sessions[sessionID]
	if sess == nil {
		return nil
	}
	out := make(map[string]string, len(sess.byID))
	for id, p := range sess.byID {
		out[id] = p.DisplayName
	}
	return out
}

// CanAct is the anti-cheat gate consulted before every submission and
// for resync decisions. A participant may act when it was present at
// round start; once the round has ended everyone may "act" in the
// catch-up sense of receiving final state.
func (r *Registry) CanAct(p *models.Participant, roundStart time.Time, roundEnded bool) bool {
	if roundEnded {
		return true
	}
	return p.PresentAtRoundStart(roundStart)
}

// MarkATAUsed consumes the participant's session-scoped audience
// lifeline. Returns false if it was already consumed.
func (r *Registry) MarkATAUsed(sessionID, participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.sessions[sessionID]
	if sess == nil {
		return false
	}
	p, ok := sess.byID[participantID]
	if !ok || p.HasUsedATA {
		return false
	}
	p.HasUsedATA = true
	return true
}

func sanitizeDisplayName(name string) (string, error) {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	clean := strings.TrimSpace(b.String())
	if clean == "" || len([]rune(clean)) > maxDisplayNameLen {
		return "", models.ErrNameInvalid
	}
	return clean, nil
}
