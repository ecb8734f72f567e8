package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/events"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/question"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/session"
	"github.com/rs/zerolog/log"
)

// Handler exposes the session core over HTTP JSON plus the WebSocket
// event feed.
type Handler struct {
	coordinator       *session.Coordinator
	connectionManager *ConnectionManager
}

// NewHandler creates the gateway HTTP handler.
func NewHandler(coordinator *session.Coordinator, cm *ConnectionManager) *Handler {
	return &Handler{coordinator: coordinator, connectionManager: cm}
}

// RegisterRoutes registers all gateway routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions/join", h.handleJoin)
	mux.HandleFunc("/api/rounds/start", h.handleStartRound)
	mux.HandleFunc("/api/rounds/end", h.handleEndRound)
	mux.HandleFunc("/api/rounds/submit", h.handleSubmit)
	mux.HandleFunc("/api/rounds/results", h.handleResults)
	mux.HandleFunc("/api/sessions/resync", h.handleResync)
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/ws/stats", h.handleConnectionStats)
}

type joinRequest struct {
	SessionID     string `json:"session_id"`
	DisplayName   string `json:"display_name"`
	ParticipantID string `json:"participant_id,omitempty"`
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	// The transport connection is bound later, when the client opens
	// its WebSocket.
	result, err := h.coordinator.JoinSession(r.Context(), req.SessionID, req.DisplayName, "", req.ParticipantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type startRoundRequest struct {
	SessionID    string   `json:"session_id"`
	Mode         string   `json:"mode"`
	QuestionID   string   `json:"question_id"`
	QuestionText string   `json:"question_text,omitempty"`
	Options      []string `json:"options,omitempty"`
	TimeLimitMs  int64    `json:"time_limit_ms,omitempty"`
}

func (h *Handler) handleStartRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.coordinator.StartRound(r.Context(), session.StartRoundRequest{
		SessionID:    req.SessionID,
		Mode:         models.GameMode(req.Mode),
		QuestionID:   req.QuestionID,
		QuestionText: req.QuestionText,
		Options:      req.Options,
		TimeLimitMs:  req.TimeLimitMs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"started": true})
}

type endRoundRequest struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
}

func (h *Handler) handleEndRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req endRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.coordinator.EndRound(r.Context(), req.SessionID, req.QuestionID)
	if errors.Is(err, models.ErrNoActiveRound) {
		// Expected when the timer and the host race; silent no-op.
		writeJSON(w, http.StatusOK, map[string]bool{"ended": false})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ended": true})
}

type submitRequest struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	QuestionID    string `json:"question_id"`
	Ordering      []int  `json:"ordering,omitempty"`
	Option        string `json:"option,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.coordinator.Submit(r.Context(), session.SubmitRequest{
		SessionID:     req.SessionID,
		ParticipantID: req.ParticipantID,
		QuestionID:    req.QuestionID,
		Ordering:      req.Ordering,
		OptionLetter:  req.Option,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	questionID := r.URL.Query().Get("question_id")
	if sessionID == "" || questionID == "" {
		http.Error(w, "session_id and question_id are required", http.StatusBadRequest)
		return
	}

	results, err := h.coordinator.GetResults(r.Context(), sessionID, questionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleResync(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	participantID := r.URL.Query().Get("participant_id")
	if sessionID == "" || participantID == "" {
		http.Error(w, "session_id and participant_id are required", http.StatusBadRequest)
		return
	}

	payload, err := h.coordinator.BuildResyncPayload(sessionID, participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleWebSocket binds a participant to the session event feed. The
// new connection id is registered with the participant registry and a
// resync payload is pushed down the fresh socket so a reconnecting
// client can render mid-round state immediately.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	participantID := r.URL.Query().Get("participant_id")
	if sessionID == "" || participantID == "" {
		http.Error(w, "session_id and participant_id are required", http.StatusBadRequest)
		return
	}

	connID, err := h.connectionManager.UpgradeConnection(w, r, sessionID, participantID)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	if _, err := h.coordinator.JoinSession(r.Context(), sessionID, "", connID, participantID); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("participant_id", participantID).
			Msg("websocket bind: participant unknown")
	}

	payload, err := h.coordinator.BuildResyncPayload(sessionID, participantID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("participant_id", participantID).
			Msg("failed to build resync payload")
		return
	}
	if ev, err := events.New(sessionID, events.TypeResync, time.Now(), payload); err == nil {
		h.connectionManager.PublishToParticipant(sessionID, participantID, ev)
	}
}

func (h *Handler) handleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNameInvalid),
		errors.Is(err, models.ErrNameTaken),
		errors.Is(err, models.ErrInvalidOption):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrParticipantNotFound),
		errors.Is(err, question.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrRoundAlreadyActive),
		errors.Is(err, models.ErrNoActiveRound),
		errors.Is(err, models.ErrAlreadySubmitted),
		errors.Is(err, models.ErrTimeExpired),
		errors.Is(err, models.ErrLateJoinerIneligible),
		errors.Is(err, models.ErrLifelineAlreadyUsed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
