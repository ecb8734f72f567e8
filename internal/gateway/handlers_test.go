package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/ledger"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/question"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/registry"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/session"
	"github.com/jonboulle/clockwork"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	clock := clockwork.NewRealClock()
	questions := question.NewMemorySource(question.Question{
		ID:           "q1",
		Text:         "Put these in order",
		Options:      []string{"W", "X", "Y", "Z"},
		CorrectOrder: []int{2, 0, 3, 1},
	})
	reg := registry.New(clock)
	cm := NewConnectionManager(DefaultConnectionConfig(), reg.MarkDisconnected)
	coord := session.NewCoordinator(reg, ledger.New(), questions, cm, nil, clock, session.Config{
		FFFTimeLimit: time.Minute,
		ATATimeLimit: time.Minute,
		Grace:        500 * time.Millisecond,
	})
	handler := NewHandler(coord, cm)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestJoinStartSubmitResultsFlow(t *testing.T) {
	srv := newTestServer(t)

	var join struct {
		Participant struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"participant"`
		Reconnect bool `json:"reconnect"`
		CanVote   bool `json:"can_vote"`
	}
	status := postJSON(t, srv.URL+"/api/sessions/join", map[string]string{
		"session_id":   "s1",
		"display_name": "Alice",
	}, &join)
	if status != http.StatusOK {
		t.Fatalf("join: expected 200, got %d", status)
	}
	if join.Participant.ID == "" || join.Participant.DisplayName != "Alice" {
		t.Fatalf("unexpected join response: %+v", join)
	}
	if join.Reconnect || !join.CanVote {
		t.Fatalf("unexpected join flags: %+v", join)
	}

	status = postJSON(t, srv.URL+"/api/rounds/start", map[string]any{
		"session_id":  "s1",
		"mode":        "FFF",
		"question_id": "q1",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", status)
	}

	var submit struct {
		Accepted bool   `json:"accepted"`
		Reason   string `json:"reason"`
	}
	status = postJSON(t, srv.URL+"/api/rounds/submit", map[string]any{
		"session_id":     "s1",
		"participant_id": join.Participant.ID,
		"question_id":    "q1",
		"ordering":       []int{2, 0, 3, 1},
	}, &submit)
	if status != http.StatusOK || !submit.Accepted {
		t.Fatalf("submit: expected accept, got status=%d %+v", status, submit)
	}

	// Duplicate is a 200 with an explicit denial, not an HTTP error.
	status = postJSON(t, srv.URL+"/api/rounds/submit", map[string]any{
		"session_id":     "s1",
		"participant_id": join.Participant.ID,
		"question_id":    "q1",
		"ordering":       []int{2, 0, 3, 1},
	}, &submit)
	if status != http.StatusOK || submit.Accepted || submit.Reason != "already answered" {
		t.Fatalf("duplicate submit: expected denial, got status=%d %+v", status, submit)
	}

	var ended struct {
		Ended bool `json:"ended"`
	}
	status = postJSON(t, srv.URL+"/api/rounds/end", map[string]string{
		"session_id":  "s1",
		"question_id": "q1",
	}, &ended)
	if status != http.StatusOK || !ended.Ended {
		t.Fatalf("end: expected ended=true, got status=%d %+v", status, ended)
	}

	// Second end is the silent no-op path.
	status = postJSON(t, srv.URL+"/api/rounds/end", map[string]string{
		"session_id":  "s1",
		"question_id": "q1",
	}, &ended)
	if status != http.StatusOK || ended.Ended {
		t.Fatalf("repeat end: expected ended=false no-op, got status=%d %+v", status, ended)
	}

	var results struct {
		Final bool `json:"final"`
		FFF   *struct {
			TotalSubmissions int `json:"total_submissions"`
			Winner           *struct {
				ParticipantID string `json:"participant_id"`
			} `json:"winner"`
		} `json:"fff"`
	}
	url := fmt.Sprintf("%s/api/rounds/results?session_id=s1&question_id=q1", srv.URL)
	if status := getJSON(t, url, &results); status != http.StatusOK {
		t.Fatalf("results: expected 200, got %d", status)
	}
	if !results.Final || results.FFF == nil || results.FFF.TotalSubmissions != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results.FFF.Winner == nil || results.FFF.Winner.ParticipantID != join.Participant.ID {
		t.Fatalf("expected Alice to win, got %+v", results.FFF)
	}
}

func TestJoinValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	var errResp struct {
		Error string `json:"error"`
	}
	status := postJSON(t, srv.URL+"/api/sessions/join", map[string]string{
		"session_id":   "s1",
		"display_name": "   ",
	}, &errResp)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", status)
	}

	postJSON(t, srv.URL+"/api/sessions/join", map[string]string{
		"session_id": "s1", "display_name": "Alice",
	}, nil)
	status = postJSON(t, srv.URL+"/api/sessions/join", map[string]string{
		"session_id": "s1", "display_name": "alice",
	}, &errResp)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for taken name, got %d", status)
	}
}

func TestStartRoundConflictAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.URL+"/api/sessions/join", map[string]string{
		"session_id": "s1", "display_name": "Alice",
	}, nil)

	status := postJSON(t, srv.URL+"/api/rounds/start", map[string]any{
		"session_id": "s1", "mode": "FFF", "question_id": "missing",
	}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", status)
	}

	postJSON(t, srv.URL+"/api/rounds/start", map[string]any{
		"session_id": "s1", "mode": "FFF", "question_id": "q1",
	}, nil)
	status = postJSON(t, srv.URL+"/api/rounds/start", map[string]any{
		"session_id": "s1", "mode": "FFF", "question_id": "q1",
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for double start, got %d", status)
	}
}

func TestResyncEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var join struct {
		Participant struct {
			ID string `json:"id"`
		} `json:"participant"`
	}
	postJSON(t, srv.URL+"/api/sessions/join", map[string]string{
		"session_id": "s1", "display_name": "Alice",
	}, &join)
	postJSON(t, srv.URL+"/api/rounds/start", map[string]any{
		"session_id": "s1", "mode": "FFF", "question_id": "q1",
	}, nil)

	var payload struct {
		Mode        string `json:"mode"`
		RemainingMs int64  `json:"remaining_ms"`
		CanAct      bool   `json:"can_act"`
	}
	url := fmt.Sprintf("%s/api/sessions/resync?session_id=s1&participant_id=%s", srv.URL, join.Participant.ID)
	if status := getJSON(t, url, &payload); status != http.StatusOK {
		t.Fatalf("resync: expected 200, got %d", status)
	}
	if payload.Mode != "FFF" || !payload.CanAct {
		t.Fatalf("unexpected resync payload: %+v", payload)
	}
	if payload.RemainingMs <= 0 || payload.RemainingMs > 60_000 {
		t.Fatalf("remaining_ms out of range: %d", payload.RemainingMs)
	}

	status := getJSON(t, srv.URL+"/api/sessions/resync?session_id=s1&participant_id=unknown", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown participant, got %d", status)
	}
}

func TestMethodAndQueryValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/sessions/join")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET join, got %d", resp.StatusCode)
	}

	if status := getJSON(t, srv.URL+"/api/rounds/results?session_id=s1", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing question_id, got %d", status)
	}
}
