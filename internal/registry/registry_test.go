package registry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
	"github.com/jonboulle/clockwork"
)

func TestJoinRejectsInvalidNames(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	cases := []string{"", "   ", "\x00\x01", strings.Repeat("x", 33)}
	for _, name := range cases {
		if _, err := reg.GetOrCreate("s1", name, "c1", ""); !errors.Is(err, models.ErrNameInvalid) {
			t.Fatalf("name %q: expected ErrNameInvalid, got %v", name, err)
		}
	}

	// 32 runes is the boundary and passes.
	if _, err := reg.GetOrCreate("s1", strings.Repeat("x", 32), "c1", ""); err != nil {
		t.Fatalf("expected 32-rune name to pass, got %v", err)
	}
}

func TestJoinTrimsAndStripsControlChars(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	p, err := reg.GetOrCreate("s1", "  Ali\x00ce  ", "c1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DisplayName != "Alice" {
		t.Fatalf("expected sanitized name Alice, got %q", p.DisplayName)
	}
}

func TestNameUniquenessIsCaseInsensitive(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	if _, err := reg.GetOrCreate("s1", "Alice", "c1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.GetOrCreate("s1", "ALICE", "c2", ""); !errors.Is(err, models.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	// Same name in a different session is fine.
	if _, err := reg.GetOrCreate("s2", "alice", "c3", ""); err != nil {
		t.Fatalf("expected cross-session reuse to pass, got %v", err)
	}
}

func TestReconnectPreservesIdentity(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := New(clock)

	p1, err := reg.GetOrCreate("s1", "Alice", "c1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg.MarkDisconnected("c1")
	got, err := reg.Get("s1", p1.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsActive {
		t.Fatal("expected participant inactive after disconnect")
	}

	clock.Advance(10 * time.Second)
	p2, err := reg.GetOrCreate("s1", "", "c2", p1.ID)
	if err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if p2.ID != p1.ID {
		t.Fatalf("expected same identity, got %s vs %s", p2.ID, p1.ID)
	}
	if p2.DisplayName != "Alice" {
		t.Fatalf("expected display name preserved, got %q", p2.DisplayName)
	}
	if !p2.IsActive || p2.ConnectionID != "c2" {
		t.Fatalf("expected active on new connection, got %+v", p2)
	}
	if !p2.JoinedAt.Equal(p1.JoinedAt) {
		t.Fatal("expected JoinedAt to survive reconnect")
	}
}

func TestUnknownParticipantIDFallsBackToFreshJoin(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	p, err := reg.GetOrCreate("s1", "Bob", "c1", "nonexistent-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "nonexistent-id" {
		t.Fatal("expected a freshly minted id")
	}
}

func TestMarkDisconnectedIdempotent(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	p, _ := reg.GetOrCreate("s1", "Alice", "c1", "")
	reg.MarkDisconnected("c1")
	reg.MarkDisconnected("c1")
	reg.MarkDisconnected("never-seen")

	got, err := reg.Get("s1", p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsActive {
		t.Fatal("expected participant to stay inactive")
	}
}

func TestStaleDisconnectDoesNotClobberNewConnection(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	p, _ := reg.GetOrCreate("s1", "Alice", "c1", "")
	// Reconnect on c2 before the old connection's close is processed.
	reg.GetOrCreate("s1", "", "c2", p.ID)
	reg.MarkDisconnected("c1")

	got, _ := reg.Get("s1", p.ID)
	if !got.IsActive || got.ConnectionID != "c2" {
		t.Fatalf("expected c2 binding to survive stale disconnect, got %+v", got)
	}
}

func TestCanActGatesLateJoiners(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := New(clock)

	early, _ := reg.GetOrCreate("s1", "Early", "c1", "")
	clock.Advance(time.Second)
	roundStart := clock.Now()
	clock.Advance(time.Second)
	late, _ := reg.GetOrCreate("s1", "Late", "c2", "")

	if !reg.CanAct(early, roundStart, false) {
		t.Fatal("expected participant present before round start to act")
	}
	if reg.CanAct(late, roundStart, false) {
		t.Fatal("expected late joiner to be blocked during the round")
	}
	if !reg.CanAct(late, roundStart, true) {
		t.Fatal("expected everyone eligible once the round has ended")
	}
}

func TestMidRoundReconnectTreatedAsLateJoiner(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := New(clock)

	p, _ := reg.GetOrCreate("s1", "Alice", "c1", "")
	clock.Advance(time.Second)
	roundStart := clock.Now()

	// Presence is judged by LastSeenAt, which a reconnect refreshes: a
	// participant who drops and rejoins mid-round cannot act on the
	// round in progress, only observe it.
	clock.Advance(2 * time.Second)
	reg.MarkDisconnected("c1")
	p2, err := reg.GetOrCreate("s1", "", "c2", p.ID)
	if err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if reg.CanAct(p2, roundStart, false) {
		t.Fatal("expected mid-round reconnector to be blocked for the active round")
	}
	if !reg.CanAct(p2, roundStart, true) {
		t.Fatal("expected eligibility once the round has ended")
	}
}

func TestMarkATAUsedIsOneShot(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	p, _ := reg.GetOrCreate("s1", "Alice", "c1", "")
	if !reg.MarkATAUsed("s1", p.ID) {
		t.Fatal("expected first lifeline use to succeed")
	}
	if reg.MarkATAUsed("s1", p.ID) {
		t.Fatal("expected second lifeline use to fail")
	}
	got, _ := reg.Get("s1", p.ID)
	if !got.HasUsedATA {
		t.Fatal("expected HasUsedATA to be set")
	}
	if reg.MarkATAUsed("s1", "unknown") {
		t.Fatal("expected unknown participant to fail")
	}
	if reg.MarkATAUsed("unknown", p.ID) {
		t.Fatal("expected unknown session to fail")
	}
}

func TestListActiveAndCount(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	reg.GetOrCreate("s1", "Alice", "c1", "")
	reg.GetOrCreate("s1", "Bob", "c2", "")
	reg.MarkDisconnected("c2")

	if got := len(reg.ListActive("s1")); got != 1 {
		t.Fatalf("expected 1 active participant, got %d", got)
	}
	if got := reg.Count("s1"); got != 2 {
		t.Fatalf("expected count 2 including disconnected, got %d", got)
	}
	if reg.ListActive("missing") != nil {
		t.Fatal("expected nil for unknown session")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	reg := New(clockwork.NewFakeClock())

	p, _ := reg.GetOrCreate("s1", "Alice", "c1", "")
	p.DisplayName = "Mallory"

	got, _ := reg.Get("s1", p.ID)
	if got.DisplayName != "Alice" {
		t.Fatalf("expected registry state untouched, got %q", got.DisplayName)
	}
}
