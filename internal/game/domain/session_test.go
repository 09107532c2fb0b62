package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

func activeSession() *Session {
	return &Session{
		ID:      "sess-1",
		Player1: "alice",
		Player2: "bob",
		Turn:    "alice",
		State:   StateActive,
	}
}

func TestAuthorizeShot(t *testing.T) {
	s := activeSession()

	if err := s.AuthorizeShot("alice"); err != nil {
		t.Fatalf("authorize turn owner: %v", err)
	}

	err := s.AuthorizeShot("bob")
	if !errors.Is(err, apperrors.New(apperrors.CodeWrongTurn, "")) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeWrongTurn)
	}

	err = s.AuthorizeShot("mallory")
	if !errors.Is(err, apperrors.New(apperrors.CodeNotParticipant, "")) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeNotParticipant)
	}
}

func TestAuthorizeShotTerminalStates(t *testing.T) {
	for _, state := range []State{StateCompleted, StateCancelled} {
		s := activeSession()
		s.State = state
		err := s.AuthorizeShot("alice")
		if !errors.Is(err, apperrors.New(apperrors.CodeNotActive, "")) {
			t.Fatalf("state %v: err = %v, want %s", state, err, apperrors.CodeNotActive)
		}
	}
}

func TestAdvanceTurnAlternates(t *testing.T) {
	s := activeSession()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.AdvanceTurn("alice", now)
	if s.Turn != "bob" {
		t.Fatalf("turn = %q, want %q", s.Turn, "bob")
	}
	s.AdvanceTurn("bob", now.Add(time.Minute))
	if s.Turn != "alice" {
		t.Fatalf("turn = %q, want %q", s.Turn, "alice")
	}
	if !s.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("updated at = %v, want %v", s.UpdatedAt, now.Add(time.Minute))
	}
}

func TestComplete(t *testing.T) {
	s := activeSession()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.Complete("alice", now)
	if s.State != StateCompleted {
		t.Fatalf("state = %v, want completed", s.State)
	}
	if s.Winner != "alice" {
		t.Fatalf("winner = %q, want %q", s.Winner, "alice")
	}
	if err := s.AuthorizeShot("bob"); err == nil {
		t.Fatal("completed session accepted a shot")
	}
}

func TestDefenderSlotAndBoard(t *testing.T) {
	s := activeSession()
	s.Board1 = &Board{Size: 5, Fleet: DefaultFleet(), Cells: make([]Cell, 25)}
	s.Board2 = &Board{Size: 5, Fleet: DefaultFleet(), Cells: make([]Cell, 25)}

	if got := s.DefenderSlot("alice"); got != 2 {
		t.Fatalf("defender slot for alice = %d, want 2", got)
	}
	if got := s.DefenderSlot("bob"); got != 1 {
		t.Fatalf("defender slot for bob = %d, want 1", got)
	}
	if s.DefendingBoard("alice") != s.Board2 {
		t.Fatal("alice should fire at board 2")
	}
	if s.DefendingBoard("bob") != s.Board1 {
		t.Fatal("bob should fire at board 1")
	}
	if got := s.Opponent("alice"); got != "bob" {
		t.Fatalf("opponent of alice = %q, want %q", got, "bob")
	}
}

func TestStateRoundTrip(t *testing.T) {
	for _, state := range []State{StateActive, StateCompleted, StateCancelled} {
		if got := ParseState(state.String()); got != state {
			t.Fatalf("ParseState(%q) = %v, want %v", state.String(), got, state)
		}
	}
	if got := ParseState("bogus"); got != StateUnspecified {
		t.Fatalf("ParseState(bogus) = %v, want unspecified", got)
	}
}
