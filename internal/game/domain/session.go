package domain

import (
	"time"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

// State describes the lifecycle state of a session.
type State int

const (
	// StateUnspecified represents an invalid session state value.
	StateUnspecified State = iota
	// StateActive indicates the session accepts shots.
	StateActive
	// StateCompleted indicates one player has sunk the other's fleet.
	StateCompleted
	// StateCancelled indicates the session was administratively cancelled.
	StateCancelled
)

// String returns the canonical storage name of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// ParseState maps a storage name back to a State.
func ParseState(value string) State {
	switch value {
	case "active":
		return StateActive
	case "completed":
		return StateCompleted
	case "cancelled":
		return StateCancelled
	default:
		return StateUnspecified
	}
}

// Session is one complete two-player game instance: two boards, the player
// identities, the turn owner, and lifecycle bookkeeping. A session is
// created once per challenge and mutated only by successful shots or an
// explicit cancel.
type Session struct {
	ID         string
	ThreadID   string
	GameNumber int64
	Player1    string
	Player2    string
	Board1     *Board // Player1's board, fired at by Player2
	Board2     *Board // Player2's board, fired at by Player1
	Turn       string // player id of the turn owner
	State      State
	Winner     string
	PostCount  int64
	LastSeen   string // id of the newest inbound message already polled
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsParticipant reports whether player is one of the two session players.
func (s *Session) IsParticipant(player string) bool {
	return player == s.Player1 || player == s.Player2
}

// Opponent returns the other player's id. The caller must pass a
// participant.
func (s *Session) Opponent(player string) string {
	if player == s.Player1 {
		return s.Player2
	}
	return s.Player1
}

// DefenderSlot returns 1 or 2 identifying which board the attacker fires at.
func (s *Session) DefenderSlot(attacker string) int {
	if attacker == s.Player1 {
		return 2
	}
	return 1
}

// DefendingBoard returns the board the attacker fires at.
func (s *Session) DefendingBoard(attacker string) *Board {
	if attacker == s.Player1 {
		return s.Board2
	}
	return s.Board1
}

// AuthorizeShot enforces the turn state machine preconditions: the session
// must be active, the shooter must be a participant, and it must be the
// shooter's turn. No state changes here.
func (s *Session) AuthorizeShot(player string) error {
	if s.State != StateActive {
		return apperrors.New(apperrors.CodeNotActive, "session is not active")
	}
	if !s.IsParticipant(player) {
		return apperrors.New(apperrors.CodeNotParticipant, "shooter is not a session player")
	}
	if player != s.Turn {
		return apperrors.New(apperrors.CodeWrongTurn, "not the shooter's turn")
	}
	return nil
}

// AdvanceTurn flips the turn owner to the attacker's opponent.
func (s *Session) AdvanceTurn(attacker string, now time.Time) {
	s.Turn = s.Opponent(attacker)
	s.UpdatedAt = now.UTC()
}

// Complete transitions the session to Completed with the given winner.
func (s *Session) Complete(winner string, now time.Time) {
	s.State = StateCompleted
	s.Winner = winner
	s.Turn = ""
	s.UpdatedAt = now.UTC()
}
