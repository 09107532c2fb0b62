// Package storage defines the persistence interfaces the game engine
// depends on. Implementations live in subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/battledinghy/battledinghy/internal/game/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a conditional write found the record changed since
// it was read. Nothing was persisted.
var ErrConflict = errors.New("session changed since read")

// ShotUpdate describes the atomic session update after a resolved shot.
// The write commits only while the session is still active and the turn
// owner still matches ExpectedTurn.
type ShotUpdate struct {
	SessionID    string
	DefenderSlot int   // 1 or 2: which board column receives Cells
	Cells        []int // encoded defender board after the shot
	ExpectedTurn string
	NextTurn     string // ignored when Completed
	Completed    bool
	Winner       string // set when Completed
	UpdatedAt    time.Time
}

// SessionStore persists game sessions.
type SessionStore interface {
	// CreateSession inserts a new session and assigns its game number.
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	// GetSession loads a session by id, ErrNotFound when missing.
	GetSession(ctx context.Context, id string) (domain.Session, error)
	// GetSessionByThread loads a session by its conversation thread id.
	GetSessionByThread(ctx context.Context, threadID string) (domain.Session, error)
	// ListActiveSessions returns all sessions still accepting shots.
	ListActiveSessions(ctx context.Context) ([]domain.Session, error)
	// ApplyShotUpdate performs the turn-conditioned session write,
	// returning ErrConflict when the condition fails.
	ApplyShotUpdate(ctx context.Context, update ShotUpdate) error
	// CancelSession marks an active session cancelled.
	CancelSession(ctx context.Context, id string, now time.Time) error
	// IncrementPostCount bumps and returns the session's bot post counter.
	IncrementPostCount(ctx context.Context, id string) (int64, error)
	// SetLastSeen records the newest inbound message id already polled.
	SetLastSeen(ctx context.Context, id string, messageID string) error
	// DeleteAllSessions removes every session. Administrative bulk clear.
	DeleteAllSessions(ctx context.Context) (int64, error)
}

// CommandStore persists processed-command records for at-most-once
// application of inbound shots.
type CommandStore interface {
	// InsertCommand records a command id, reporting false when the id was
	// already present. The insert is the at-most-once gate.
	InsertCommand(ctx context.Context, commandID, sessionID string, at time.Time) (bool, error)
	// HasCommand reports whether a command id is already recorded.
	HasCommand(ctx context.Context, commandID string) (bool, error)
	// DeleteCommand removes one record; used to compensate when a shot is
	// aborted after its command was recorded.
	DeleteCommand(ctx context.Context, commandID string) error
	// PruneCommands deletes records older than the cutoff, returning the
	// number removed.
	PruneCommands(ctx context.Context, before time.Time) (int64, error)
	// CountCommands returns the number of retained records.
	CountCommands(ctx context.Context) (int64, error)
}
