package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
	"github.com/battledinghy/battledinghy/internal/game/domain"
	"github.com/battledinghy/battledinghy/internal/game/storage"
)

const sessionColumns = `id, thread_id, game_number, player1_id, player2_id,
grid_size, fleet, board1, board2, turn, state, winner, post_count,
last_seen_message_id, created_at, updated_at`

// CreateSession inserts the session and assigns the next game number inside
// one transaction so concurrent creates never share a number.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	fleet, err := encodeFleet(session.Board1.Fleet)
	if err != nil {
		return domain.Session{}, err
	}
	board1, err := encodeCells(session.Board1.Encode())
	if err != nil {
		return domain.Session{}, err
	}
	board2, err := encodeCells(session.Board2.Encode())
	if err != nil {
		return domain.Session{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("begin create session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var gameNumber int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(game_number), 0) + 1 FROM sessions`).Scan(&gameNumber)
	if err != nil {
		return domain.Session{}, fmt.Errorf("assign game number: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO sessions (`+sessionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.ThreadID, gameNumber,
		session.Player1, session.Player2,
		session.Board1.Size, fleet, board1, board2,
		session.Turn, session.State.String(), session.Winner,
		session.PostCount, session.LastSeen,
		toMillis(session.CreatedAt), toMillis(session.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Session{}, apperrors.Wrap(apperrors.CodeSessionThreadConflict,
				"thread already has a session", err)
		}
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Session{}, fmt.Errorf("commit create session: %w", err)
	}

	session.GameNumber = gameNumber
	return session, nil
}

// GetSession loads one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetSessionByThread loads one session by its conversation thread id.
func (s *Store) GetSessionByThread(ctx context.Context, threadID string) (domain.Session, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE thread_id = ?`, threadID)
	return scanSession(row)
}

// ListActiveSessions returns all sessions still accepting shots, oldest
// first.
func (s *Store) ListActiveSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE state = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}

// ApplyShotUpdate writes the post-shot session state, conditioned on the
// session still being active with the expected turn owner. A zero row count
// with the session present means another writer got there first.
func (s *Store) ApplyShotUpdate(ctx context.Context, update storage.ShotUpdate) error {
	cells, err := encodeCells(update.Cells)
	if err != nil {
		return err
	}

	boardColumn := "board2"
	if update.DefenderSlot == 1 {
		boardColumn = "board1"
	}

	state := domain.StateActive.String()
	turn := update.NextTurn
	winner := ""
	if update.Completed {
		state = domain.StateCompleted.String()
		turn = ""
		winner = update.Winner
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions SET `+boardColumn+` = ?, turn = ?, state = ?, winner = ?, updated_at = ?
WHERE id = ? AND state = 'active' AND turn = ?`,
		cells, turn, state, winner, toMillis(update.UpdatedAt),
		update.SessionID, update.ExpectedTurn)
	if err != nil {
		return fmt.Errorf("apply shot update: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply shot update rows: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.sqlDB.QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE id = ?`, update.SessionID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check session after conflict: %w", err)
		}
		return storage.ErrConflict
	}
	return nil
}

// CancelSession marks an active session cancelled. Terminal sessions are
// left untouched and reported as a conflict.
func (s *Store) CancelSession(ctx context.Context, id string, now time.Time) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions SET state = 'cancelled', turn = '', updated_at = ?
WHERE id = ? AND state = 'active'`, toMillis(now), id)
	if err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel session rows: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.sqlDB.QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check session after cancel: %w", err)
		}
		return storage.ErrConflict
	}
	return nil
}

// IncrementPostCount bumps the session's bot post counter and returns the
// new value.
func (s *Store) IncrementPostCount(ctx context.Context, id string) (int64, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin increment post count: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE sessions SET post_count = post_count + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("increment post count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("increment post count rows: %w", err)
	}
	if affected == 0 {
		return 0, storage.ErrNotFound
	}

	var count int64
	if err := tx.QueryRowContext(ctx,
		`SELECT post_count FROM sessions WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("read post count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit increment post count: %w", err)
	}
	return count, nil
}

// SetLastSeen records the newest inbound message id already polled for the
// session.
func (s *Store) SetLastSeen(ctx context.Context, id string, messageID string) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions SET last_seen_message_id = ? WHERE id = ?`, messageID, id)
	if err != nil {
		return fmt.Errorf("set last seen: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set last seen rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteAllSessions removes every session row and reports how many were
// deleted.
func (s *Store) DeleteAllSessions(ctx context.Context) (int64, error) {
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("delete all sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all sessions rows: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		session              domain.Session
		gridSize             int
		fleetRaw             string
		board1Raw, board2Raw string
		stateRaw             string
		createdAt, updatedAt int64
	)
	err := row.Scan(&session.ID, &session.ThreadID, &session.GameNumber,
		&session.Player1, &session.Player2,
		&gridSize, &fleetRaw, &board1Raw, &board2Raw,
		&session.Turn, &stateRaw, &session.Winner, &session.PostCount,
		&session.LastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("scan session: %w", err)
	}

	fleet, err := decodeFleet(fleetRaw)
	if err != nil {
		return domain.Session{}, err
	}
	cells1, err := decodeCells(board1Raw)
	if err != nil {
		return domain.Session{}, err
	}
	cells2, err := decodeCells(board2Raw)
	if err != nil {
		return domain.Session{}, err
	}
	session.Board1, err = domain.DecodeBoard(gridSize, fleet, cells1)
	if err != nil {
		return domain.Session{}, fmt.Errorf("decode board1: %w", err)
	}
	session.Board2, err = domain.DecodeBoard(gridSize, fleet, cells2)
	if err != nil {
		return domain.Session{}, fmt.Errorf("decode board2: %w", err)
	}

	session.State = domain.ParseState(stateRaw)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}
