package sqlite

import (
	"context"
	"fmt"
	"time"
)

// InsertCommand records one processed command id. The primary key makes the
// insert the at-most-once gate: a duplicate id inserts nothing and reports
// false.
func (s *Store) InsertCommand(ctx context.Context, commandID, sessionID string, at time.Time) (bool, error) {
	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO processed_commands (command_id, session_id, processed_at)
VALUES (?, ?, ?) ON CONFLICT (command_id) DO NOTHING`,
		commandID, sessionID, toMillis(at))
	if err != nil {
		return false, fmt.Errorf("insert command: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert command rows: %w", err)
	}
	return affected > 0, nil
}

// HasCommand reports whether the command id has already been recorded.
func (s *Store) HasCommand(ctx context.Context, commandID string) (bool, error) {
	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_commands WHERE command_id = ?`, commandID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check command: %w", err)
	}
	return count > 0, nil
}

// DeleteCommand removes one command record. Deleting a missing id is not an
// error.
func (s *Store) DeleteCommand(ctx context.Context, commandID string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM processed_commands WHERE command_id = ?`, commandID)
	if err != nil {
		return fmt.Errorf("delete command: %w", err)
	}
	return nil
}

// PruneCommands deletes command records processed before the cutoff.
func (s *Store) PruneCommands(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM processed_commands WHERE processed_at < ?`, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("prune commands: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune commands rows: %w", err)
	}
	return affected, nil
}

// CountCommands returns the number of retained command records.
func (s *Store) CountCommands(ctx context.Context) (int64, error) {
	var count int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_commands`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count commands: %w", err)
	}
	return count, nil
}
