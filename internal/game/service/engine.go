// Package service implements the game engine: session creation, shot
// application with at-most-once command handling, and session lifecycle
// operations over the storage interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
	"github.com/battledinghy/battledinghy/internal/game/domain"
	"github.com/battledinghy/battledinghy/internal/game/storage"
	"github.com/battledinghy/battledinghy/internal/id"
	"github.com/battledinghy/battledinghy/internal/random"
)

// FirstTurn selects who fires first in a new session.
type FirstTurn string

const (
	// FirstTurnRandom picks the opening shooter with the engine rng.
	FirstTurnRandom FirstTurn = "random"
	// FirstTurnChallenger always lets the challenger open.
	FirstTurnChallenger FirstTurn = "challenger"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	GridSize  int
	Fleet     domain.FleetConfig
	FirstTurn FirstTurn
	Now       func() time.Time
	Seed      int64 // rng seed, 0 draws a random one
}

// Engine coordinates game sessions against durable storage.
type Engine struct {
	sessions  storage.SessionStore
	commands  storage.CommandStore
	gridSize  int
	fleet     domain.FleetConfig
	firstTurn FirstTurn
	now       func() time.Time
	tracer    trace.Tracer

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine builds an Engine over the given stores.
func NewEngine(sessions storage.SessionStore, commands storage.CommandStore, opts Options) (*Engine, error) {
	if sessions == nil || commands == nil {
		return nil, fmt.Errorf("session and command stores are required")
	}
	if opts.GridSize == 0 {
		opts.GridSize = domain.DefaultGridSize
	}
	if len(opts.Fleet.Ships) == 0 {
		opts.Fleet = domain.DefaultFleet()
	}
	if err := opts.Fleet.Validate(opts.GridSize); err != nil {
		return nil, err
	}
	switch opts.FirstTurn {
	case "":
		opts.FirstTurn = FirstTurnRandom
	case FirstTurnRandom, FirstTurnChallenger:
	default:
		return nil, fmt.Errorf("unknown first turn policy %q", opts.FirstTurn)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	seed := opts.Seed
	if seed == 0 {
		drawn, err := random.NewSeed()
		if err != nil {
			return nil, err
		}
		seed = drawn
	}
	return &Engine{
		sessions:  sessions,
		commands:  commands,
		gridSize:  opts.GridSize,
		fleet:     opts.Fleet,
		firstTurn: opts.FirstTurn,
		now:       opts.Now,
		tracer:    otel.Tracer("battledinghy/game"),
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// CreateParams describe a new session to create from an accepted challenge.
type CreateParams struct {
	ThreadID   string
	Challenger string
	Opponent   string
}

// CreateSession places both fleets and persists a fresh active session.
func (e *Engine) CreateSession(ctx context.Context, params CreateParams) (domain.Session, error) {
	ctx, span := e.tracer.Start(ctx, "engine.CreateSession")
	defer span.End()

	if strings.TrimSpace(params.ThreadID) == "" {
		return domain.Session{}, apperrors.New(apperrors.CodeSessionEmptyThread, "thread id is required")
	}
	if strings.TrimSpace(params.Challenger) == "" || strings.TrimSpace(params.Opponent) == "" {
		return domain.Session{}, apperrors.New(apperrors.CodeSessionEmptyPlayer, "both player ids are required")
	}
	if params.Challenger == params.Opponent {
		return domain.Session{}, apperrors.New(apperrors.CodeSessionSamePlayers, "a player cannot challenge themselves")
	}

	e.rngMu.Lock()
	board1, err1 := domain.NewBoard(e.gridSize, e.fleet, e.rng)
	board2, err2 := domain.NewBoard(e.gridSize, e.fleet, e.rng)
	opensSecond := e.rng.Intn(2) == 1
	e.rngMu.Unlock()
	if err1 != nil {
		return domain.Session{}, err1
	}
	if err2 != nil {
		return domain.Session{}, err2
	}

	turn := params.Challenger
	if e.firstTurn == FirstTurnRandom && opensSecond {
		turn = params.Opponent
	}

	sessionID, err := id.NewID()
	if err != nil {
		return domain.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := e.now().UTC()
	session := domain.Session{
		ID:        sessionID,
		ThreadID:  params.ThreadID,
		Player1:   params.Challenger,
		Player2:   params.Opponent,
		Board1:    board1,
		Board2:    board2,
		Turn:      turn,
		State:     domain.StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := e.sessions.CreateSession(ctx, session)
	if err != nil {
		return domain.Session{}, err
	}
	span.SetAttributes(
		attribute.String("session.id", created.ID),
		attribute.Int64("session.game_number", created.GameNumber),
	)
	return created, nil
}

// ShotCommand is one inbound fire request, identified by the message that
// carried it.
type ShotCommand struct {
	CommandID  string // inbound message id, the dedup key
	SessionID  string
	Player     string
	Coordinate string // raw player text, e.g. "B3"
}

// ShotResult reports how a shot command ended. Exactly one of Rejection or
// an applied outcome is meaningful: Applied() distinguishes them.
type ShotResult struct {
	Rejection apperrors.Code // empty when the shot was applied
	Outcome   domain.Outcome
	Coord     domain.Coord
	Ship      domain.ShipSpec // set for HIT and SUNK
	Session   domain.Session  // post-shot session state when applied
	Remaining domain.FleetSummary
	GameOver  bool
	Winner    string
}

// Applied reports whether the shot mutated the session.
func (r ShotResult) Applied() bool {
	return r.Rejection == "" &&
		(r.Outcome == domain.OutcomeMiss || r.Outcome == domain.OutcomeHit || r.Outcome == domain.OutcomeSunk)
}

func reject(code apperrors.Code) ShotResult {
	return ShotResult{Rejection: code, Outcome: domain.OutcomeInvalid}
}

// ApplyShot runs the full shot pipeline: load, validate, record the command,
// resolve against a board snapshot, and persist with a turn-conditioned
// write. Rejections come back as a typed result; the error return is for
// infrastructure failures only.
func (e *Engine) ApplyShot(ctx context.Context, cmd ShotCommand) (ShotResult, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ApplyShot",
		trace.WithAttributes(attribute.String("session.id", cmd.SessionID)))
	defer span.End()

	session, err := e.sessions.GetSession(ctx, cmd.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return ShotResult{}, apperrors.Wrap(apperrors.CodeNotFound, "session not found", err)
	}
	if err != nil {
		return ShotResult{}, err
	}

	coord, err := domain.ParseCoordinate(cmd.Coordinate, session.Board1.Size)
	if err != nil {
		return reject(apperrors.CodeInvalidCoordinate), nil
	}

	if err := session.AuthorizeShot(cmd.Player); err != nil {
		return reject(apperrors.CodeOf(err)), nil
	}

	// Recording the command before resolution is the at-most-once gate: a
	// second poll of the same message stops here.
	now := e.now().UTC()
	inserted, err := e.commands.InsertCommand(ctx, cmd.CommandID, session.ID, now)
	if err != nil {
		return ShotResult{}, err
	}
	if !inserted {
		return reject(apperrors.CodeDuplicateCommand), nil
	}

	board := session.DefendingBoard(cmd.Player).Copy()
	outcome, shipID := board.ResolveShot(coord)
	span.SetAttributes(attribute.String("shot.outcome", outcome.String()))

	if outcome == domain.OutcomeAlreadyFired {
		// The command stays recorded: the message was handled, the session
		// is untouched, and the shooter keeps the turn.
		result := reject(apperrors.CodeAlreadyFired)
		result.Outcome = domain.OutcomeAlreadyFired
		result.Coord = coord
		return result, nil
	}

	remaining := board.ShipsRemaining()
	gameOver := remaining.TotalAfloat == 0

	update := storage.ShotUpdate{
		SessionID:    session.ID,
		DefenderSlot: session.DefenderSlot(cmd.Player),
		Cells:        board.Encode(),
		ExpectedTurn: session.Turn,
		NextTurn:     session.Opponent(cmd.Player),
		Completed:    gameOver,
		Winner:       "",
		UpdatedAt:    now,
	}
	if gameOver {
		update.Winner = cmd.Player
	}

	if err := e.sessions.ApplyShotUpdate(ctx, update); err != nil {
		// The command record must not survive an unpersisted shot, or the
		// retry after this conflict would be refused as a duplicate.
		if deleteErr := e.commands.DeleteCommand(ctx, cmd.CommandID); deleteErr != nil {
			return ShotResult{}, fmt.Errorf("roll back command after failed write: %w", deleteErr)
		}
		if errors.Is(err, storage.ErrConflict) {
			return reject(apperrors.CodeConcurrentModification), nil
		}
		if errors.Is(err, storage.ErrNotFound) {
			return ShotResult{}, apperrors.Wrap(apperrors.CodeNotFound, "session disappeared", err)
		}
		return ShotResult{}, err
	}

	if session.DefenderSlot(cmd.Player) == 1 {
		session.Board1 = board
	} else {
		session.Board2 = board
	}
	if gameOver {
		session.Complete(cmd.Player, now)
	} else {
		session.AdvanceTurn(cmd.Player, now)
	}

	result := ShotResult{
		Outcome:   outcome,
		Coord:     coord,
		Session:   session,
		Remaining: remaining,
		GameOver:  gameOver,
	}
	if gameOver {
		result.Winner = cmd.Player
	}
	if shipID != 0 {
		if spec, ok := board.Fleet.Spec(shipID); ok {
			result.Ship = spec
		}
	}
	return result, nil
}

// GetSession loads one session by id.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := e.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Session{}, apperrors.Wrap(apperrors.CodeNotFound, "session not found", err)
	}
	return session, err
}

// GetSessionByThread loads the session bound to a conversation thread.
func (e *Engine) GetSessionByThread(ctx context.Context, threadID string) (domain.Session, error) {
	session, err := e.sessions.GetSessionByThread(ctx, threadID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Session{}, apperrors.Wrap(apperrors.CodeNotFound, "no session for thread", err)
	}
	return session, err
}

// ListActiveSessions returns every session still accepting shots.
func (e *Engine) ListActiveSessions(ctx context.Context) ([]domain.Session, error) {
	return e.sessions.ListActiveSessions(ctx)
}

// CancelSession administratively ends an active session.
func (e *Engine) CancelSession(ctx context.Context, sessionID string) error {
	err := e.sessions.CancelSession(ctx, sessionID, e.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "session not found", err)
	}
	if errors.Is(err, storage.ErrConflict) {
		return apperrors.Wrap(apperrors.CodeNotActive, "session already ended", err)
	}
	return err
}

// NextPostNumber reserves the next outbound post number for a session.
func (e *Engine) NextPostNumber(ctx context.Context, sessionID string) (int64, error) {
	count, err := e.sessions.IncrementPostCount(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, apperrors.Wrap(apperrors.CodeNotFound, "session not found", err)
	}
	return count, err
}

// RecordLastSeen stores the poll watermark for a session's thread.
func (e *Engine) RecordLastSeen(ctx context.Context, sessionID, messageID string) error {
	err := e.sessions.SetLastSeen(ctx, sessionID, messageID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "session not found", err)
	}
	return err
}

// DeleteAllSessions removes every session. Administrative bulk clear.
func (e *Engine) DeleteAllSessions(ctx context.Context) (int64, error) {
	return e.sessions.DeleteAllSessions(ctx)
}
