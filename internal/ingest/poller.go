package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/battledinghy/battledinghy/internal/dedup"
	apperrors "github.com/battledinghy/battledinghy/internal/errors"
	"github.com/battledinghy/battledinghy/internal/game/domain"
	"github.com/battledinghy/battledinghy/internal/game/service"
	"github.com/battledinghy/battledinghy/internal/render"
)

// Message is one inbound social post.
type Message struct {
	ID           string
	ThreadID     string // conversation root id; empty for a fresh post
	AuthorHandle string
	Text         string
	CreatedAt    time.Time
}

// Source reads inbound messages from the social platform.
type Source interface {
	// Mentions returns posts mentioning the bot newer than sinceID, oldest
	// first. An empty sinceID returns everything available.
	Mentions(ctx context.Context, sinceID string) ([]Message, error)
	// Thread returns posts in a conversation newer than sinceID, oldest
	// first.
	Thread(ctx context.Context, threadID, sinceID string) ([]Message, error)
	// ResolveHandle verifies a handle exists on the platform.
	ResolveHandle(ctx context.Context, handle string) error
}

// Publisher posts replies to the social platform.
type Publisher interface {
	// Reply posts text in reply to the given message or thread id and
	// returns the new post's id.
	Reply(ctx context.Context, inReplyTo, text string) (string, error)
}

// defaultPollInterval matches the platform's polling rate budget.
const defaultPollInterval = 60 * time.Second

// Config tunes a Poller.
type Config struct {
	BotHandle string
	Interval  time.Duration
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = defaultPollInterval
	}
	return c
}

// Poller drives the game from polled messages: it detects challenges in bot
// mentions and fire commands in active game threads.
type Poller struct {
	engine    *service.Engine
	dedupe    *dedup.Deduper
	source    Source
	publisher Publisher
	cfg       Config

	lastMentionID string
}

// NewPoller wires a Poller over its collaborators.
func NewPoller(engine *service.Engine, dedupe *dedup.Deduper, source Source, publisher Publisher, cfg Config) (*Poller, error) {
	if engine == nil || dedupe == nil || source == nil || publisher == nil {
		return nil, fmt.Errorf("engine, dedup, source, and publisher are required")
	}
	if strings.TrimSpace(cfg.BotHandle) == "" {
		return nil, fmt.Errorf("bot handle is required")
	}
	return &Poller{
		engine:    engine,
		dedupe:    dedupe,
		source:    source,
		publisher: publisher,
		cfg:       cfg.normalized(),
	}, nil
}

// Run polls until the context is cancelled. Poll errors are logged, not
// fatal; the next tick retries.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single polling pass over challenges and active games.
func (p *Poller) PollOnce(ctx context.Context) {
	if err := p.pollChallenges(ctx); err != nil {
		log.Printf("poll challenges: %v", err)
	}
	if err := p.pollActiveGames(ctx); err != nil {
		log.Printf("poll active games: %v", err)
	}
}

func (p *Poller) pollChallenges(ctx context.Context) error {
	messages, err := p.source.Mentions(ctx, p.lastMentionID)
	if err != nil {
		return fmt.Errorf("fetch mentions: %w", err)
	}

	for _, msg := range messages {
		p.lastMentionID = msg.ID

		seen, err := p.dedupe.Seen(ctx, msg.ID)
		if err != nil {
			return err
		}
		if seen || strings.EqualFold(msg.AuthorHandle, p.cfg.BotHandle) {
			continue
		}
		if !IsChallenge(msg.Text, p.cfg.BotHandle) {
			log.Printf("mention %s is not a challenge (confidence %d)",
				msg.ID, ChallengeConfidence(msg.Text, p.cfg.BotHandle))
			continue
		}

		p.handleChallenge(ctx, msg)
		p.dedupe.Remember(msg.ID)
	}
	return nil
}

func (p *Poller) handleChallenge(ctx context.Context, msg Message) {
	mentions := ExtractMentions(msg.Text, p.cfg.BotHandle)
	if len(mentions) == 0 {
		p.reply(ctx, msg.ID, fmt.Sprintf("⚠️ Please mention an opponent! Example: '@%s play @opponent'", p.cfg.BotHandle))
		return
	}

	opponent := mentions[0]
	if strings.EqualFold(opponent, msg.AuthorHandle) {
		p.reply(ctx, msg.ID, "❌ You can't challenge yourself! Pick a friend to play against.")
		return
	}
	if err := p.source.ResolveHandle(ctx, opponent); err != nil {
		p.reply(ctx, msg.ID, fmt.Sprintf("❌ User @%s not found! Please mention a valid user.", opponent))
		return
	}

	threadID := msg.ThreadID
	if threadID == "" {
		threadID = msg.ID
	}

	session, err := p.engine.CreateSession(ctx, service.CreateParams{
		ThreadID:   threadID,
		Challenger: msg.AuthorHandle,
		Opponent:   opponent,
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeSessionThreadConflict {
			p.reply(ctx, msg.ID, "⚠️ There's already a game in this thread! Finish it first.")
			return
		}
		log.Printf("create session for thread %s: %v", threadID, err)
		return
	}

	log.Printf("game #%d created: %s vs %s in thread %s",
		session.GameNumber, session.Player1, session.Player2, session.ThreadID)

	board := render.Board(session.DefendingBoard(session.Turn), "Opponent Waters", render.OpponentView)
	p.reply(ctx, msg.ID, render.GameStart(session)+"\n\n"+board)

	if err := p.engine.RecordLastSeen(ctx, session.ID, msg.ID); err != nil {
		log.Printf("record last seen for %s: %v", session.ID, err)
	}
}

func (p *Poller) pollActiveGames(ctx context.Context) error {
	sessions, err := p.engine.ListActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("list active sessions: %w", err)
	}

	for _, session := range sessions {
		if err := p.pollGameThread(ctx, session); err != nil {
			log.Printf("poll thread %s: %v", session.ThreadID, err)
		}
	}
	return nil
}

func (p *Poller) pollGameThread(ctx context.Context, session domain.Session) error {
	messages, err := p.source.Thread(ctx, session.ThreadID, session.LastSeen)
	if err != nil {
		return fmt.Errorf("fetch thread: %w", err)
	}

	lastSeen := session.LastSeen
	for _, msg := range messages {
		lastSeen = msg.ID

		if strings.EqualFold(msg.AuthorHandle, p.cfg.BotHandle) {
			continue
		}
		if !session.IsParticipant(msg.AuthorHandle) {
			continue
		}
		seen, err := p.dedupe.Seen(ctx, msg.ID)
		if err != nil {
			return err
		}
		if seen {
			continue
		}

		coord, ok := ParseShotCoordinate(msg.Text, session.Board1.Size)
		if !ok {
			if hasFireKeyword(msg.Text) {
				p.reply(ctx, msg.ID, fmt.Sprintf("🎯 Please specify a coordinate! Example: 'fire A1' (A-%c, 1-%d)",
					'A'+rune(session.Board1.Size)-1, session.Board1.Size))
				p.dedupe.Remember(msg.ID)
			}
			continue
		}

		updated, done := p.handleShot(ctx, session, msg, coord)
		session = updated
		if done {
			break
		}
	}

	if lastSeen != session.LastSeen {
		if err := p.engine.RecordLastSeen(ctx, session.ID, lastSeen); err != nil {
			return fmt.Errorf("record last seen: %w", err)
		}
	}
	return nil
}

// handleShot applies one fire command and posts the outcome. It returns the
// session to validate subsequent messages against, and whether the thread is
// finished for this pass.
func (p *Poller) handleShot(ctx context.Context, session domain.Session, msg Message, coord string) (domain.Session, bool) {
	result, err := p.engine.ApplyShot(ctx, service.ShotCommand{
		CommandID:  msg.ID,
		SessionID:  session.ID,
		Player:     msg.AuthorHandle,
		Coordinate: coord,
	})
	if err != nil {
		log.Printf("apply shot %s in %s: %v", coord, session.ID, err)
		return session, false
	}

	if result.Applied() {
		p.dedupe.Remember(msg.ID)
		p.announceShot(ctx, result, msg.AuthorHandle)
		return result.Session, result.GameOver
	}

	switch result.Rejection {
	case apperrors.CodeWrongTurn:
		p.reply(ctx, msg.ID, fmt.Sprintf("⏳ Hold up! It's @%s's turn. You'll go next!", session.Turn))
	case apperrors.CodeAlreadyFired:
		p.dedupe.Remember(msg.ID)
		p.reply(ctx, msg.ID, render.ShotLine(domain.OutcomeAlreadyFired, result.Coord, ""))
	case apperrors.CodeDuplicateCommand:
		p.dedupe.Remember(msg.ID)
	case apperrors.CodeConcurrentModification:
		p.reply(ctx, msg.ID, "⚠️ Oops! Something went wrong. The game state changed. Please try again!")
	case apperrors.CodeNotActive:
		return session, true
	}
	return session, false
}

func (p *Poller) announceShot(ctx context.Context, result service.ShotResult, attacker string) {
	session := result.Session
	defender := session.DefendingBoard(attacker)

	postNumber, err := p.engine.NextPostNumber(ctx, session.ID)
	if err != nil {
		log.Printf("next post number for %s: %v", session.ID, err)
	}

	line := render.ShotLine(result.Outcome, result.Coord, result.Ship.Name)
	text := render.ShotResult(postNumber, line, session, defender, result.Winner)
	board := render.Board(defender, fmt.Sprintf("@%s's shots", attacker), render.OpponentView)
	p.reply(ctx, session.ThreadID, text+"\n\n"+board)

	if result.GameOver {
		log.Printf("game #%d over, %s wins", session.GameNumber, result.Winner)
		return
	}

	promptNumber, err := p.engine.NextPostNumber(ctx, session.ID)
	if err != nil {
		log.Printf("next post number for %s: %v", session.ID, err)
	}
	next := session.Turn
	nextBoard := render.Board(session.DefendingBoard(next), "Opponent Waters", render.OpponentView)
	p.reply(ctx, session.ThreadID, render.TurnPrompt(promptNumber, next)+"\n\n"+nextBoard)
}

func (p *Poller) reply(ctx context.Context, inReplyTo, text string) {
	if _, err := p.publisher.Reply(ctx, inReplyTo, text); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("reply to %s: %v", inReplyTo, err)
	}
}

func hasFireKeyword(text string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if commandKeywords[word] && word != "at" {
			return true
		}
	}
	return false
}
