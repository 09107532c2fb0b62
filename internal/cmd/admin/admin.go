// Package admin parses admin command flags and runs operator maintenance
// subcommands against the bot's storage.
package admin

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/battledinghy/battledinghy/internal/authtoken"
	"github.com/battledinghy/battledinghy/internal/dedup"
	"github.com/battledinghy/battledinghy/internal/game/service"
	"github.com/battledinghy/battledinghy/internal/game/storage/sqlite"
	entrypoint "github.com/battledinghy/battledinghy/internal/platform/cmd"
	"github.com/battledinghy/battledinghy/internal/platform/timeouts"
)

// Config holds admin command configuration.
type Config struct {
	DBPath           string        `env:"BATTLE_DINGHY_DB_PATH" envDefault:"data/battledinghy.db"`
	TokenSubject     string        `env:"BATTLE_DINGHY_TOKEN_SUBJECT" envDefault:"operator"`
	TokenTTL         time.Duration `env:"BATTLE_DINGHY_TOKEN_TTL" envDefault:"24h"`
	CommandRetention time.Duration `env:"BATTLE_DINGHY_COMMAND_RETENTION" envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config. Remaining
// positional arguments select the subcommand.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, nil, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The bot SQLite database path")
	fs.StringVar(&cfg.TokenSubject, "token-subject", cfg.TokenSubject, "Subject claim for minted operator tokens")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Lifetime of minted operator tokens")
	fs.DurationVar(&cfg.CommandRetention, "command-retention", cfg.CommandRetention, "Processed command retention window")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

// Usage describes the available subcommands.
const Usage = `usage: admin [flags] <command>

commands:
  check        verify storage is reachable and report record counts
  sessions     list active sessions
  prune        delete processed command records past the retention window
  clear-games  delete every session (destructive)
  token        mint an operator bearer token`

// Run dispatches one admin subcommand.
func Run(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("a command is required\n%s", Usage)
	}

	command := args[0]
	if command == "token" {
		// Token minting needs no storage.
		return runToken(cfg, out)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch command {
	case "check":
		return runCheck(ctx, store, out)
	case "sessions":
		return runSessions(ctx, store, out)
	case "prune":
		return runPrune(ctx, store, cfg, out)
	case "clear-games":
		return runClearGames(ctx, store, out)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, Usage)
	}
}

func runCheck(ctx context.Context, store *sqlite.Store, out io.Writer) error {
	checkCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCheck)
	defer cancel()

	if err := store.Ping(); err != nil {
		return fmt.Errorf("storage unreachable: %w", err)
	}
	fmt.Fprintln(out, "[OK] storage reachable")

	sessions, err := store.ListActiveSessions(checkCtx)
	if err != nil {
		return err
	}
	commands, err := store.CountCommands(checkCtx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[OK] %d active session(s), %d processed command record(s)\n", len(sessions), commands)
	return nil
}

func runSessions(ctx context.Context, store *sqlite.Store, out io.Writer) error {
	sessions, err := store.ListActiveSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no active sessions")
		return nil
	}
	for _, session := range sessions {
		fmt.Fprintf(out, "game #%d  %s  %s vs %s  turn=%s  thread=%s\n",
			session.GameNumber, session.ID, session.Player1, session.Player2,
			session.Turn, session.ThreadID)
	}
	return nil
}

func runPrune(ctx context.Context, store *sqlite.Store, cfg Config, out io.Writer) error {
	deduper := dedup.New(store, dedup.WithMaxAge(cfg.CommandRetention))
	pruned, err := deduper.Prune(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pruned %d command record(s)\n", pruned)
	return nil
}

func runClearGames(ctx context.Context, store *sqlite.Store, out io.Writer) error {
	engine, err := service.NewEngine(store, store, service.Options{})
	if err != nil {
		return err
	}
	deleted, err := engine.DeleteAllSessions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %d session(s)\n", deleted)
	return nil
}

func runToken(cfg Config, out io.Writer) error {
	issuerCfg, err := authtoken.LoadIssuerConfigFromEnv(time.Now)
	if err != nil {
		return err
	}
	token, err := authtoken.Issue(cfg.TokenSubject, cfg.TokenTTL, issuerCfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
