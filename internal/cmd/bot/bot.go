// Package bot parses bot command flags and launches the polling runtime.
package bot

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/battledinghy/battledinghy/internal/api"
	"github.com/battledinghy/battledinghy/internal/authtoken"
	"github.com/battledinghy/battledinghy/internal/dedup"
	"github.com/battledinghy/battledinghy/internal/game/service"
	"github.com/battledinghy/battledinghy/internal/game/storage/sqlite"
	"github.com/battledinghy/battledinghy/internal/ingest"
	entrypoint "github.com/battledinghy/battledinghy/internal/platform/cmd"
)

// Config holds bot command configuration.
type Config struct {
	DBPath           string        `env:"BATTLE_DINGHY_DB_PATH" envDefault:"data/battledinghy.db"`
	BotHandle        string        `env:"BATTLE_DINGHY_BOT_HANDLE" envDefault:"battle_dinghy"`
	PollInterval     time.Duration `env:"BATTLE_DINGHY_POLL_INTERVAL" envDefault:"60s"`
	GridSize         int           `env:"BATTLE_DINGHY_GRID_SIZE" envDefault:"5"`
	FirstTurn        string        `env:"BATTLE_DINGHY_FIRST_TURN" envDefault:"random"`
	AdminAddr        string        `env:"BATTLE_DINGHY_ADMIN_ADDR" envDefault:":8080"`
	CommandRetention time.Duration `env:"BATTLE_DINGHY_COMMAND_RETENTION" envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The bot SQLite database path")
	fs.StringVar(&cfg.BotHandle, "bot-handle", cfg.BotHandle, "The bot's own social handle")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Message polling interval")
	fs.IntVar(&cfg.GridSize, "grid-size", cfg.GridSize, "Board grid size")
	fs.StringVar(&cfg.FirstTurn, "first-turn", cfg.FirstTurn, "Opening shooter policy: random or challenger")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "Admin HTTP API listen address")
	fs.DurationVar(&cfg.CommandRetention, "command-retention", cfg.CommandRetention, "Processed command retention window")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the bot runtime: the message poller plus the admin HTTP API.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBot, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		engine, err := service.NewEngine(store, store, service.Options{
			GridSize:  cfg.GridSize,
			FirstTurn: service.FirstTurn(cfg.FirstTurn),
			Now:       time.Now,
		})
		if err != nil {
			return err
		}

		deduper := dedup.New(store, dedup.WithMaxAge(cfg.CommandRetention))

		hub := ingest.NewMemoryHub(cfg.BotHandle)
		poller, err := ingest.NewPoller(engine, deduper, hub, hub, ingest.Config{
			BotHandle: cfg.BotHandle,
			Interval:  cfg.PollInterval,
		})
		if err != nil {
			return err
		}

		verifier, err := authtoken.LoadVerifierConfigFromEnv(time.Now)
		if err != nil {
			log.Printf("operator endpoints locked: %v", err)
		}
		server := api.NewServer(engine, deduper, store, verifier)

		errCh := make(chan error, 2)
		go func() { errCh <- poller.Run(ctx) }()
		go func() { errCh <- server.Serve(ctx, cfg.AdminAddr) }()

		log.Printf("bot running as @%s, admin API on %s", cfg.BotHandle, cfg.AdminAddr)
		return <-errCh
	})
}
