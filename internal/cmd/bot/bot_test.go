package bot

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/battledinghy.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.BotHandle != "battle_dinghy" {
		t.Fatalf("bot handle = %q", cfg.BotHandle)
	}
	if cfg.PollInterval != 60*time.Second {
		t.Fatalf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.GridSize != 5 {
		t.Fatalf("grid size = %d", cfg.GridSize)
	}
	if cfg.FirstTurn != "random" {
		t.Fatalf("first turn = %q", cfg.FirstTurn)
	}
}

func TestParseConfig_EnvAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
	t.Setenv("BATTLE_DINGHY_DB_PATH", "/tmp/env.db")
	t.Setenv("BATTLE_DINGHY_POLL_INTERVAL", "15s")

	cfg, err := ParseConfig(fs, []string{"-bot-handle", "dinghy_test", "-grid-size", "6"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("db path = %q, want env value", cfg.DBPath)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("poll interval = %v, want 15s", cfg.PollInterval)
	}
	if cfg.BotHandle != "dinghy_test" {
		t.Fatalf("bot handle = %q, want flag value", cfg.BotHandle)
	}
	if cfg.GridSize != 6 {
		t.Fatalf("grid size = %d, want flag value", cfg.GridSize)
	}
}
