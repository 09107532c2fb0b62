// Package main provides the operator maintenance CLI.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	admincmd "github.com/battledinghy/battledinghy/internal/cmd/admin"
	"github.com/battledinghy/battledinghy/internal/platform/config"
)

func main() {
	cfg, args, err := admincmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ADMIN] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := admincmd.Run(ctx, cfg, args, os.Stdout); err != nil {
		config.Exitf("admin: %v", err)
	}
}
