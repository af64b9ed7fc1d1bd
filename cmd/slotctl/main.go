package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/slotbook-api/internal/cli"
	"github.com/noah-isme/slotbook-api/pkg/config"
	"github.com/noah-isme/slotbook-api/pkg/database"
	"github.com/noah-isme/slotbook-api/pkg/logger"
)

var CLI struct {
	Version kong.VersionFlag

	Migrate cli.MigrateCmd `cmd:"" help:"Apply database migrations."`
	Seed    cli.SeedCmd    `cmd:"" help:"Create a demo host with a default schedule and sample event types."`
	Token   cli.TokenCmd   `cmd:"" help:"Issue a bearer token for a host."`
	Preview cli.PreviewCmd `cmd:"" help:"Print the slots offered for an event type on one date."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("slotctl"),
		kong.Description("Operator tooling for the slotbook API"),
		kong.UsageOnError(),
		kong.Vars{"version": "v1.0.0"},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Ctx:    runCtx,
		Out:    os.Stdout,
		Logger: logr,
		Config: cfg,
		Open: func() (*sqlx.DB, error) {
			return database.NewPostgres(cfg.Database)
		},
	}

	err = ctx.Run(appCtx)
	_ = appCtx.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
