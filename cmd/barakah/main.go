package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/barakah/internal/config"
	"github.com/dukerupert/barakah/internal/logging"
)

var version = "dev"

type CLI struct {
	config.Config `embed:""`

	Version kong.VersionFlag `help:"Print version and exit."`

	Serve       ServeCmd       `cmd:"" default:"1" help:"Run the HTTP API (default)."`
	Migrate     MigrateCmd     `cmd:"" help:"Apply database migrations and exit."`
	Leaderboard LeaderboardCmd `cmd:"" help:"Print a family's leaderboard as JSON."`
	Snapshot    SnapshotCmd    `cmd:"" help:"Print a family's progress for one date as JSON."`
}

// App is passed to every command's Run method.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("barakah"),
		kong.Description("Family Ramadan habit tracker."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	app := &App{
		Config: &cli.Config,
		Logger: logging.Setup(cli.LogLevel, cli.LogFile),
		Out:    os.Stdout,
	}

	if err := ctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
