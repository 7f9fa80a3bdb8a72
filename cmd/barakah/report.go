package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/tracker"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(app *App) error {
	dsn, err := app.Config.DSN()
	if err != nil {
		return err
	}
	db, err := database.Connect(app.Config.DBDriver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	v, err := db.MigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "schema at version %d\n", v)
	return nil
}

type LeaderboardCmd struct {
	Family int64 `required:"" help:"Family ID."`
}

func (c *LeaderboardCmd) Run(app *App) error {
	svc, closeDB, err := openTracker(app)
	if err != nil {
		return err
	}
	defer closeDB()

	board, err := svc.Leaderboard(context.Background(), c.Family)
	if err != nil {
		return err
	}
	return printJSON(app, board)
}

type SnapshotCmd struct {
	Family int64  `required:"" help:"Family ID."`
	Date   string `help:"Date as YYYY-MM-DD; defaults to today."`
}

func (c *SnapshotCmd) Run(app *App) error {
	svc, closeDB, err := openTracker(app)
	if err != nil {
		return err
	}
	defer closeDB()

	snap, err := svc.FamilySnapshot(context.Background(), c.Family, c.Date)
	if err != nil {
		return err
	}
	return printJSON(app, snap)
}

func openTracker(app *App) (*tracker.Service, func(), error) {
	loc, err := app.Config.Location()
	if err != nil {
		return nil, nil, err
	}
	db, err := app.Config.OpenDB()
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	svc := tracker.New(db, app.Logger, tracker.WithLocation(loc))
	return svc, func() { db.Close() }, nil
}

func printJSON(app *App, v any) error {
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
