package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/barakah/internal/scheduler"
	"github.com/dukerupert/barakah/internal/server"
)

type ServeCmd struct{}

func (c *ServeCmd) Run(app *App) error {
	cfg, logger := app.Config, app.Logger

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := cfg.OpenDB()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.Info("database ready", "driver", db.Driver())

	srv := server.New(db, server.Options{
		CORSOrigins:  cfg.CORSOrigins,
		Photos:       cfg.PhotoStorage(),
		PrayerAPIURL: cfg.PrayerAPIURL,
		Location:     loc,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.RateLimiter().Run(ctx, 5*time.Minute)

	if cfg.Scheduler {
		sched := scheduler.New(loc, logger)
		if err := sched.RegisterJobs(srv.JobDeps()); err != nil {
			return fmt.Errorf("register jobs: %w", err)
		}
		// capture today's baseline for anyone created since midnight
		if err := sched.RunNow(scheduler.JobMaterializeEntries); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("scheduler started", "next_materialize", sched.Next(scheduler.JobMaterializeEntries))
	}

	// No WriteTimeout: it would cut long-lived /ws connections.
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("barakah listening", "addr", httpServer.Addr, "tz", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
