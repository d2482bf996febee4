package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/arjunkn/watchsync/internal/remote"
)

func newWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run continuously: probe connectivity, reconcile and follow the live change feed",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Connectivity probe interval (overrides config)",
			},
		},
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	interval := cmd.Duration("interval")
	if interval == 0 {
		interval = app.config.Watch.PollIntervalDuration()
	}
	if interval < time.Second {
		return fmt.Errorf("interval must be at least 1s (got %v)", interval)
	}

	app.log.Stage("Watching (probe every %v, Ctrl+C to stop)...", interval)
	app.probeConnectivity(ctx)

	if app.listener != nil {
		go app.runListener(ctx)
	} else {
		app.log.Warn("No realtime_ws configured; live changes are picked up only on reconcile.")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			app.log.Info("Shutting down.")
			return nil
		case <-ticker.C:
			app.probeConnectivity(ctx)
		}
	}
}

// runListener follows the websocket change feed, reconnecting with a fixed
// delay until the context ends. Events only apply while the engine believes
// it is online.
func (a *App) runListener(ctx context.Context) {
	const reconnectDelay = 5 * time.Second

	for {
		err := a.listener.Listen(ctx, a.config.OwnerID, func(event remote.ChangeEvent) {
			if !a.engine.Online() {
				return
			}
			a.engine.HandleChange(event)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			a.log.Warn("Change feed disconnected: %v (reconnecting in %v)", err, reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}
