package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func newStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show connectivity, queued changes and local mirror state",
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	app.log.Info("Watchsync Status")
	app.log.Info("================")

	if err := app.remote.Ping(ctx); err != nil {
		app.log.Warn("Remote:    unreachable (%v)", err)
	} else {
		app.log.InfoSuccess("Remote:    reachable")
	}

	items := app.engine.Items()
	app.log.Info("Mirror:    %d entries", len(items))

	actions, err := app.store.ListActions()
	if err != nil {
		return err
	}
	pending, err := app.engine.PendingSyncIDs()
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		app.log.InfoSuccess("Queue:     empty")
	} else {
		app.log.Warn("Queue:     %d actions pending for %d entries", len(actions), len(pending))
		for _, action := range actions {
			app.log.Info("  #%d %s %v", action.ID, action.Kind, action.EntityIDs())
		}
	}

	app.log.Info("")
	app.log.Info("Store file: %s", app.config.StorePath)
	return nil
}
