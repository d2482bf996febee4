package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func newDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one or more entries by id",
		ArgsUsage: "<id> [id...]",
		Action:    runDelete,
	}
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("usage: delete <id> [id...]")
	}

	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	app.probeConnectivity(ctx)

	if len(ids) == 1 {
		return app.engine.DeleteItem(ctx, ids[0])
	}
	return app.engine.DeleteMultipleItems(ctx, ids)
}
