package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/arjunkn/watchsync/internal/paste"
)

func newPasteCommand() *cli.Command {
	return &cli.Command{
		Name:      "paste",
		Usage:     "Parse free text into entries and add them in one batch",
		ArgsUsage: "[file]",
		Description: "Reads lines from the given file (or stdin), extracts titles with progress " +
			"markers and keyword hints, and adds everything that is not already on the list. " +
			"Header lines like \"Anime Old\" set defaults for the lines below them.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "show what would be added without adding",
			},
		},
		Action: runPaste,
	}
}

func runPaste(ctx context.Context, cmd *cli.Command) error {
	var (
		data []byte
		err  error
	)
	if cmd.Args().Present() {
		data, err = os.ReadFile(cmd.Args().First())
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	result := paste.Parse(string(data), app.engine.Items())

	for _, line := range result.Unparsable {
		app.log.Warn("Could not parse: %q", line)
	}
	for _, item := range result.Duplicates {
		app.log.Info("Skipping duplicate: %s (%s)", item.Title, item.Type)
	}

	if len(result.ToAdd) == 0 {
		app.log.Info("Nothing new to add.")
		return nil
	}

	for _, item := range result.ToAdd {
		app.log.Info("  + %s (%s, %s)", item.Title, item.Type, item.Status)
	}

	if cmd.Bool("dry-run") {
		app.log.Info("Dry run: %d entries not added.", len(result.ToAdd))
		return nil
	}

	app.probeConnectivity(ctx)

	ids, err := app.engine.AddMultipleItems(ctx, result.ToAdd)
	if err != nil {
		return err
	}
	app.log.InfoSuccess("Added %d entries (%d duplicates skipped, %d unparsable).",
		len(ids), len(result.Duplicates), len(result.Unparsable))
	return nil
}
