package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

func newUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields of one entry; only the flags given are touched",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "new title"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "series or movie"},
			&cli.StringFlag{Name: "subtype", Usage: "new sub-type"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "watch, waiting, completed, stopped"},
			&cli.IntFlag{Name: "season", Usage: "season number"},
			&cli.IntFlag{Name: "episode", Usage: "episode number"},
			&cli.IntFlag{Name: "part", Usage: "part number"},
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "sub or dub"},
			&cli.StringFlag{Name: "release", Usage: "new or old"},
			&cli.BoolFlag{Name: "favorite", Usage: "favorite on/off"},
		},
		Action: runUpdate,
	}
}

func runUpdate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: update <id> [flags]")
	}
	id := cmd.Args().First()

	updates, err := updatesFromFlags(cmd)
	if err != nil {
		return err
	}

	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	app.probeConnectivity(ctx)

	if err := app.engine.UpdateItem(ctx, id, updates); err != nil {
		return err
	}
	return nil
}

// updatesFromFlags builds the partial update from the flags that were
// explicitly set, so an untouched flag never overwrites a field.
func updatesFromFlags(cmd *cli.Command) (watchlist.Update, error) {
	var updates watchlist.Update
	touched := false

	if cmd.IsSet("title") {
		title := cmd.String("title")
		updates.Title = &title
		touched = true
	}
	if cmd.IsSet("type") {
		typ, err := parseItemType(cmd.String("type"))
		if err != nil {
			return watchlist.Update{}, err
		}
		updates.Type = &typ
		touched = true
	}
	if cmd.IsSet("subtype") {
		subType, err := parseSubType(cmd.String("subtype"))
		if err != nil {
			return watchlist.Update{}, err
		}
		updates.SubType = &subType
		touched = true
	}
	if cmd.IsSet("status") {
		status, err := parseStatus(cmd.String("status"))
		if err != nil {
			return watchlist.Update{}, err
		}
		updates.Status = &status
		touched = true
	}
	if cmd.IsSet("season") {
		season := int(cmd.Int("season"))
		updates.Season = &season
		touched = true
	}
	if cmd.IsSet("episode") {
		episode := int(cmd.Int("episode"))
		updates.Episode = &episode
		touched = true
	}
	if cmd.IsSet("part") {
		part := int(cmd.Int("part"))
		updates.Part = &part
		touched = true
	}
	if cmd.IsSet("language") {
		language, err := parseLanguage(cmd.String("language"))
		if err != nil {
			return watchlist.Update{}, err
		}
		updates.Language = &language
		touched = true
	}
	if cmd.IsSet("release") {
		release, err := parseRelease(cmd.String("release"))
		if err != nil {
			return watchlist.Update{}, err
		}
		updates.ReleaseType = &release
		touched = true
	}
	if cmd.IsSet("favorite") {
		favorite := cmd.Bool("favorite")
		updates.Favorite = &favorite
		touched = true
	}

	if !touched {
		return watchlist.Update{}, fmt.Errorf("nothing to update: pass at least one field flag")
	}
	return updates, nil
}
