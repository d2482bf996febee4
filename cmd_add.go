package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

func newAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add one entry to the watchlist",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "series or movie", Value: "series"},
			&cli.StringFlag{Name: "subtype", Usage: "anime, bollywood, hollywood, asian, turkish, tollywood, kollywood, sandalwood"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "watch, waiting, completed, stopped", Value: "watch"},
			&cli.IntFlag{Name: "season", Usage: "season number"},
			&cli.IntFlag{Name: "episode", Usage: "episode number"},
			&cli.IntFlag{Name: "part", Usage: "part number"},
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "sub or dub"},
			&cli.StringFlag{Name: "release", Usage: "new or old"},
			&cli.BoolFlag{Name: "favorite", Usage: "mark as favorite"},
		},
		Action: runAdd,
	}
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if title == "" {
		return fmt.Errorf("usage: add <title>")
	}

	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	draft := watchlist.NewItem{
		Title:    title,
		Season:   int(cmd.Int("season")),
		Episode:  int(cmd.Int("episode")),
		Part:     int(cmd.Int("part")),
		Favorite: cmd.Bool("favorite"),
	}
	if draft.Type, err = parseItemType(cmd.String("type")); err != nil {
		return err
	}
	if draft.Status, err = parseStatus(cmd.String("status")); err != nil {
		return err
	}
	if s := cmd.String("subtype"); s != "" {
		if draft.SubType, err = parseSubType(s); err != nil {
			return err
		}
	}
	if s := cmd.String("language"); s != "" {
		if draft.Language, err = parseLanguage(s); err != nil {
			return err
		}
	}
	if s := cmd.String("release"); s != "" {
		if draft.ReleaseType, err = parseRelease(s); err != nil {
			return err
		}
	}

	app.probeConnectivity(ctx)

	id, err := app.engine.AddItem(ctx, draft)
	if err != nil {
		return err
	}
	app.log.Info("Added %q (id %s)", watchlist.FormatTitle(title), id)
	return nil
}

func parseItemType(value string) (watchlist.ItemType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "series", "tv", "tv series":
		return watchlist.TypeSeries, nil
	case "movie", "movies", "film":
		return watchlist.TypeMovies, nil
	}
	return "", fmt.Errorf("unknown type %q (want series or movie)", value)
}

func parseSubType(value string) (watchlist.SubType, error) {
	lower := strings.ToLower(strings.TrimSpace(value))
	for _, st := range watchlist.SubTypes {
		if strings.ToLower(string(st)) == lower {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown subtype %q", value)
}

func parseStatus(value string) (watchlist.Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "watch":
		return watchlist.StatusWatch, nil
	case "waiting":
		return watchlist.StatusWaiting, nil
	case "completed", "complete":
		return watchlist.StatusCompleted, nil
	case "stopped", "stop":
		return watchlist.StatusStopped, nil
	}
	return "", fmt.Errorf("unknown status %q (want watch, waiting, completed or stopped)", value)
}

func parseLanguage(value string) (watchlist.Language, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sub":
		return watchlist.LanguageSub, nil
	case "dub":
		return watchlist.LanguageDub, nil
	}
	return "", fmt.Errorf("unknown language %q (want sub or dub)", value)
}

func parseRelease(value string) (watchlist.ReleaseType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "new":
		return watchlist.ReleaseNew, nil
	case "old":
		return watchlist.ReleaseOld, nil
	}
	return "", fmt.Errorf("unknown release %q (want new or old)", value)
}
