package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

func newInsightsCommand() *cli.Command {
	return &cli.Command{
		Name:      "insights",
		Usage:     "AI insights for an entry: next-release status or similar titles",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "recommend",
				Aliases: []string{"r"},
				Usage:   "fetch similar-title recommendations instead of release status",
			},
		},
		Action: runInsights,
	}
}

func runInsights(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if title == "" {
		return fmt.Errorf("usage: insights <title>")
	}

	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.insights == nil {
		return fmt.Errorf("no insights api key configured (set insights.api_key or WATCHSYNC_INSIGHTS_API_KEY)")
	}

	item, ok := findByTitle(app.engine.Items(), title)
	if !ok {
		return fmt.Errorf("no entry titled %q on the watchlist", title)
	}

	if cmd.Bool("recommend") {
		return app.printRecommendations(ctx, item)
	}
	return app.printReleaseInfo(ctx, item)
}

func findByTitle(items []watchlist.Item, title string) (watchlist.Item, bool) {
	normalized := strings.ToLower(strings.TrimSpace(title))
	for _, item := range items {
		if strings.ToLower(item.Title) == normalized {
			return item, true
		}
	}
	return watchlist.Item{}, false
}

func (a *App) printReleaseInfo(ctx context.Context, item watchlist.Item) error {
	a.log.Stage("Release status for %s", item.Title)

	info, err := a.insights.ReleaseInfo(ctx, item)
	if err != nil {
		return err
	}

	a.log.Info("Name:          %s", info.Name)
	a.log.Info("Status:        %s", info.Status)
	a.log.Info("Release date:  %s", info.ReleaseDate)
	a.log.Info("Expected date: %s", info.ExpectedDate)
	a.log.Info("Platform:      %s", info.Platform)
	return nil
}

func (a *App) printRecommendations(ctx context.Context, item watchlist.Item) error {
	a.log.Stage("Similar to %s", item.Title)

	recs, err := a.insights.Recommendations(ctx, item)
	if err != nil {
		return err
	}

	for i, rec := range recs {
		a.log.Info("%2d. %s (%s, %s)", i+1, rec.Title, rec.ItemType, rec.Genre)
		a.log.Info("    %s", rec.Description)
		a.log.Info("    Cast: %s | Platform: %s | Dub: %s", strings.Join(rec.Cast, ", "), rec.Platform, rec.Dub)
	}
	return nil
}
