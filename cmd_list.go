package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/arjunkn/watchsync/internal/watchlist"
)

func newListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Show the watchlist from the local mirror",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "filter by type (series or movie)"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "filter by status"},
			&cli.BoolFlag{Name: "favorites", Usage: "only favorites"},
			&cli.BoolFlag{Name: "ids", Usage: "include entry ids"},
		},
		Action: runList,
	}
}

func runList(ctx context.Context, cmd *cli.Command) error {
	app, err := newAppFromCommand(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	items := app.engine.Items()

	if s := cmd.String("type"); s != "" {
		typ, err := parseItemType(s)
		if err != nil {
			return err
		}
		items = filterItems(items, func(i watchlist.Item) bool { return i.Type == typ })
	}
	if s := cmd.String("status"); s != "" {
		status, err := parseStatus(s)
		if err != nil {
			return err
		}
		items = filterItems(items, func(i watchlist.Item) bool { return i.Status == status })
	}
	if cmd.Bool("favorites") {
		items = filterItems(items, func(i watchlist.Item) bool { return i.Favorite })
	}

	if len(items) == 0 {
		app.log.Info("Watchlist is empty.")
		return nil
	}

	pending, err := app.engine.PendingSyncIDs()
	if err != nil {
		return err
	}
	pendingSet := make(map[string]struct{}, len(pending))
	for _, id := range pending {
		pendingSet[id] = struct{}{}
	}

	showIDs := cmd.Bool("ids")
	for _, item := range items {
		app.log.Info("%s", formatItemLine(item, pendingSet, showIDs))
	}
	app.log.Info("")
	app.log.Info("%d entries, %d with queued changes", len(items), len(pending))
	return nil
}

func filterItems(items []watchlist.Item, keep func(watchlist.Item) bool) []watchlist.Item {
	out := items[:0:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func formatItemLine(item watchlist.Item, pending map[string]struct{}, showID bool) string {
	var sb strings.Builder

	marker := " "
	if _, ok := pending[item.ID]; ok {
		marker = "*"
	}
	fmt.Fprintf(&sb, "%s %-40s %-10s %-10s %-9s", marker, item.Title, item.Type, item.SubType, item.Status)

	var progress []string
	if item.Season > 0 {
		progress = append(progress, fmt.Sprintf("S%d", item.Season))
	}
	if item.Episode > 0 {
		progress = append(progress, fmt.Sprintf("E%d", item.Episode))
	}
	if item.Part > 0 {
		progress = append(progress, fmt.Sprintf("P%d", item.Part))
	}
	fmt.Fprintf(&sb, " %-10s", strings.Join(progress, " "))

	if item.Favorite {
		sb.WriteString(" ♥")
	}
	if showID {
		fmt.Fprintf(&sb, "  %s", item.ID)
	}
	return sb.String()
}
