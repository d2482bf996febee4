package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/arjunkn/watchsync/internal/config"
	syncer "github.com/arjunkn/watchsync/internal/sync"
)

// NewCLI creates the root CLI command
func NewCLI() *cli.Command {
	return &cli.Command{
		Name:        "watchsync",
		Usage:       "Offline-first watchlist manager with remote sync",
		Version:     "1.0.0",
		Description: "Track movies and series locally, queue changes while offline and reconcile them against the hosted store when connectivity returns.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			newAddCommand(),
			newListCommand(),
			newUpdateCommand(),
			newDeleteCommand(),
			newPasteCommand(),
			newSyncCommand(),
			newStatusCommand(),
			newWatchCommand(),
			newInsightsCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return fmt.Errorf("unknown command: %s", cmd.Args().First())
			}
			return cli.ShowAppHelp(cmd)
		},
	}
}

// RunCLI executes the CLI application
func RunCLI() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := NewCLI()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
		return fmt.Errorf("command failed")
	}

	return nil
}

// newAppFromCommand builds the App from the root flags. The caller owns the
// returned App and must Close it.
func newAppFromCommand(ctx context.Context, cmd *cli.Command) (*App, error) {
	verbose := cmd.Bool("verbose")
	syncer.Verbose = verbose
	logger := NewLogger(verbose)

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	return NewApp(ctx, cfg, logger)
}
