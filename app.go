package main

import (
	"context"
	"fmt"

	"github.com/arjunkn/watchsync/internal/config"
	"github.com/arjunkn/watchsync/internal/insights"
	"github.com/arjunkn/watchsync/internal/remote"
	"github.com/arjunkn/watchsync/internal/store"
	syncer "github.com/arjunkn/watchsync/internal/sync"
)

// App wires the durable store, the remote client and the sync engine for one
// command invocation.
type App struct {
	config config.Config
	log    *Logger

	store    *store.Store
	remote   *remote.Client
	engine   *syncer.Engine
	listener *remote.Listener
	insights *insights.Client
}

// NewApp creates an App with all clients configured and the local mirror
// loaded into the engine.
func NewApp(ctx context.Context, cfg config.Config, logger *Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	logger.Debug("Local store opened at %s", cfg.StorePath)

	remoteClient := remote.NewClient(ctx, remote.Config{
		BaseURL:    cfg.Remote.URL,
		APIKey:     cfg.Remote.APIKey,
		Collection: cfg.Remote.Collection,
		Timeout:    cfg.Remote.TimeoutDuration(),
		MaxRetries: cfg.Remote.MaxRetries,
		Debugf:     logger.DebugHTTP,
	})
	logger.Debug("Remote client created for %s", cfg.Remote.URL)

	notify := func(message string, isError bool) {
		if isError {
			logger.Error("%s", message)
			return
		}
		logger.InfoSuccess("%s", message)
	}

	engine := syncer.NewEngine(st, remoteClient, cfg.OwnerID, notify)
	if err := engine.Load(); err != nil {
		st.Close()
		return nil, err
	}

	app := &App{
		config: cfg,
		log:    logger,
		store:  st,
		remote: remoteClient,
		engine: engine,
	}

	if cfg.Remote.RealtimeWS != "" {
		app.listener = remote.NewListener(cfg.Remote.RealtimeWS, cfg.Remote.APIKey, logger.Debug)
	}

	if cfg.Insights.APIKey != "" {
		app.insights = insights.NewClient(insights.Config{
			APIKey:     cfg.Insights.APIKey,
			Model:      cfg.Insights.Model,
			Timeout:    cfg.Insights.TimeoutDuration(),
			MaxRetries: cfg.Insights.MaxRetries,
			Debugf:     logger.Debug,
		}, st)
	}

	return app, nil
}

// Close releases the local store.
func (a *App) Close() error {
	return a.store.Close()
}

// probeConnectivity pings the remote store and records the result on the
// engine. Coming back online triggers a reconciliation pass.
func (a *App) probeConnectivity(ctx context.Context) bool {
	err := a.remote.Ping(ctx)
	online := err == nil
	if !online {
		a.log.Debug("Connectivity probe failed: %v", err)
	}
	a.engine.SetOnline(ctx, online)
	return online
}
