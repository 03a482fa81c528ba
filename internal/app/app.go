// Package app assembles the server: configuration, logging, storage,
// the session engine, the connection registry, and the HTTP surface,
// run together until the context ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"umbral-nexus/server/internal/balance"
	"umbral-nexus/server/internal/config"
	"umbral-nexus/server/internal/connect"
	"umbral-nexus/server/internal/game"
	servernet "umbral-nexus/server/internal/net"
	"umbral-nexus/server/internal/storage"
	sqlitestore "umbral-nexus/server/internal/storage/sqlite"
	"umbral-nexus/server/logging"
	loggingSinks "umbral-nexus/server/logging/sinks"
)

// Run wires the server together and blocks until ctx is cancelled or a
// component fails.
func Run(ctx context.Context, cfg config.Config) error {
	logger := log.Default()

	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.LogSinks
	var namedSinks []logging.NamedSink
	if logCfg.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") {
		file, err := os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open json log %s: %w", cfg.LogJSONPath, err)
		}
		defer file.Close()
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(file, logCfg.JSON.FlushInterval),
		})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logCfg, namedSinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	catalog := balance.Default()
	if cfg.BalancePath != "" {
		if catalog, err = balance.Load(cfg.BalancePath); err != nil {
			return fmt.Errorf("load balance tables: %w", err)
		}
	}

	var store storage.SessionStore = storage.NewMemoryStore()
	if cfg.DatabasePath != "" {
		sqliteStore, err := sqlitestore.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	registry := connect.NewRegistry(connect.Config{
		Publisher:        router,
		Logger:           logger,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
		SweepInterval:    cfg.SweepInterval,
	})
	manager := game.NewManager(game.Config{
		Catalog:     catalog,
		Store:       store,
		Broadcaster: registry,
		Publisher:   router,
		Logger:      logger,
		FloorRadius: cfg.FloorRadius,
	})

	handler := servernet.NewHandler(manager, registry, servernet.HandlerConfig{Logger: logger})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := registry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
