package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sah21il/LoopAIProj/internal/config"
	"github.com/sah21il/LoopAIProj/internal/logging"
	"github.com/sah21il/LoopAIProj/internal/scheduler"
	"github.com/sah21il/LoopAIProj/internal/server"
	"github.com/sah21il/LoopAIProj/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")

	// Flags override both defaults and the config file.
	var flagAddr, flagLogLevel, flagLogFormat, flagDB string
	flag.StringVar(&flagAddr, "addr", "", "Listen address")
	flag.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
	flag.StringVar(&flagDB, "db", "", "SQLite database path")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.DBPath)

	dispatcher := scheduler.NewDispatcher(st, scheduler.DefaultConfig(), logger)

	srv := server.New(cfg, st, dispatcher, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop the dispatch loop before the HTTP server so no new batches
	// start dispatching during shutdown.
	if err := dispatcher.Stop(); err != nil {
		logger.Error("dispatcher stop error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
