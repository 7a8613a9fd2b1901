package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/store"
	"github.com/existflow/sitetask/server"
)

func main() {
	configPath := flag.String("config", "", "Path to sitetask.yaml")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:    logger.ParseLevel(cfg.Log.Level),
		FilePath: cfg.Log.File,
		Console:  cfg.Log.Console,
		JSON:     strings.EqualFold(cfg.Log.Format, "json"),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := run(cfg); err != nil {
		logger.Error("Server failed", logger.Err(err))
		logger.Close()
		os.Exit(1)
	}
}

func openStore(cfg *config.ServerConfig) (store.Store, error) {
	if cfg.Store == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemory(), nil
	}
	return store.NewPostgres(cfg.DatabaseURL)
}

func run(cfg *config.ServerConfig) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, st)
	if err != nil {
		_ = st.Close()
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("Error closing server", logger.Err(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = srv.Bootstrap(ctx)
	cancel()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("SiteTask server starting", logger.F("addr", cfg.Addr), logger.F("store", cfg.Store))
		errCh <- srv.Start(cfg.Addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case s := <-sig:
		logger.Info("Shutting down", logger.F("signal", s.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
