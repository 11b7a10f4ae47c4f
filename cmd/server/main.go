package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/whack-a-mole-backend/internal/config"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/engine"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/httpapi"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/hub"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/lobby"
	"github.com/DoyleJ11/whack-a-mole-backend/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		// stderr sync fails with EINVAL on some platforms; it is not worth reporting
		if syncErr := log.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.EINVAL) {
			err = multierr.Append(err, syncErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, lobby.Options{
		Rules:         cfg.Rules,
		Rand:          engine.NewRandSource(cfg.Seed),
		TimerInterval: cfg.TimerInterval,
		SpawnInterval: cfg.SpawnInterval,
		Logger:        log,
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, log, cfg.KeepAlive),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		default: // hub already stopped with ctx
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
