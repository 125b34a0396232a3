package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/upb/room-qa/app"
	"github.com/upb/room-qa/config"
	"github.com/upb/room-qa/internal/observability"
	"github.com/upb/room-qa/repositories/postgres"
	"github.com/upb/room-qa/routes"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "room-qa",
		Usage: "answers questions about recorded rooms",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "apply pending migrations before serving",
					},
				},
				Action: serveAction,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "roll back every migration instead",
					},
				},
				Action: migrateAction,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(context.Background()); err != nil {
			logger.Error("failed to close dependencies", zap.Error(err))
		}
	}()

	if cmd.Bool("migrate") && deps.DB != nil {
		if err := deps.DB.Migrate(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("room-qa listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func migrateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.StoreBackend != config.StorePostgres {
		return fmt.Errorf("migrate requires STORE_BACKEND=%s", config.StorePostgres)
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("down") {
		return db.MigrateDown(ctx)
	}
	return db.Migrate(ctx)
}
