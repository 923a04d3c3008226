package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/koyif/billing/internal/app"
	"github.com/koyif/billing/internal/config"
	"github.com/koyif/billing/pkg/logger"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "billing",
		Short:        "Course billing API",
		SilenceUsage: true,
	}

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, serve)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Migrate(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Load course and demo user fixtures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				return a.Seed(ctx)
			})
		},
	})

	return cmd
}

func withApp(cmd *cobra.Command, run func(context.Context, *app.App) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		log.Printf("error loading config: %v", err)
		return err
	}

	if err = logger.Initialize(cfg.LogLevel); err != nil {
		log.Printf("error starting logger: %v", err)
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Error("error creating app", logger.Error(err))
		return err
	}
	defer func() {
		logger.Log.Info("closing database connection")
		if err := a.Close(); err != nil {
			logger.Log.Error("error closing database connection", logger.Error(err))
		}
	}()

	if err = run(ctx, a); err != nil {
		logger.Log.Error("command failed", logger.String("command", cmd.Name()), logger.Error(err))
		return err
	}

	return nil
}

func serve(ctx context.Context, a *app.App) error {
	if err := a.Migrate(ctx); err != nil {
		return err
	}

	ongoingCtx, cancelOngoingRequests := context.WithCancel(context.Background())
	defer cancelOngoingRequests()

	server := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ongoingCtx
		},
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("starting server", logger.String("address", a.Config.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()

	logger.Log.Info("stopping server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("error shutting down server", logger.Error(err))
	}
	logger.Log.Info("server stopped")

	cancelOngoingRequests()
	logger.Log.Info("shutdown complete")
	return nil
}
