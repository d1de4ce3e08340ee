package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	budgetnotifier "github.com/donaldgifford/gcp-budget-notifier"
	"github.com/donaldgifford/gcp-budget-notifier/internal/api"
	"github.com/donaldgifford/gcp-budget-notifier/internal/app"
	"github.com/donaldgifford/gcp-budget-notifier/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var functions bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the Pub/Sub push server",
		Long: "Start an HTTP server that accepts Pub/Sub push deliveries on\n" +
			"/api/v1/pubsub/push. With --functions, serve the NotifySlack CloudEvent\n" +
			"function through the Functions Framework instead, as Cloud Run functions do.",
		Example: `  budget-notifier serve --config config.yaml
  PORT=8080 budget-notifier serve --functions`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if functions {
				return runFunctions()
			}
			return runServe(cmd.Context())
		},
	}

	c.Flags().BoolVar(&functions, "functions", false, "serve the CloudEvent function via the Functions Framework")

	return c
}

func runServe(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(ctx, cfg, app.WithVersion(Version))
	if err != nil {
		return fmt.Errorf("initializing runtime: %w", err)
	}
	log := rt.Log

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			log.Warn("closing runtime", "error", err)
		}
	}()

	e := api.NewServer(api.Config{
		Engine:   rt.Engine,
		State:    rt.Store,
		Log:      log,
		Resource: cfg.Server.Resource,
		Version:  Version,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	log.Info("starting server", "addr", addr, "resource", cfg.Server.Resource, "version", Version)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func runFunctions() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if os.Getenv("FUNCTION_TARGET") == "" {
		if err := os.Setenv("FUNCTION_TARGET", budgetnotifier.EntryPoint); err != nil {
			return err
		}
	}
	if path := viper.GetString("config"); path != "" {
		if err := os.Setenv(budgetnotifier.ConfigEnv, path); err != nil {
			return err
		}
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting functions framework",
		"target", os.Getenv("FUNCTION_TARGET"),
		"port", cfg.Server.Port,
	)

	if err := funcframework.StartHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)); err != nil {
		return fmt.Errorf("functions framework: %w", err)
	}
	return nil
}
