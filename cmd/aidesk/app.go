package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sweetpotato0/ai-desk/config"
	"github.com/sweetpotato0/ai-desk/contrib/provider/backend"
	"github.com/sweetpotato0/ai-desk/pkg/logging"
	"github.com/sweetpotato0/ai-desk/pkg/telemetry"
	"github.com/sweetpotato0/ai-desk/router"
)

// app holds what both serve and mcp need.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	router   *router.Router
	shutdown func(context.Context) error
}

// loadConfig reads configuration and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(sliceFlag(cmd, "env-file")...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p := stringFlag(cmd, "provider"); p != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(p))
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// stringFlag and sliceFlag look a flag up on cmd or any parent.
func stringFlag(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

func sliceFlag(cmd *cobra.Command, name string) []string {
	if f := cmd.Flag(name); f != nil {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			return sv.GetSlice()
		}
	}
	return nil
}

// newApp wires logging, telemetry and the router. Logs and spans go to out.
func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	logger := logging.New(out, os.Getenv("AIDESK_LOG_FORMAT"), os.Getenv("AIDESK_LOG_LEVEL"))
	logging.SetLogger(logger)

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceVersion: version,
		Environment:    cfg.Environment,
		Disable:        cfg.Telemetry.Disable,
		Endpoint:       cfg.Telemetry.Endpoint,
		Writer:         out,
		Logger:         logger.With("component", "telemetry"),
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	factory, err := backend.NewFactory(cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	r := router.New(factory,
		router.WithLogger(logger.With("component", "router")),
		router.WithTimeout(cfg.RequestTimeout),
		router.WithMetrics(metrics),
	)

	logger.Info("router ready", "provider", cfg.Provider, "environment", cfg.Environment)
	return &app{cfg: cfg, logger: logger, router: r, shutdown: shutdown}, nil
}

func (a *app) close() {
	if err := a.shutdown(context.Background()); err != nil {
		a.logger.Error("shutdown failed", "error", err)
	}
}
