package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/ai-desk/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default AIDESK_ADDR or :3000)")
	cmd.Flags().String("cors-origin", "", "Allowed CORS origin (default AIDESK_CORS_ORIGIN or *)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr := stringFlag(cmd, "addr"); addr != "" {
		cfg.Addr = addr
	}
	if origin := stringFlag(cmd, "cors-origin"); origin != "" {
		cfg.CORSOrigin = origin
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewServer(server.ServerConfig{
		Router:      a.router,
		CORSOrigin:  cfg.CORSOrigin,
		MaxBody:     cfg.MaxBodyBytes,
		Version:     version,
		Environment: cfg.Environment,
		Logger:      a.logger.With("component", "server"),
	})
	return srv.ListenAndServe(ctx, cfg.Addr)
}
