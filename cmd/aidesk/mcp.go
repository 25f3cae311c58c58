package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/ai-desk/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol
	a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	srv, err := mcp.NewServer(a.router,
		mcp.WithServerInfo("ai-desk", version),
		mcp.WithLogger(a.logger.With("component", "mcp")),
	)
	if err != nil {
		return err
	}
	return srv.RunStdio(ctx)
}
