package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aidesk",
		Short: "ai-desk AI request router",
		Long:  "ai-desk routes writing, idea and focus requests to an upstream language model.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}

	root.PersistentFlags().StringSlice("env-file", nil, "Dotenv files to load (default .env.local, .env)")
	root.PersistentFlags().String("provider", "", "Backend provider: openrouter, anthropic or gemini")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("aidesk version %s\n", version))

	root.AddCommand(newServeCmd())
	root.AddCommand(newMCPCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aidesk version %s\n", version)
		},
	}
}
