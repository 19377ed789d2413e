package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "forensics",
	Short:   "Entropy-based media forensics scanner",
	Version: Version,
}

// Execute runs the CLI with a Ctrl+C / SIGTERM aware context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "forensics.yaml", "Path to the configuration file")
}
