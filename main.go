package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"promptforge/internal/config"
)

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "promptforge",
		Short: "promptforge - turn a prompt into a runnable multi-file project",
		Long: `promptforge calls an LLM provider, streams progress to the client,
extracts the generated source files and keeps them per project for download.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd(cfg))
	rootCmd.AddCommand(generateCmd(cfg))
	rootCmd.AddCommand(exportCmd(cfg))
	rootCmd.AddCommand(tokenCmd(cfg))
	rootCmd.AddCommand(keysCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
