package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for DeepEye.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepeye",
		Short: "Web reconnaissance and vulnerability scanner",
		Long: `DeepEye is a web reconnaissance and vulnerability scanning tool.
It crawls a target site, runs passive security checks against every fetched
page, and reports findings ranked by severity.

Optional AI providers (OpenAI, Claude, Grok, Ollama) can annotate findings
with impact analysis and remediation guidance.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
