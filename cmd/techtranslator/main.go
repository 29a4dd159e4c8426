// Command techtranslator serves the tech_translator MCP tool, which rewrites
// technical text as plain English, a TL;DR, an ELI5 and a diagram.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/techtranslator/internal/config"
)

var version = "dev"

// Flags shared by serve and explain.
var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "techtranslator",
	Short: "techtranslator - explain technical text in plain English",
	Long: `techtranslator is an MCP server exposing a single tool, tech_translator,
that turns jargon into four sections: Plain English, TL;DR, ELI5 and Diagram.

  techtranslator serve                        Start the MCP server
  techtranslator explain "eventual consistency"  Translate once and print
  techtranslator version                      Print the version`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "techtranslator", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "techtranslator:", err)
		os.Exit(1)
	}
}

// loadConfig reads the dotenv file, then the config file and environment.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}
	return config.Load(configPath)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger builds a text logger on stderr. When logFile is set every line is
// also appended to it; the returned closer releases the file.
func newLogger(level config.LogLevel, logFile string) (*slog.Logger, func() error, error) {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = f.Close
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}
