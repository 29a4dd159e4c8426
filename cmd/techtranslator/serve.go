package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrWong99/techtranslator/internal/app"
	"github.com/MrWong99/techtranslator/internal/config"
	"github.com/MrWong99/techtranslator/internal/observe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.Server.LogLevel, cfg.Server.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("techtranslator starting",
		"version", version,
		"config", configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	printStartupSummary(cfg)

	slog.Info("server ready, press Ctrl+C to shut down")
	if err := application.Run(ctx); err != nil {
		return err
	}
	slog.Info("goodbye")
	return nil
}

// newApplication initialises telemetry, builds the configured provider and
// assembles the App. Telemetry is flushed when the App shuts down.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.App, error) {
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	metrics, err := observe.NewMetrics(tel.MeterProvider)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init metrics: %w", err), tel.Shutdown(ctx))
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	application, err := app.New(cfg, providers,
		app.WithVersion(version),
		app.WithLogger(logger),
		app.WithMetrics(metrics),
		app.WithMetricsHandler(tel.MetricsHandler),
		app.WithCloser(tel.Shutdown),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("initialise application: %w", err), tel.Shutdown(ctx))
	}
	return application, nil
}

// buildProviders instantiates the configured LLM through the registry.
func buildProviders(cfg *config.Config) (*app.Providers, error) {
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg.Translator.Timeout)

	entry := cfg.Providers.LLM
	p, err := reg.CreateLLM(entry)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", entry.Name, "model", entry.Model)
	return &app.Providers{LLM: p, LLMName: entry.Name}, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║     techtranslator, startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("LLM", providerLabel(cfg.Providers.LLM))
	printRow("Listen addr", cfg.Server.ListenAddr)
	printRow("MCP path", cfg.Server.MCPPath)
	printRow("Timeout", cfg.Translator.Timeout.String())
	if cfg.Server.TLS != nil && cfg.Server.TLS.CertFile != "" {
		printRow("TLS", "enabled")
	} else {
		printRow("TLS", "(disabled)")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func providerLabel(e config.ProviderEntry) string {
	if e.Model == "" {
		return e.Name
	}
	return e.Name + " / " + e.Model
}

func printRow(label, value string) {
	if r := []rune(value); len(r) > 19 {
		value = string(r[:18]) + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", label, value)
}
