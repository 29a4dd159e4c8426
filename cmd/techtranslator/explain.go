package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/techtranslator/internal/auth"
	"github.com/MrWong99/techtranslator/internal/explain"
)

var explainCmd = &cobra.Command{
	Use:   "explain <text>",
	Short: "Translate text once against the configured provider and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := runExplain(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func runExplain(ctx context.Context, text string) (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	logger, closeLog, err := newLogger(cfg.Server.LogLevel, cfg.Server.LogFile)
	if err != nil {
		return "", err
	}
	defer closeLog()
	slog.SetDefault(logger)

	providers, err := buildProviders(cfg)
	if err != nil {
		return "", err
	}
	authn, err := auth.New(cfg.Auth.Token)
	if err != nil {
		return "", err
	}
	svc, err := explain.New(explain.Config{
		Timeout:       cfg.Translator.Timeout,
		MaxInputRunes: cfg.Translator.MaxInputRunes,
		Temperature:   cfg.Translator.Temperature,
		ProviderName:  providers.LLMName,
	}, authn, providers.LLM)
	if err != nil {
		return "", err
	}

	exp, err := svc.Translate(ctx, explain.Request{Token: cfg.Auth.Token, TechText: text})
	if err != nil {
		slog.Debug("translation failed", "err", err)
		return "", errors.New(explain.UserMessage(err))
	}
	return exp.Format(), nil
}
