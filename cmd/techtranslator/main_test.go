package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/techtranslator/internal/config"
	"github.com/MrWong99/techtranslator/pkg/provider/llm/anyllm"
)

// TestOptString covers nil maps, missing keys and non-string values.
func TestOptString(t *testing.T) {
	t.Parallel()
	opts := map[string]any{"title": "tt", "n": 3}
	tests := []struct {
		opts map[string]any
		key  string
		want string
	}{
		{nil, "title", ""},
		{opts, "title", "tt"},
		{opts, "missing", ""},
		{opts, "n", ""},
	}
	for _, tc := range tests {
		if got := optString(tc.opts, tc.key); got != tc.want {
			t.Errorf("optString(%v, %q) = %q, want %q", tc.opts, tc.key, got, tc.want)
		}
	}
}

// TestRegisterBuiltinProviders checks every backend name is registered.
func TestRegisterBuiltinProviders(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, config.DefaultTimeout)

	names := reg.LLMNames()
	for _, want := range append([]string{"openrouter"}, anyllm.SupportedBackends...) {
		if !slices.Contains(names, want) {
			t.Errorf("provider %q not registered; have %v", want, names)
		}
	}
}

// TestBuildProviders_OpenRouter builds the default provider from a key.
func TestBuildProviders_OpenRouter(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Providers.LLM.APIKey = "sk-or-test"
	cfg.Providers.LLM.Options = map[string]any{"referer": "https://example.com"}

	ps, err := buildProviders(cfg)
	if err != nil {
		t.Fatalf("buildProviders: %v", err)
	}
	if ps.LLM == nil || ps.LLMName != "openrouter" {
		t.Errorf("got %+v, want an openrouter provider", ps)
	}
}

// TestBuildProviders_Errors covers a missing key and an unknown name.
func TestBuildProviders_Errors(t *testing.T) {
	t.Parallel()
	noKey := config.Default()
	if _, err := buildProviders(noKey); err == nil {
		t.Error("expected error for openrouter without an API key")
	}

	unknown := config.Default()
	unknown.Providers.LLM.Name = "carrier-pigeon"
	_, err := buildProviders(unknown)
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}

// TestNewLogger_TeesToFile writes one line and finds it in the log file.
func TestNewLogger_TeesToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tool.log")
	logger, closeFn, err := newLogger(config.LogInfo, path)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible", "k", "v")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=visible k=v") {
		t.Errorf("log file missing info line: %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug line written at info level: %q", data)
	}
}
