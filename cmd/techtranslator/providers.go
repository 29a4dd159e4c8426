package main

import (
	"log/slog"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/techtranslator/internal/config"
	"github.com/MrWong99/techtranslator/pkg/provider/llm"
	"github.com/MrWong99/techtranslator/pkg/provider/llm/anyllm"
	"github.com/MrWong99/techtranslator/pkg/provider/llm/openai"
)

// defaultTitle is sent as X-Title to OpenRouter when none is configured.
const defaultTitle = "techtranslator"

// registerBuiltinProviders wires the provider factories that ship with
// techtranslator into reg. httpTimeout caps a single HTTP exchange with
// OpenRouter; the translator applies its own deadline on top.
func registerBuiltinProviders(reg *config.Registry, httpTimeout time.Duration) {
	// OpenRouter speaks the OpenAI wire protocol, so the openai-go client is
	// pointed at its base URL.
	reg.RegisterLLM("openrouter", func(entry config.ProviderEntry) (llm.Provider, error) {
		opts := []openai.Option{openai.WithTimeout(httpTimeout)}
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		title := optString(entry.Options, "title")
		if title == "" {
			title = defaultTitle
		}
		opts = append(opts, openai.WithAttribution(optString(entry.Options, "referer"), title))
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining backends go through any-llm-go and share the same
	// pattern: optional APIKey + optional BaseURL.
	for _, backend := range anyllm.SupportedBackends {
		reg.RegisterLLM(backend, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(backend, entry.Model, opts...)
		})
	}

	for _, name := range reg.LLMNames() {
		slog.Debug("registered provider", "kind", "llm", "name", name)
	}
}

// optString extracts a string value from a provider Options map.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}
