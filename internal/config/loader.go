package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the file.
const (
	EnvAuthToken     = "AUTH_TOKEN"
	EnvCallerNumber  = "MY_NUMBER"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvListenAddr    = "TECHTRANSLATOR_LISTEN_ADDR"
)

// ValidProviderNames lists known LLM provider names.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{
	"openrouter", "openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// LookupEnv reports the value of an environment variable. [os.LookupEnv]
// satisfies it.
type LookupEnv func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE pairs from files into the process environment.
// Variables that are already set are left untouched and missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := gotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load env file %q: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML configuration file at path, applies environment
// overrides from the process environment and returns a validated [Config].
// An empty path means defaults plus environment only.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromReader(strings.NewReader(""), os.LookupEnv)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default], applies
// overrides from lookup (which may be nil) and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader, lookup LookupEnv) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if lookup != nil {
		ApplyEnv(cfg, lookup)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overwrites cfg fields with the environment variables that are set
// and non-empty. OPENROUTER_API_KEY only applies to the openrouter provider.
func ApplyEnv(cfg *Config, lookup LookupEnv) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvAuthToken, &cfg.Auth.Token)
	set(EnvCallerNumber, &cfg.Auth.CallerNumber)
	set(EnvListenAddr, &cfg.Server.ListenAddr)
	if cfg.Providers.LLM.Name == DefaultLLMProvider {
		set(EnvOpenRouterKey, &cfg.Providers.LLM.APIKey)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if !strings.HasPrefix(cfg.Server.MCPPath, "/") {
		errs = append(errs, fmt.Errorf("server.mcp_path %q must start with /", cfg.Server.MCPPath))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "") != (tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Auth
	if cfg.Auth.Token == "" {
		errs = append(errs, fmt.Errorf("auth.token is required; set it in the file or via %s", EnvAuthToken))
	}
	if cfg.Auth.CallerNumber == "" {
		slog.Warn("auth.caller_number is empty; the validate tool will return an empty number", "env", EnvCallerNumber)
	}

	// Provider
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	} else {
		validateProviderName(cfg.Providers.LLM.Name)
	}

	// Translator
	if cfg.Translator.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("translator.timeout %s must be positive", cfg.Translator.Timeout))
	}
	if cfg.Translator.MaxInputRunes < 0 {
		errs = append(errs, fmt.Errorf("translator.max_input_runes %d must not be negative", cfg.Translator.MaxInputRunes))
	}
	if cfg.Translator.Temperature < 0 || cfg.Translator.Temperature > 2 {
		errs = append(errs, fmt.Errorf("translator.temperature %.2f is out of range [0, 2]", cfg.Translator.Temperature))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is not in [ValidProviderNames].
func validateProviderName(name string) {
	if slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or third-party provider",
		"kind", "llm",
		"name", name,
		"known", ValidProviderNames,
	)
}
