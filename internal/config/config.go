// Package config provides the configuration schema, loader, and provider registry
// for the techtranslator MCP server.
package config

import "time"

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Defaults applied by [Default] before a file is decoded.
const (
	DefaultListenAddr    = "0.0.0.0:8086"
	DefaultMCPPath       = "/mcp"
	DefaultClientID      = "puch-client"
	DefaultLLMProvider   = "openrouter"
	DefaultTimeout       = 30 * time.Second
	DefaultMaxInputRunes = 4000
	DefaultTemperature   = 0.7
	DefaultServiceName   = "techtranslator"
)

// Config is the root configuration structure.
// It is typically loaded with [Load] or [LoadFromReader] and never changes
// after startup.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Translator TranslatorConfig `yaml:"translator"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., "0.0.0.0:8086").
	ListenAddr string `yaml:"listen_addr"`

	// MCPPath is the HTTP path the MCP endpoint is mounted on.
	MCPPath string `yaml:"mcp_path"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFile, when set, receives a copy of every log line.
	LogFile string `yaml:"log_file"`

	// BehindTunnel must be set when a tunnelling proxy forwards public
	// traffic to a loopback listener. It turns off the MCP handler's
	// localhost Host-header check.
	BehindTunnel bool `yaml:"behind_tunnel"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// AuthConfig holds the shared secret and the identity reported for callers.
type AuthConfig struct {
	// Token is the bearer token every caller must present (AUTH_TOKEN).
	Token string `yaml:"token"`

	// ClientID is the identity attached to verified requests.
	ClientID string `yaml:"client_id"`

	// CallerNumber is the owner's phone number returned by the validate
	// tool (MY_NUMBER).
	CallerNumber string `yaml:"caller_number"`
}

// ProvidersConfig declares which upstream implementation to use.
// The entry's Name selects a factory registered in the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
}

// ProviderEntry is the configuration block of a provider.
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openrouter", "anthropic").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above (e.g., "referer" and "title" for OpenRouter).
	Options map[string]any `yaml:"options"`
}

// TranslatorConfig tunes the translation service.
type TranslatorConfig struct {
	// Timeout bounds the single upstream call (e.g., "30s").
	Timeout time.Duration `yaml:"timeout"`

	// MaxInputRunes rejects longer tech_text. Zero disables the bound.
	MaxInputRunes int `yaml:"max_input_runes"`

	// Temperature is always sent to the model, in [0, 2]. 0 asks for the
	// most deterministic output.
	Temperature float64 `yaml:"temperature"`
}

// TelemetryConfig configures OpenTelemetry resource attributes.
type TelemetryConfig struct {
	// ServiceName is reported as service.name.
	ServiceName string `yaml:"service_name"`
}

// Default returns a Config populated with the built-in defaults. The auth
// token has no default and must be supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
			MCPPath:    DefaultMCPPath,
			LogLevel:   LogInfo,
		},
		Auth: AuthConfig{
			ClientID: DefaultClientID,
		},
		Providers: ProvidersConfig{
			LLM: ProviderEntry{Name: DefaultLLMProvider},
		},
		Translator: TranslatorConfig{
			Timeout:       DefaultTimeout,
			MaxInputRunes: DefaultMaxInputRunes,
			Temperature:   DefaultTemperature,
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}
