// Package explain turns a technical phrase into a four-section explanation
// using a single call to the configured language model.
//
// [Service.Translate] runs the whole pipeline for one invocation:
// authenticate, validate, build the prompt, call the upstream once under a
// timeout, and parse the answer into an [Explanation]. The service keeps no
// state between calls and is safe for concurrent use.
package explain

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/techtranslator/internal/auth"
	"github.com/MrWong99/techtranslator/internal/observe"
	"github.com/MrWong99/techtranslator/internal/prompt"
	"github.com/MrWong99/techtranslator/pkg/provider/llm"
)

// DefaultTimeout bounds the upstream call when [Config.Timeout] is zero.
const DefaultTimeout = 30 * time.Second

// Config holds the translation settings read once at startup.
type Config struct {
	// Timeout bounds the single upstream call. Zero means [DefaultTimeout].
	Timeout time.Duration

	// MaxInputRunes rejects longer tech_text. Zero disables the bound.
	MaxInputRunes int

	// Temperature is passed through to the provider.
	Temperature float64

	// ProviderName labels metrics and logs.
	ProviderName string
}

// Request is one tool invocation.
type Request struct {
	// Token is the bearer token presented by the caller, with or without the
	// "Bearer " prefix.
	Token string

	// TechText is the technical phrase to explain.
	TechText string
}

// Option configures optional [Service] settings.
type Option func(*Service)

// WithMetrics records tool and upstream metrics on m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service runs translations. Create with [New].
type Service struct {
	cfg      Config
	auth     *auth.Authenticator
	provider llm.Provider
	metrics  *observe.Metrics
}

// New builds a Service. Both the authenticator and the provider are required.
func New(cfg Config, a *auth.Authenticator, p llm.Provider, opts ...Option) (*Service, error) {
	if a == nil {
		return nil, errors.New("explain: authenticator is required")
	}
	if p == nil {
		return nil, errors.New("explain: llm provider is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = "llm"
	}
	s := &Service{cfg: cfg, auth: a, provider: p}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s, nil
}

// Timeout returns the effective upstream timeout.
func (s *Service) Timeout() time.Duration { return s.cfg.Timeout }

// Authorize checks token against the configured secret. It is exported for
// tools that need the same gate without running a translation.
func (s *Service) Authorize(token string) error {
	if err := s.auth.Check(token); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// Translate explains req.TechText. Unauthorized and invalid requests fail
// before the upstream is contacted; otherwise exactly one upstream call is
// made. Errors match one of the package sentinels via [errors.Is].
func (s *Service) Translate(ctx context.Context, req Request) (*Explanation, error) {
	ctx, span := observe.StartSpan(ctx, "explain.Translate")
	var err error
	defer func() { observe.EndSpan(span, err) }()

	if err = s.Authorize(req.Token); err != nil {
		return nil, err
	}

	p, buildErr := prompt.Build(req.TechText, s.cfg.MaxInputRunes)
	if buildErr != nil {
		runes := utf8.RuneCountInString(prompt.Normalize(req.TechText))
		err = invalidInput(buildErr, runes, s.cfg.MaxInputRunes)
		return nil, err
	}
	span.SetAttributes(attribute.Int("tech_text.runes", utf8.RuneCountInString(p.User)))

	var exp *Explanation
	exp, err = s.complete(ctx, p)
	return exp, err
}

// complete performs the single upstream call and parses its answer.
func (s *Service) complete(ctx context.Context, p prompt.Prompt) (*Explanation, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.metrics.InflightTranslations.Add(ctx, 1)
	start := time.Now()
	resp, err := s.provider.Complete(callCtx, p.Request(s.cfg.Temperature))
	elapsed := time.Since(start)
	s.metrics.InflightTranslations.Add(ctx, -1)

	log := observe.Logger(ctx)
	if err != nil {
		kind := classify(callCtx.Err(), err)
		s.metrics.RecordUpstreamRequest(ctx, s.cfg.ProviderName, "error", elapsed.Seconds())
		s.metrics.RecordUpstreamError(ctx, s.cfg.ProviderName, Kind(kind))
		log.Warn("explain: upstream call failed",
			"provider", s.cfg.ProviderName,
			"kind", Kind(kind),
			"duration", elapsed,
			"err", err,
		)
		return nil, fmt.Errorf("%w: %w", kind, err)
	}
	if resp == nil {
		s.metrics.RecordUpstreamRequest(ctx, s.cfg.ProviderName, "error", elapsed.Seconds())
		s.metrics.RecordUpstreamError(ctx, s.cfg.ProviderName, Kind(ErrUpstreamInvalidResponse))
		return nil, fmt.Errorf("%w: no response", ErrUpstreamInvalidResponse)
	}

	s.metrics.RecordUpstreamRequest(ctx, s.cfg.ProviderName, "ok", elapsed.Seconds())
	s.metrics.RecordUpstreamTokens(ctx, s.cfg.ProviderName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	exp, err := ParseSections(resp.Content)
	if err != nil {
		s.metrics.RecordUpstreamError(ctx, s.cfg.ProviderName, Kind(err))
		log.Warn("explain: unusable completion",
			"provider", s.cfg.ProviderName,
			"model", resp.Model,
			"content_len", len(resp.Content),
			"err", err,
		)
		return nil, err
	}
	log.Debug("explain: translation complete",
		"provider", s.cfg.ProviderName,
		"model", resp.Model,
		"duration", elapsed,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return exp, nil
}
