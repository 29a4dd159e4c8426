// Package openai provides an LLM provider that speaks the OpenAI chat
// completions wire format. By default it targets OpenRouter, which exposes
// many hosted models behind an OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/techtranslator/pkg/provider/llm"
)

const (
	// DefaultBaseURL is the OpenRouter OpenAI-compatible API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is a free OpenRouter model that handles short explanations well.
	DefaultModel = "openai/gpt-oss-20b:free"
)

// Provider implements llm.Provider on top of the openai-go client.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL    string
	referer    string
	title      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenRouter base URL. Point it at
// https://api.openai.com/v1 to talk to OpenAI directly.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithAttribution sets the HTTP-Referer and X-Title headers OpenRouter uses to
// attribute traffic to an application. Empty values are not sent.
func WithAttribution(referer, title string) Option {
	return func(c *config) {
		c.referer = referer
		c.title = title
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// New constructs a new Provider. An empty model selects [DefaultModel].
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
		// One invocation, one upstream request.
		option.WithMaxRetries(0),
	}
	if cfg.referer != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", cfg.referer))
	}
	if cfg.title != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", cfg.title))
	}
	hc := cfg.httpClient
	if hc == nil && cfg.timeout > 0 {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	if hc != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(hc))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Model returns the configured model identifier.
func (p *Provider) Model() string { return p.model }

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, fmt.Errorf("openai: build params: %w: %w", llm.ErrInvalidResponse, err)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w: %w", classify(ctx, err), err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w: empty choices in response", llm.ErrInvalidResponse)
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("openai: %w: empty content in response", llm.ErrInvalidResponse)
	}

	return &llm.CompletionResponse{
		Content: content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// classify maps an error returned by the openai-go client onto one of the
// llm failure classes.
func classify(ctx context.Context, err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return llm.ErrRateLimited
		case apiErr.StatusCode >= 500, apiErr.StatusCode == http.StatusRequestTimeout:
			return llm.ErrUnavailable
		default:
			return llm.ErrInvalidResponse
		}
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.ErrUnavailable
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return llm.ErrUnavailable
	}
	// The request went through but the body could not be decoded.
	return llm.ErrInvalidResponse
}

// buildParams converts a CompletionRequest into OpenAI SDK params.
func (p *Provider) buildParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	var messages []oai.ChatCompletionMessageParamUnion

	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}

	for _, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return oai.ChatCompletionNewParams{}, fmt.Errorf("openai: request has no messages")
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}

	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	return params, nil
}

// convertMessage converts an llm.Message to an OpenAI SDK message param.
func convertMessage(m llm.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case "system":
		return oai.SystemMessage(m.Content), nil
	case "user":
		return oai.UserMessage(m.Content), nil
	case "assistant":
		return oai.AssistantMessage(m.Content), nil
	default:
		return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai: unknown message role %q", m.Role)
	}
}
