package anyllm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/techtranslator/pkg/provider/llm"
)

// ── Constructor ───────────────────────────────────────────────────────────────

// TestNew_EmptyProviderName checks that an empty provider name returns an error.
func TestNew_EmptyProviderName(t *testing.T) {
	_, err := New("", "gpt-4o-mini")
	if err == nil {
		t.Fatal("expected error for empty providerName")
	}
}

// TestNew_EmptyModel checks that an empty model name returns an error.
func TestNew_EmptyModel(t *testing.T) {
	_, err := New("openai", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}

// TestNew_UnsupportedProvider checks that an unsupported provider returns an error.
func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New("fakecloud", "some-model", anyllmlib.WithAPIKey("dummy"))
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

// TestNew_OpenAI_WithAPIKey checks that the OpenAI backend constructs with an API key.
func TestNew_OpenAI_WithAPIKey(t *testing.T) {
	p, err := New("OpenAI", "gpt-4o-mini", anyllmlib.WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", p.Name())
	}
	if p.Model() != "gpt-4o-mini" {
		t.Errorf("Model() = %q, want gpt-4o-mini", p.Model())
	}
}

// TestNew_LocalBackends checks that local servers construct without an API key.
func TestNew_LocalBackends(t *testing.T) {
	for _, name := range []string{"ollama", "llamacpp", "llamafile"} {
		t.Run(name, func(t *testing.T) {
			p, err := New(name, "llama3")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p == nil {
				t.Fatal("expected non-nil provider")
			}
		})
	}
}

// ── buildParams ───────────────────────────────────────────────────────────────

// TestBuildParams_SystemPromptFirst checks message ordering and optional fields.
func TestBuildParams_SystemPromptFirst(t *testing.T) {
	p := &Provider{model: "m"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "explain",
		Messages:     []llm.Message{{Role: "user", Content: "DNS"}},
		Temperature:  llm.Float(0.7),
	})
	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("first role = %q, want system", params.Messages[0].Role)
	}
	if params.Messages[1].ContentString() != "DNS" {
		t.Errorf("user content = %q, want DNS", params.Messages[1].ContentString())
	}
	if params.Temperature == nil || *params.Temperature != 0.7 {
		t.Errorf("temperature not propagated: %v", params.Temperature)
	}
	if params.MaxTokens != nil {
		t.Errorf("MaxTokens should be unset, got %d", *params.MaxTokens)
	}
}

// TestComplete_NoMessages checks that an empty request is rejected before the backend.
func TestComplete_NoMessages(t *testing.T) {
	p := &Provider{model: "m"}
	_, err := p.Complete(context.Background(), llm.CompletionRequest{})
	if !errors.Is(err, llm.ErrInvalidResponse) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

// ── classify ──────────────────────────────────────────────────────────────────

// TestClassify maps representative backend errors onto failure classes.
func TestClassify(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want error
	}{
		{"deadline", context.Background(), fmt.Errorf("post: %w", context.DeadlineExceeded), llm.ErrUnavailable},
		{"cancelled ctx", cancelled, errors.New("request aborted"), llm.ErrUnavailable},
		{"429", context.Background(), errors.New("POST /v1/messages: 429 Too Many Requests"), llm.ErrRateLimited},
		{"rate limit text", context.Background(), errors.New("Rate limit reached for requests"), llm.ErrRateLimited},
		{"503", context.Background(), errors.New("503 Service Unavailable"), llm.ErrUnavailable},
		{"overloaded", context.Background(), errors.New("overloaded_error"), llm.ErrUnavailable},
		{"bad request", context.Background(), errors.New("400 Bad Request: invalid model"), llm.ErrInvalidResponse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.ctx, tc.err); got != tc.want {
				t.Errorf("classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

// TestBuildParams_Temperature checks zero is forwarded and nil is left unset.
func TestBuildParams_Temperature(t *testing.T) {
	p := &Provider{model: "m"}
	msgs := []llm.Message{{Role: "user", Content: "DNS"}}

	zero := p.buildParams(llm.CompletionRequest{Messages: msgs, Temperature: llm.Float(0)})
	if zero.Temperature == nil || *zero.Temperature != 0 {
		t.Errorf("zero temperature = %v, want explicit 0", zero.Temperature)
	}
	unset := p.buildParams(llm.CompletionRequest{Messages: msgs})
	if unset.Temperature != nil {
		t.Errorf("unset temperature = %v, want nil", *unset.Temperature)
	}
}
