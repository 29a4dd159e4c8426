// Package llm defines the Provider interface for Large Language Model backends.
//
// A provider wraps a hosted or local model API (OpenRouter through the OpenAI
// wire format, Anthropic, a local Ollama instance, ...) and exposes one
// synchronous completion call so the translation service does not couple to
// any specific SDK.
//
// Implementors must be safe for concurrent use and must not retry on their
// own: every call to Complete results in at most one upstream request.
package llm

import (
	"context"
	"errors"
)

// Failure classes every provider maps its errors onto. Providers wrap one of
// these with %w so callers can classify via [errors.Is] without inspecting
// SDK-specific error types.
var (
	// ErrUnavailable covers transport failures, 5xx responses, timeouts and
	// cancellation.
	ErrUnavailable = errors.New("llm: upstream unavailable")

	// ErrRateLimited is returned when the upstream answers HTTP 429.
	ErrRateLimited = errors.New("llm: upstream rate limited")

	// ErrInvalidResponse is returned when the upstream answered but the payload
	// is unusable: no choices, empty content, or a rejected request (other 4xx).
	ErrInvalidResponse = errors.New("llm: invalid upstream response")
)

// Message is a single message in a completion request.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
// All counts are in the model's native token unit and may differ between providers
// for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages and
	// system prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Some providers return it
	// directly rather than computing it from the parts.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically from
	// the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0]. Nil
	// leaves the provider default in place; a pointer to 0 asks for
	// deterministic output.
	Temperature *float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// SystemPrompt is an optional high-priority instruction injected before
	// Messages. Providers send it as a "system"-role message.
	SystemPrompt string
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Model is the model that actually served the request, as reported by the
	// backend. Routers such as OpenRouter may substitute a fallback model.
	Model string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Errors wrap one of [ErrUnavailable], [ErrRateLimited] or
	// [ErrInvalidResponse]. When ctx is cancelled or its deadline passes, the
	// method returns promptly with an error wrapping [ErrUnavailable].
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Float returns a pointer to v, for optional request fields such as
// [CompletionRequest.Temperature].
func Float(v float64) *float64 { return &v }
