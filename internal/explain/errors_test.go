package explain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrWong99/techtranslator/pkg/provider/llm"
)

func TestUpstreamErrors_WrapFailure(t *testing.T) {
	t.Parallel()
	for _, err := range []error{ErrUpstreamUnavailable, ErrUpstreamRateLimited, ErrUpstreamInvalidResponse} {
		if !errors.Is(err, ErrUpstreamFailure) {
			t.Errorf("%v does not wrap ErrUpstreamFailure", err)
		}
	}
	if errors.Is(ErrUpstreamRateLimited, ErrUpstreamUnavailable) {
		t.Error("rate limited must not match unavailable")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		ctxErr error
		err    error
		want   error
	}{
		{"deadline overrides", context.DeadlineExceeded, fmt.Errorf("x: %w", llm.ErrInvalidResponse), ErrUpstreamUnavailable},
		{"rate limited", nil, fmt.Errorf("x: %w", llm.ErrRateLimited), ErrUpstreamRateLimited},
		{"invalid", nil, fmt.Errorf("x: %w", llm.ErrInvalidResponse), ErrUpstreamInvalidResponse},
		{"unavailable", nil, fmt.Errorf("x: %w", llm.ErrUnavailable), ErrUpstreamUnavailable},
		{"cancelled", context.Canceled, errors.New("read: connection reset"), ErrUpstreamUnavailable},
		{"unknown", nil, errors.New("???"), ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classify(tt.ctxErr, tt.err); got != tt.want {
				t.Errorf("classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("%w: nope", ErrUnauthorized), "unauthorized"},
		{&inputError{reason: "x"}, "invalid_input"},
		{fmt.Errorf("%w: 429", ErrUpstreamRateLimited), "rate_limited"},
		{ErrUpstreamInvalidResponse, "invalid_response"},
		{ErrUpstreamUnavailable, "unavailable"},
		{errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserMessage_Unauthorized(t *testing.T) {
	t.Parallel()
	got := UserMessage(fmt.Errorf("%w: token mismatch", ErrUnauthorized))
	if got != "unauthorized: missing or invalid bearer token" {
		t.Errorf("UserMessage = %q", got)
	}
}
