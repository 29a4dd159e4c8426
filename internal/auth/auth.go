// Package auth checks the shared-secret bearer token presented by callers.
//
// The same [Authenticator] backs two layers: the HTTP middleware provided by
// the MCP SDK (through [Authenticator.Verifier]) and the per-invocation check
// inside the translation service.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdkauth "github.com/modelcontextprotocol/go-sdk/auth"
)

// ErrUnauthorized is returned when the token is missing or does not match.
var ErrUnauthorized = errors.New("auth: missing or invalid bearer token")

// tokenLifetime is the expiry reported to the SDK middleware for a verified
// static token. The token is re-verified on every HTTP request.
const tokenLifetime = time.Hour

// Authenticator compares presented tokens with a configured secret.
// It is stateless and safe for concurrent use.
type Authenticator struct {
	secret []byte
}

// New returns an Authenticator for secret. An empty secret is refused so a
// misconfigured server can never accept anonymous calls.
func New(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: secret must not be empty")
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// Check reports whether token matches the secret. An optional "Bearer "
// prefix is stripped first.
func (a *Authenticator) Check(token string) error {
	token = stripBearer(token)
	if token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), a.secret) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Verifier adapts a to the MCP SDK's bearer-token middleware. Verified tokens
// are attributed to clientID with the wildcard scope.
func (a *Authenticator) Verifier(clientID string) sdkauth.TokenVerifier {
	return func(_ context.Context, token string, _ *http.Request) (*sdkauth.TokenInfo, error) {
		if err := a.Check(token); err != nil {
			return nil, fmt.Errorf("%w: %w", sdkauth.ErrInvalidToken, err)
		}
		return &sdkauth.TokenInfo{
			UserID:     clientID,
			Scopes:     []string{"*"},
			Expiration: time.Now().Add(tokenLifetime),
		}, nil
	}
}

// TokenFromHeader returns the bearer token carried in the Authorization
// header, or "" when there is none.
func TokenFromHeader(h http.Header) string {
	if h == nil {
		return ""
	}
	v := h.Get("Authorization")
	if len(v) < len("Bearer ") || !strings.EqualFold(v[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(v[len("Bearer "):])
}

func stripBearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= len("Bearer ") && strings.EqualFold(token[:len("Bearer ")], "Bearer ") {
		token = strings.TrimSpace(token[len("Bearer "):])
	}
	return token
}
