package explain

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/techtranslator/internal/auth"
	"github.com/MrWong99/techtranslator/internal/prompt"
	"github.com/MrWong99/techtranslator/pkg/provider/llm"
)

// Sentinel errors returned by [Service.Translate]. Every failure is terminal
// for the invocation; nothing is retried.
var (
	// ErrUnauthorized is returned when the bearer token is missing or wrong.
	ErrUnauthorized = errors.New("explain: unauthorized")

	// ErrInvalidInput is returned when tech_text is empty or too long.
	ErrInvalidInput = errors.New("explain: invalid input")

	// ErrUpstreamFailure is wrapped by every upstream error below.
	ErrUpstreamFailure = errors.New("explain: upstream failure")

	// ErrUpstreamUnavailable covers transport errors, 5xx answers and timeouts.
	ErrUpstreamUnavailable = fmt.Errorf("%w: unavailable", ErrUpstreamFailure)

	// ErrUpstreamRateLimited is returned when the upstream answers HTTP 429.
	ErrUpstreamRateLimited = fmt.Errorf("%w: rate limited", ErrUpstreamFailure)

	// ErrUpstreamInvalidResponse is returned for empty or unparseable completions.
	ErrUpstreamInvalidResponse = fmt.Errorf("%w: invalid response", ErrUpstreamFailure)
)

// inputError carries the caller-facing reason for an [ErrInvalidInput].
type inputError struct {
	reason string
	err    error
}

func (e *inputError) Error() string { return "explain: invalid input: " + e.reason }

func (e *inputError) Unwrap() error { return e.err }

func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

// invalidInput wraps a prompt build error. runes is the trimmed input length.
func invalidInput(err error, runes, limit int) error {
	reason := "tech_text is invalid"
	switch {
	case errors.Is(err, prompt.ErrEmpty):
		reason = "tech_text must not be empty"
	case errors.Is(err, prompt.ErrTooLong):
		reason = fmt.Sprintf("tech_text is too long (%d characters, limit is %d)", runes, limit)
	}
	return &inputError{reason: reason, err: err}
}

// classify maps a provider error onto the upstream taxonomy. A deadline on
// the call context always counts as unavailable, whatever the provider said.
func classify(callCtxErr, err error) error {
	switch {
	case errors.Is(callCtxErr, context.DeadlineExceeded):
		return ErrUpstreamUnavailable
	case errors.Is(err, llm.ErrRateLimited):
		return ErrUpstreamRateLimited
	case errors.Is(err, llm.ErrInvalidResponse):
		return ErrUpstreamInvalidResponse
	default:
		return ErrUpstreamUnavailable
	}
}

// Kind returns a short, stable label for err, used as a metric attribute and
// log field.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, auth.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUpstreamRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUpstreamInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

// UserMessage returns the single message shown to the caller for err.
// Internal details are never included.
func UserMessage(err error) string {
	switch Kind(err) {
	case "unauthorized":
		return "unauthorized: missing or invalid bearer token"
	case "invalid_input":
		var ie *inputError
		if errors.As(err, &ie) {
			return "invalid input: " + ie.reason
		}
		return "invalid input: tech_text is invalid"
	case "rate_limited":
		return "the language model is rate limiting requests, please try again later"
	case "invalid_response":
		return "the language model returned an unusable response"
	case "unavailable":
		return "the language model is unavailable right now, please try again later"
	default:
		return "internal error"
	}
}
