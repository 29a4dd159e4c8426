package prompt

import (
	"errors"
	"strings"
	"testing"
)

// TestBuild_TrimsInput checks that surrounding whitespace is removed.
func TestBuild_TrimsInput(t *testing.T) {
	p, err := Build("  API rate limiting \n", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.User != "API rate limiting" {
		t.Errorf("User = %q, want %q", p.User, "API rate limiting")
	}
	if p.System != SystemPrompt {
		t.Error("System should be the fixed SystemPrompt")
	}
}

// TestBuild_Empty checks that empty and whitespace-only text is rejected.
func TestBuild_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := Build(in, 100); !errors.Is(err, ErrEmpty) {
			t.Errorf("Build(%q) err = %v, want ErrEmpty", in, err)
		}
	}
}

// TestBuild_TooLong checks the reject policy counts runes, not bytes.
func TestBuild_TooLong(t *testing.T) {
	if _, err := Build(strings.Repeat("ü", 10), 10); err != nil {
		t.Errorf("10 runes at limit 10 should pass, got %v", err)
	}
	_, err := Build(strings.Repeat("ü", 11), 10)
	if !errors.Is(err, ErrTooLong) {
		t.Fatalf("err = %v, want ErrTooLong", err)
	}
	if !strings.Contains(err.Error(), "limit is 10") {
		t.Errorf("error should mention the limit, got: %v", err)
	}
}

// TestBuild_ComposesBeforeCounting checks decomposed accents count once.
func TestBuild_ComposesBeforeCounting(t *testing.T) {
	decomposed := strings.Repeat("e\u0301", 10)
	p, err := Build(decomposed, 10)
	if err != nil {
		t.Fatalf("10 composed characters at limit 10 should pass, got %v", err)
	}
	if want := strings.Repeat("\u00e9", 10); p.User != want {
		t.Errorf("User = %q, want %q", p.User, want)
	}
	if got := Normalize(" e\u0301 "); got != "\u00e9" {
		t.Errorf("Normalize = %q, want %q", got, "\u00e9")
	}
}

// TestBuild_NoLimit checks that a non-positive limit disables the bound.
func TestBuild_NoLimit(t *testing.T) {
	if _, err := Build(strings.Repeat("x", 100_000), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestSystemPrompt_LabelOrder checks the instruction lists every label in order.
func TestSystemPrompt_LabelOrder(t *testing.T) {
	last := -1
	for _, label := range Labels {
		idx := strings.Index(SystemPrompt, label+":")
		if idx < 0 {
			t.Fatalf("SystemPrompt is missing label %q", label)
		}
		if idx <= last {
			t.Errorf("label %q is out of order", label)
		}
		last = idx
	}
}

// TestPrompt_Request checks the conversion to a completion request.
func TestPrompt_Request(t *testing.T) {
	p, _ := Build("OAuth", 0)
	req := p.Request(0.7)
	if req.SystemPrompt != SystemPrompt {
		t.Error("SystemPrompt not carried over")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "OAuth" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", req.Temperature)
	}
	if zero := p.Request(0); zero.Temperature == nil || *zero.Temperature != 0 {
		t.Errorf("a zero temperature must still be sent, got %v", zero.Temperature)
	}
}
