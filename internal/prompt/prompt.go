// Package prompt builds the instruction sent to the language model for a
// technical phrase. It performs no I/O.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/techtranslator/pkg/provider/llm"
)

// Section labels in the order the model is asked to emit them.
const (
	LabelPlainEnglish = "Plain English"
	LabelTLDR         = "TL;DR"
	LabelELI5         = "ELI5"
	LabelDiagram      = "Diagram"
)

// Labels lists the section labels in output order.
var Labels = [4]string{LabelPlainEnglish, LabelTLDR, LabelELI5, LabelDiagram}

// SystemPrompt is the fixed instruction that frames every request.
const SystemPrompt = `You are a tech explainer. For any technical text you receive, respond with exactly four sections, in this order, each starting on its own line with its number and label:

1. Plain English: a clear explanation for a non-technical adult, two to four sentences.
2. TL;DR: a single sentence summary.
3. ELI5: an explanation a five-year-old could follow, using a simple analogy.
4. Diagram: a simple text-based diagram (ASCII art or an indented tree) showing how the parts relate.

Do not add any introduction, closing remarks or extra sections.`

// ErrEmpty is returned when the technical text is empty after trimming.
var ErrEmpty = errors.New("prompt: tech_text must not be empty")

// ErrTooLong is returned when the technical text exceeds the rune limit.
var ErrTooLong = errors.New("prompt: tech_text is too long")

// Prompt is the constructed request for one translation.
type Prompt struct {
	System string
	User   string
}

// Build trims techText and wraps it into a [Prompt]. Text longer than
// maxRunes runes is rejected, never truncated; maxRunes <= 0 disables the
// bound.
func Build(techText string, maxRunes int) (Prompt, error) {
	text := Normalize(techText)
	if text == "" {
		return Prompt{}, ErrEmpty
	}
	if maxRunes > 0 {
		if n := utf8.RuneCountInString(text); n > maxRunes {
			return Prompt{}, fmt.Errorf("%w: %d characters, limit is %d", ErrTooLong, n, maxRunes)
		}
	}
	return Prompt{System: SystemPrompt, User: text}, nil
}

// Normalize trims surrounding whitespace and composes the text to NFC, so a
// decomposed "é" counts as one character against the length limit.
func Normalize(techText string) string {
	return norm.NFC.String(strings.TrimSpace(techText))
}

// Request converts p into a single-turn completion request.
func (p Prompt) Request(temperature float64) llm.CompletionRequest {
	return llm.CompletionRequest{
		SystemPrompt: p.System,
		Messages:     []llm.Message{{Role: "user", Content: p.User}},
		Temperature:  llm.Float(temperature),
	}
}
