package explain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MrWong99/techtranslator/internal/prompt"
)

// Explanation is the four-section answer for one technical phrase.
type Explanation struct {
	PlainEnglish string `json:"plain_english" jsonschema:"the phrase explained for a non-technical adult"`
	TLDR         string `json:"tldr" jsonschema:"one sentence summary"`
	ELI5         string `json:"eli5" jsonschema:"explanation a five-year-old could follow"`
	Diagram      string `json:"diagram" jsonschema:"free-form text diagram"`
}

// Format renders e as a single text block with the labelled sections in
// fixed order.
func (e *Explanation) Format() string {
	var b strings.Builder
	for i, body := range e.sections() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(prompt.Labels[i])
		b.WriteString(":\n")
		b.WriteString(body)
	}
	return b.String()
}

func (e *Explanation) sections() [4]string {
	return [4]string{e.PlainEnglish, e.TLDR, e.ELI5, e.Diagram}
}

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)

	// headerRe matches a section header line: optional list marker, emoji or
	// markdown decoration, the label, and an optional colon or dash followed
	// by text on the same line.
	headerRe = regexp.MustCompile(`(?i)^[\s>#*_\-\d.)\p{So}\p{Mn}\p{Cf}]*` +
		`(plain[\s-]*english|tl;?\s*dr|eli5|diagram|visual)` +
		`[*_\s]*(?:\([^)]*\))?[*_\s]*([:\-\x{2013}\x{2014}])?[*_\s]*(.*)$`)

	numberedRe = regexp.MustCompile(`(?m)^\s*\**(\d+)[.)]\**\s+`)
)

// clean removes reasoning blocks and a code fence wrapping the whole answer.
func clean(s string) string {
	s = thinkBlockRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) > 6 {
		inner := strings.TrimSuffix(s, "```")
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
			s = strings.TrimSpace(inner[nl+1:])
		}
	}
	return s
}

// labelIndex maps a matched header label to its position in [prompt.Labels].
func labelIndex(label string) int {
	l := strings.ToLower(label)
	switch {
	case strings.HasPrefix(l, "plain"):
		return 0
	case strings.HasPrefix(l, "tl"):
		return 1
	case l == "eli5":
		return 2
	default:
		return 3
	}
}

// ParseSections extracts the four sections from a model completion. Headers
// are matched in order; text before the first header is ignored. When no
// labelled headers are found, a numbered list of exactly four items is
// accepted instead. Any missing or empty section yields
// [ErrUpstreamInvalidResponse].
func ParseSections(completion string) (*Explanation, error) {
	text := clean(completion)
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrUpstreamInvalidResponse)
	}

	bodies, ok := splitLabelled(text)
	if !ok {
		bodies, ok = splitNumbered(text)
	}
	if !ok {
		return nil, fmt.Errorf("%w: sections not found", ErrUpstreamInvalidResponse)
	}

	for i := range bodies {
		if i == 3 {
			bodies[i] = trimBlankLines(bodies[i])
		} else {
			bodies[i] = strings.TrimSpace(bodies[i])
		}
		if bodies[i] == "" {
			return nil, fmt.Errorf("%w: %s section is empty", ErrUpstreamInvalidResponse, prompt.Labels[i])
		}
	}
	return &Explanation{
		PlainEnglish: bodies[0],
		TLDR:         bodies[1],
		ELI5:         bodies[2],
		Diagram:      bodies[3],
	}, nil
}

func splitLabelled(text string) ([4]string, bool) {
	var parts [4][]string
	cur, next := -1, 0
	for _, line := range strings.Split(text, "\n") {
		if next < len(parts) {
			if m := headerRe.FindStringSubmatch(line); m != nil && labelIndex(m[1]) == next {
				rest := strings.TrimSpace(m[3])
				// Without a separator only a bare label line counts as a header.
				if m[2] != "" || rest == "" {
					cur = next
					next++
					if rest != "" {
						parts[cur] = append(parts[cur], rest)
					}
					continue
				}
			}
		}
		if cur >= 0 {
			parts[cur] = append(parts[cur], line)
		}
	}
	var out [4]string
	if next < len(parts) {
		return out, false
	}
	for i := range parts {
		out[i] = strings.Join(parts[i], "\n")
	}
	return out, true
}

func splitNumbered(text string) ([4]string, bool) {
	var out [4]string
	locs := numberedRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) != len(out) {
		return out, false
	}
	for i, loc := range locs {
		if text[loc[2]:loc[3]] != fmt.Sprint(i+1) {
			return out, false
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out[i] = text[loc[1]:end]
	}
	return out, true
}

// trimBlankLines drops leading and trailing blank lines but keeps the
// indentation a text diagram relies on.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}
	return strings.Join(lines, "\n")
}
