// Package chunker splits item text into ordered retrieval segments.
//
// Ord 0 is always the title or subject line. Body text becomes a lead
// segment followed by fixed-size overlapping windows, with a token cap
// applied on top so no segment exceeds the embedding model's context.
package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Params configures segmentation. Zero values fall back to the
// defaults below; a MaxTokens of 0 disables the token cap entirely.
type Params struct {
	Encoder    string
	MaxTokens  int
	WindowSize int
	Overlap    int
	TitleLimit int
	MinTail    int
}

const (
	DefaultEncoder    = "o200k_base"
	DefaultWindowSize = 1200
	DefaultOverlap    = 160
	DefaultTitleLimit = 300
	DefaultMinTail    = 80
)

// Segment is one chunk-to-be: its ord slot and text.
type Segment struct {
	Ord  int
	Text string
}

func (p Params) withDefaults() Params {
	if p.Encoder == "" {
		p.Encoder = DefaultEncoder
	}
	if p.WindowSize <= 0 {
		p.WindowSize = DefaultWindowSize
	}
	if p.Overlap < 0 || p.Overlap >= p.WindowSize {
		p.Overlap = DefaultOverlap
	}
	if p.TitleLimit <= 0 {
		p.TitleLimit = DefaultTitleLimit
	}
	if p.MinTail <= 0 {
		p.MinTail = DefaultMinTail
	}
	return p
}

// Split segments title and body into ordered chunks. The title segment
// always occupies ord 0, truncated to the title limit; body segments
// follow from ord 1. An empty body yields only the title segment, and
// an empty title yields an empty ord 0 so body ords stay stable.
func Split(title, body string, params Params) ([]Segment, error) {
	params = params.withDefaults()

	segments := []Segment{{
		Ord:  0,
		Text: truncateRunes(strings.TrimSpace(title), params.TitleLimit),
	}}

	windows := windowBody(strings.TrimSpace(body), params.WindowSize, params.Overlap, params.MinTail)

	if params.MaxTokens > 0 {
		enc, err := tiktoken.GetEncoding(params.Encoder)
		if err != nil {
			return nil, err
		}
		capped := make([]string, 0, len(windows))
		for _, window := range windows {
			capped = append(capped, capTokens(window, enc, params.MaxTokens)...)
		}
		windows = capped
	}

	for _, window := range windows {
		segments = append(segments, Segment{Ord: len(segments), Text: window})
	}
	return segments, nil
}

// windowBody cuts text into windows of size chars advancing by
// size-overlap, on rune boundaries. A final fragment shorter than
// minTail merges into the previous window instead of standing alone.
func windowBody(text string, size, overlap, minTail int) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			tail := strings.TrimSpace(string(runes[start:]))
			if len([]rune(tail)) < minTail && len(windows) > 0 {
				windows[len(windows)-1] = strings.TrimSpace(string(runes[start-step : len(runes)]))
			} else if tail != "" {
				windows = append(windows, tail)
			}
			break
		}
		windows = append(windows, strings.TrimSpace(string(runes[start:end])))
	}
	return windows
}

// capTokens re-splits a window whose token count exceeds maxTokens,
// accumulating sentences until the cap would be crossed. A single
// sentence over the cap is kept whole rather than cut mid-word.
func capTokens(text string, enc *tiktoken.Tiktoken, maxTokens int) []string {
	if len(enc.Encode(text, nil, nil)) <= maxTokens {
		return []string{text}
	}

	sentences := SplitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var parts []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		parts = append(parts, strings.Join(current, " "))
		current = nil
		currentTokens = 0
	}

	for _, sentence := range sentences {
		tokens := len(enc.Encode(sentence, nil, nil))
		if currentTokens+tokens > maxTokens && len(current) > 0 {
			flush()
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	flush()

	return parts
}

// SplitSentences breaks text at sentence boundaries. Terminators
// followed by closing quotes or brackets keep those attached; a digit
// directly before a period ("1. first item") does not terminate.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		for i := 0; i < len(trimmed); i++ {
			current.WriteByte(trimmed[i])

			if trimmed[i] != '.' && trimmed[i] != '!' && trimmed[i] != '?' {
				continue
			}
			if trimmed[i] == '.' && i > 0 && isDigit(trimmed[i-1]) && i+1 < len(trimmed) && trimmed[i+1] == ' ' {
				continue
			}

			j := i + 1
			for j < len(trimmed) && (trimmed[j] == '.' || trimmed[j] == '!' || trimmed[j] == '?') {
				current.WriteByte(trimmed[j])
				j++
			}
			for j < len(trimmed) && (trimmed[j] == '"' || trimmed[j] == '\'' || trimmed[j] == ')' ||
				trimmed[j] == ']' || trimmed[j] == '}') {
				current.WriteByte(trimmed[j])
				j++
			}
			flush()
			i = j - 1
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
	}
	flush()

	return sentences
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
