// ABOUTME: Derived conversation summaries: count, keywords, excerpt.
// ABOUTME: Recomputed in full at every conversation write, never patched.

package memory

import "strings"

// Summary is a non-authoritative aggregate of a message list.
type Summary struct {
	MessageCount int      `json:"messageCount"`
	Keywords     []string `json:"keywords"`
	Excerpt      string   `json:"excerpt"`
}

const (
	// minKeywordLen filters short filler words; only longer words count.
	minKeywordLen = 4
	// maxKeywords caps the keyword list.
	maxKeywords = 10
	// excerptLen truncates the first message for the excerpt.
	excerptLen = 120
)

// summarize computes a full summary of msgs. Keywords are lowercased
// words longer than minKeywordLen, deduplicated in order of first
// appearance, capped at maxKeywords.
func summarize(msgs []Message) Summary {
	s := Summary{MessageCount: len(msgs)}
	if len(msgs) == 0 {
		s.Keywords = []string{}
		return s
	}

	s.Excerpt = truncate(msgs[0].Content, excerptLen)

	seen := make(map[string]bool)
	s.Keywords = []string{}
	for _, msg := range msgs {
		for _, word := range strings.Fields(msg.Content) {
			word = strings.ToLower(strings.Trim(word, ".,!?;:\"'()[]"))
			if len(word) <= minKeywordLen || seen[word] {
				continue
			}
			seen[word] = true
			s.Keywords = append(s.Keywords, word)
			if len(s.Keywords) >= maxKeywords {
				return s
			}
		}
	}
	return s
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
