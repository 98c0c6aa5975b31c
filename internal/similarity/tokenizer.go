package similarity

import (
	"iter"
	"slices"
	"strings"
)

// EnglishStopWords are common function words that carry no topical signal.
var EnglishStopWords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had",
	"do", "does", "did", "will", "would", "could", "should", "may", "might", "must", "can",
	"this", "that", "these", "those", "i", "you", "he", "she", "it", "we", "they",
	"what", "which", "who", "when", "where", "why", "how",
}

// DomainStopWords are filler words that appear in nearly every event listing.
var DomainStopWords = []string{"event", "events", "join", "welcome"}

// Tokenizer splits text into lowercase ASCII alphanumeric tokens and drops stop words.
// It is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	stop map[string]struct{}
}

// NewTokenizer builds a tokenizer that drops every word in the given lists.
// Words are lowercased before they are added.
func NewTokenizer(stopLists ...[]string) *Tokenizer {
	stop := make(map[string]struct{})
	for _, list := range stopLists {
		for _, w := range list {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				stop[w] = struct{}{}
			}
		}
	}
	return &Tokenizer{stop: stop}
}

// DefaultTokenizer drops EnglishStopWords and DomainStopWords.
func DefaultTokenizer() *Tokenizer {
	return NewTokenizer(EnglishStopWords, DomainStopWords)
}

// IsStopWord reports whether w (already lowercase) is dropped.
func (t *Tokenizer) IsStopWord(w string) bool {
	_, ok := t.stop[w]
	return ok
}

// Tokens returns a lazy sequence over the tokens of text. Ranging over it again
// restarts from the beginning.
func (t *Tokenizer) Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		lower := strings.ToLower(text)
		start := -1
		for i := 0; i <= len(lower); i++ {
			if i < len(lower) && isAlnum(lower[i]) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start < 0 {
				continue
			}
			tok := lower[start:i]
			start = -1
			if t.IsStopWord(tok) {
				continue
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Tokenize collects Tokens into a slice. The result is never nil.
func (t *Tokenizer) Tokenize(text string) []string {
	tokens := slices.Collect(t.Tokens(text))
	if tokens == nil {
		return []string{}
	}
	return tokens
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
