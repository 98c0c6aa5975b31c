package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tok := DefaultTokenizer()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{}},
		{"punctuation and case", "Jazz Night! Live @ 8pm", []string{"jazz", "night", "live", "8pm"}},
		{"stop words dropped", "The Art of the Deal", []string{"art", "deal"}},
		{"domain filler dropped", "Join us: Welcome to the Event", []string{"us"}},
		{"hyphen separates", "state-of-the-art", []string{"state", "art"}},
		{"underscore separates", "open_mic", []string{"open", "mic"}},
		{"non ascii separates", "café crème", []string{"caf", "cr", "me"}},
		{"only symbols", "!@#$%^", []string{}},
		{"digits kept", "2024 Expo", []string{"2024", "expo"}},
		{"no stemming", "concerts concert", []string{"concerts", "concert"}},
		{"single characters kept", "Plan B x 5", []string{"plan", "b", "x", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Tokenize(tt.input))
		})
	}
}

func TestTokensIsRestartable(t *testing.T) {
	tok := DefaultTokenizer()
	seq := tok.Tokens("Kathmandu Jazz Festival")

	var first, second []string
	for tk := range seq {
		first = append(first, tk)
	}
	for tk := range seq {
		second = append(second, tk)
	}

	assert.Equal(t, []string{"kathmandu", "jazz", "festival"}, first)
	assert.Equal(t, first, second)
}

func TestTokensStopsEarly(t *testing.T) {
	tok := DefaultTokenizer()

	var got []string
	for tk := range tok.Tokens("one two three four") {
		got = append(got, tk)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestNewTokenizerCustomStopWords(t *testing.T) {
	tok := NewTokenizer([]string{" Free ", "TICKET", ""})

	assert.True(t, tok.IsStopWord("free"))
	assert.True(t, tok.IsStopWord("ticket"))
	assert.False(t, tok.IsStopWord("the"))
	assert.Equal(t, []string{"the", "show"}, tok.Tokenize("Free the Ticket show"))
}
