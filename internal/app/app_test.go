package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sudanchapagain/event-booking-system/internal/config"
	"github.com/sudanchapagain/event-booking-system/internal/similarity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineAppliesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopwords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stop_words:\n  - kathmandu\n"), 0o644))

	engine, err := NewEngine(config.SimilarityConfig{
		TitleWeight:       3,
		DescriptionWeight: 1,
		StopWordsFile:     path,
	})
	require.NoError(t, err)

	assert.Equal(t, similarity.Weights{Title: 3, Description: 1}, engine.Weights)
	assert.Equal(t, []string{"jazz", "night"}, engine.Tokenizer.Tokenize("The Jazz night in Kathmandu"))
}

func TestNewEngineMissingStopWords(t *testing.T) {
	_, err := NewEngine(config.SimilarityConfig{TitleWeight: 1, StopWordsFile: "/does/not/exist.yaml"})
	require.Error(t, err)
}
