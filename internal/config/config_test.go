package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "https://dev.khalti.com/api/v2/", cfg.KhaltiBaseURL)
	assert.False(t, cfg.PaymentConfigured())
	assert.Equal(t, 2, cfg.Similarity.TitleWeight)
	assert.Equal(t, 2, cfg.Similarity.CategoryWeight)
	assert.True(t, cfg.Similarity.CategoryFilter)
	assert.Equal(t, 0.0, cfg.Similarity.MinScore)
	assert.Equal(t, 1, cfg.RebuildQueueSize)
	assert.Equal(t, 10*time.Minute, cfg.SimilarCacheTTL)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=event_booking sslmode=disable", cfg.DatabaseURL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KHALTI_SECRET_KEY", "live_secret")
	t.Setenv("KHALTI_BASE_URL", "https://khalti.com/api/v2")
	t.Setenv("PUBLIC_BASE_URL", "https://events.example.com/")
	t.Setenv("SIMILARITY_MIN_SCORE", "0.15")
	t.Setenv("SIMILARITY_CATEGORY_FILTER", "false")
	t.Setenv("SIMILARITY_TITLE_WEIGHT", "3")
	t.Setenv("SIMILAR_CACHE_TTL", "90s")
	t.Setenv("REBUILD_QUEUE_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.PaymentConfigured())
	assert.Equal(t, "https://khalti.com/api/v2/", cfg.KhaltiBaseURL)
	assert.Equal(t, "https://events.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 0.15, cfg.Similarity.MinScore)
	assert.False(t, cfg.Similarity.CategoryFilter)
	assert.Equal(t, 3, cfg.Similarity.TitleWeight)
	assert.Equal(t, 90*time.Second, cfg.SimilarCacheTTL)
	assert.Equal(t, 1, cfg.RebuildQueueSize, "unparsable values fall back to the default")
}

func TestLoadRejectsBadWeights(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SIMILARITY_TITLE_WEIGHT", "0")
	t.Setenv("SIMILARITY_DESCRIPTION_WEIGHT", "0")
	t.Setenv("SIMILARITY_LOCATION_WEIGHT", "0")
	t.Setenv("SIMILARITY_CATEGORY_WEIGHT", "0")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SIMILARITY_TITLE_WEIGHT", "-1")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadStopWords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stopwords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stop_words:\n  - free\n  - ticket\n"), 0o600))

	words, err := LoadStopWords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"free", "ticket"}, words)

	words, err = LoadStopWords("")
	require.NoError(t, err)
	assert.Nil(t, words)

	_, err = LoadStopWords(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("stop_words: [unterminated"), 0o600))
	_, err = LoadStopWords(bad)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())

	cfg.LogLevel = "nonsense"
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())
}
